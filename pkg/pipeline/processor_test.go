package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"therapy-notes/pkg/aggregator"
	"therapy-notes/pkg/attribution"
	"therapy-notes/pkg/llm"
	"therapy-notes/pkg/models"
	"therapy-notes/pkg/quality"
	"therapy-notes/pkg/segmenter"
	"therapy-notes/pkg/summarizer"
)

type sentenceSplitter func(string) []string

func (f sentenceSplitter) Split(text string) []string { return f(text) }

var byPeriod = sentenceSplitter(func(text string) []string {
	var out []string
	for _, s := range strings.SplitAfter(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
})

const finalNote = "Speech Therapy Note\nSubjective\nThe client feels low.\nPlan\n1. Rest."

func newProcessor(t *testing.T, gen llm.Generator) *Processor {
	t.Helper()
	splitter, err := segmenter.New(segmenter.DefaultChunkSize, segmenter.DefaultChunkOverlap)
	if err != nil {
		t.Fatal(err)
	}
	return &Processor{
		Splitter:    splitter,
		Attributor:  attribution.New(gen, byPeriod, attribution.Options{}),
		Summarizer:  summarizer.New(gen, summarizer.Options{}),
		Evaluator:   quality.NewEvaluator(gen, quality.Options{}),
		Composer:    aggregator.New(gen, aggregator.Options{}),
		AcceptScore: 85,
		Concurrency: 1,
	}
}

// scripted answers every stage; evaluate scores come from score.
func scripted(score func(summary string) string) *llm.Fake {
	return &llm.Fake{Respond: func(req llm.Request) (string, error) {
		switch req.Stage {
		case attribution.StageLabel, attribution.StageRelabel:
			return "Therapist: How are you.\nClient: I feel low.", nil
		case summarizer.StageSummarize:
			return "ORIGINAL summary", nil
		case summarizer.StageRefine:
			return "REVISED summary", nil
		case quality.StageEvaluate:
			return score(req.User), nil
		case aggregator.StageAggregate:
			return "Subjective\npartial", nil
		case aggregator.StageMerge:
			return finalNote, nil
		}
		return "", fmt.Errorf("unexpected stage %q", req.Stage)
	}}
}

func wordsTranscript(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%03d", i)
	}
	return strings.Join(words, " ")
}

func TestReview(t *testing.T) {
	tests := []struct {
		name         string
		initial      string
		revised      string
		wantText     string
		wantFinal    int
		wantRefined  bool
		wantAttempts int
	}{
		{"accepted at threshold", "SCORE: 85", "", "ORIGINAL summary", 85, false, 1},
		{"accepted above threshold", "SCORE: 97\nCRITIQUE: fine", "", "ORIGINAL summary", 97, false, 1},
		{"refinement improves", "SCORE: 70\nCRITIQUE: missing quotes", "SCORE: 88", "REVISED summary", 88, true, 2},
		{"refinement worse keeps original", "SCORE: 70\nCRITIQUE: missing quotes", "SCORE: 65", "ORIGINAL summary", 70, false, 2},
		{"refinement tie keeps original", "SCORE: 70", "SCORE: 70", "ORIGINAL summary", 70, false, 2},
		{"refinement below threshold still accepted", "SCORE: 40", "SCORE: 60", "REVISED summary", 60, true, 2},
		{"unparseable score defaults to 50", "looks good", "SCORE: 51", "REVISED summary", 51, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := scripted(func(user string) string {
				if strings.Contains(user, "REVISED") {
					return tt.revised
				}
				return tt.initial
			})
			p := newProcessor(t, fake)

			seg := models.Segment{Index: 3, Text: "How are you. I feel low."}
			got, report, err := p.Review(context.Background(), seg, "ORIGINAL summary", "Client: I feel low.")
			if err != nil {
				t.Fatalf("Review() error = %v", err)
			}

			if got.Text != tt.wantText || got.Score != tt.wantFinal || got.Refined != tt.wantRefined {
				t.Errorf("Review() = %+v", got)
			}
			if got.SegmentIndex != 3 || report.SegmentIndex != 3 {
				t.Errorf("segment index not carried: %+v %+v", got, report)
			}
			if report.FinalScore != tt.wantFinal || report.Accepted != tt.wantRefined {
				t.Errorf("report = %+v", report)
			}
			if n := len(fake.Calls(quality.StageEvaluate)); n != tt.wantAttempts {
				t.Errorf("evaluate calls = %d, want %d", n, tt.wantAttempts)
			}
			if n := len(fake.Calls(summarizer.StageRefine)); n != tt.wantAttempts-1 {
				t.Errorf("refine calls = %d, want %d", n, tt.wantAttempts-1)
			}
			if tt.wantAttempts == 1 && report.RefinedScore != nil {
				t.Errorf("RefinedScore = %d, want nil", *report.RefinedScore)
			}
		})
	}
}

func TestReview_RefineGetsCritiqueAndConversation(t *testing.T) {
	fake := scripted(func(user string) string {
		if strings.Contains(user, "REVISED") {
			return "SCORE: 90"
		}
		return "SCORE: 70\nCRITIQUE: missing quotes"
	})
	p := newProcessor(t, fake)

	_, _, err := p.Review(context.Background(), models.Segment{Text: "src"}, "ORIGINAL summary", "Therapist: hi\nClient: hello")
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	refine := fake.Calls(summarizer.StageRefine)
	if len(refine) != 1 {
		t.Fatalf("refine calls = %d", len(refine))
	}
	for _, want := range []string{"ORIGINAL summary", "missing quotes", "Therapist: hi\nClient: hello"} {
		if !strings.Contains(refine[0].User, want) {
			t.Errorf("refine prompt missing %q", want)
		}
	}
}

func TestRun(t *testing.T) {
	fake := scripted(func(string) string { return "SCORE: 90\nCRITIQUE: solid" })
	p := newProcessor(t, fake)

	res, err := p.Run(context.Background(), wordsTranscript(800))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Segments) != 3 || len(res.Summaries) != 3 || len(res.Reports) != 3 {
		t.Fatalf("got %d segments, %d summaries, %d reports", len(res.Segments), len(res.Summaries), len(res.Reports))
	}
	for i, s := range res.Summaries {
		if s.SegmentIndex != i {
			t.Errorf("summary %d has index %d", i, s.SegmentIndex)
		}
	}
	if res.MeanScore != 90 {
		t.Errorf("MeanScore = %v, want 90", res.MeanScore)
	}

	agg := fake.Calls(aggregator.StageAggregate)
	if len(agg) != 2 {
		t.Fatalf("aggregate calls = %d, want 2", len(agg))
	}
	if !strings.Contains(agg[0].User, "Chunk 1:") || strings.Contains(agg[0].User, "Chunk 2:") {
		t.Errorf("first half should hold one summary:\n%s", agg[0].User)
	}
	if !strings.Contains(agg[1].User, "Chunk 2:") || strings.Contains(agg[1].User, "Chunk 3:") {
		t.Errorf("second half should hold two summaries:\n%s", agg[1].User)
	}
	if n := len(fake.Calls(aggregator.StageMerge)); n != 1 {
		t.Errorf("merge calls = %d, want 1", n)
	}
	if n := len(fake.Calls(summarizer.StageRefine)); n != 0 {
		t.Errorf("refine calls = %d, want 0", n)
	}

	if len(res.PartialNotes) != 2 || res.FinalNote != finalNote {
		t.Errorf("PartialNotes = %q, FinalNote = %q", res.PartialNotes, res.FinalNote)
	}
	if !strings.Contains(res.HTML, "<b>Subjective</b>\nThe client feels low.") {
		t.Errorf("HTML missing rendered section:\n%s", res.HTML)
	}
}

func TestRun_SingleSegmentAggregatesEmptyFirstHalf(t *testing.T) {
	fake := scripted(func(string) string { return "SCORE: 90" })
	p := newProcessor(t, fake)

	res, err := p.Run(context.Background(), "How are you. I feel low.")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(res.Segments))
	}

	agg := fake.Calls(aggregator.StageAggregate)
	if len(agg) != 2 {
		t.Fatalf("aggregate calls = %d, want 2", len(agg))
	}
	if strings.Contains(agg[0].User, "Chunk 1:") {
		t.Errorf("first half should be empty:\n%s", agg[0].User)
	}
	if !strings.Contains(agg[1].User, "Chunk 1:") {
		t.Errorf("second half should hold the only summary:\n%s", agg[1].User)
	}
}

func TestRun_EmptyTranscript(t *testing.T) {
	fake := scripted(func(string) string { return "SCORE: 90" })
	p := newProcessor(t, fake)

	if _, err := p.Run(context.Background(), "   "); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("Run() error = %v, want ErrEmptyTranscript", err)
	}
	if len(fake.Requests) != 0 {
		t.Errorf("made %d requests for an empty transcript", len(fake.Requests))
	}
}

func TestRun_ServiceFailureAborts(t *testing.T) {
	boom := errors.New("service unavailable")
	base := scripted(func(string) string { return "SCORE: 90" })
	fake := &llm.Fake{Respond: func(req llm.Request) (string, error) {
		if req.Stage == summarizer.StageSummarize {
			return "", boom
		}
		return base.Respond(req)
	}}
	p := newProcessor(t, fake)

	res, err := p.Run(context.Background(), wordsTranscript(800))
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if res != nil {
		t.Error("no result expected after a failure")
	}
	if n := len(fake.Calls(aggregator.StageAggregate)); n != 0 {
		t.Errorf("aggregate ran %d times after a failed segment", n)
	}
}

func TestSummarizeAll_ConcurrentKeepsOrder(t *testing.T) {
	fake := scripted(func(user string) string { return "SCORE: 90" })
	p := newProcessor(t, fake)
	p.Concurrency = 4

	segments := p.Segment(wordsTranscript(2000))
	summaries, reports, err := p.SummarizeAll(context.Background(), segments)
	if err != nil {
		t.Fatalf("SummarizeAll() error = %v", err)
	}
	for i := range segments {
		if summaries[i].SegmentIndex != i || reports[i].SegmentIndex != i {
			t.Errorf("position %d holds segment %d", i, summaries[i].SegmentIndex)
		}
	}
}

func TestMeanScore(t *testing.T) {
	reports := []models.SegmentReport{{FinalScore: 90}, {FinalScore: 70}, {FinalScore: 80}}
	if got := MeanScore(reports); got != 80 {
		t.Errorf("MeanScore() = %v, want 80", got)
	}
	if got := MeanScore(nil); got != 0 {
		t.Errorf("MeanScore(nil) = %v, want 0", got)
	}
}
