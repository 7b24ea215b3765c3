package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"therapy-notes/pkg/models"
	"therapy-notes/pkg/quality"
	"therapy-notes/pkg/render"
	"therapy-notes/pkg/segmenter"
)

var ErrEmptyTranscript = errors.New("transcript produced no segments")

type SegmentAttributor interface {
	Attribute(ctx context.Context, segment string) ([]models.Attribution, error)
}

type SummaryWriter interface {
	Summarize(ctx context.Context, attrs []models.Attribution) (string, error)
	Refine(ctx context.Context, summary, critique, conversation string) (string, error)
}

type SummaryEvaluator interface {
	Evaluate(ctx context.Context, source, summary string) (quality.Evaluation, error)
}

type NoteComposer interface {
	Aggregate(ctx context.Context, summaries []string) (string, error)
	Merge(ctx context.Context, first, second string) (string, error)
}

// Processor runs one transcript through every stage. It holds no per-run
// state and is safe for concurrent runs.
type Processor struct {
	Splitter    *segmenter.Splitter
	Attributor  SegmentAttributor
	Summarizer  SummaryWriter
	Evaluator   SummaryEvaluator
	Composer    NoteComposer
	AcceptScore int
	// Concurrency bounds how many segments are summarized at once.
	Concurrency int
}

// Result is everything a run produced.
type Result struct {
	Segments     []models.Segment
	Summaries    []models.ChunkSummary
	Reports      []models.SegmentReport
	MeanScore    float64
	PartialNotes []string
	FinalNote    string
	HTML         string
}

// Run processes a normalized transcript end to end. Any service failure
// aborts the run and no result is returned.
func (p *Processor) Run(ctx context.Context, transcript string) (*Result, error) {
	segments := p.Segment(transcript)
	if len(segments) == 0 {
		return nil, ErrEmptyTranscript
	}

	summaries, reports, err := p.SummarizeAll(ctx, segments)
	if err != nil {
		return nil, err
	}

	partials, final, err := p.Compose(ctx, summaries)
	if err != nil {
		return nil, err
	}

	return &Result{
		Segments:     segments,
		Summaries:    summaries,
		Reports:      reports,
		MeanScore:    MeanScore(reports),
		PartialNotes: partials,
		FinalNote:    final,
		HTML:         render.Render(final),
	}, nil
}

func (p *Processor) Segment(transcript string) []models.Segment {
	return p.Splitter.Split(transcript)
}

// SummarizeAll summarizes every segment. Results keep segment order no matter
// which segment finishes first.
func (p *Processor) SummarizeAll(ctx context.Context, segments []models.Segment) ([]models.ChunkSummary, []models.SegmentReport, error) {
	summaries := make([]models.ChunkSummary, len(segments))
	reports := make([]models.SegmentReport, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Concurrency, 1))

	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summary, report, err := p.SummarizeSegment(gctx, seg)
			if err != nil {
				return fmt.Errorf("segment %d: %w", seg.Index, err)
			}
			summaries[i] = summary
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return summaries, reports, nil
}

// SummarizeSegment attributes speakers, summarizes, and runs the quality gate
// for one segment.
func (p *Processor) SummarizeSegment(ctx context.Context, seg models.Segment) (models.ChunkSummary, models.SegmentReport, error) {
	attrs, err := p.Attributor.Attribute(ctx, seg.Text)
	if err != nil {
		return models.ChunkSummary{}, models.SegmentReport{}, err
	}

	summary, err := p.Summarizer.Summarize(ctx, attrs)
	if err != nil {
		return models.ChunkSummary{}, models.SegmentReport{}, err
	}

	return p.Review(ctx, seg, summary, models.LabeledConversation(attrs))
}

// Review scores summary and, when it falls below AcceptScore, asks for one
// revision. The revision replaces the original only if it scores strictly
// higher, so a segment's score never drops.
func (p *Processor) Review(ctx context.Context, seg models.Segment, summary, conversation string) (models.ChunkSummary, models.SegmentReport, error) {
	eval, err := p.Evaluator.Evaluate(ctx, seg.Text, summary)
	if err != nil {
		return models.ChunkSummary{}, models.SegmentReport{}, err
	}

	result := models.ChunkSummary{SegmentIndex: seg.Index, Text: summary, Score: eval.Score}
	report := models.SegmentReport{
		SegmentIndex: seg.Index,
		InitialScore: eval.Score,
		FinalScore:   eval.Score,
	}
	if eval.Score >= p.AcceptScore {
		return result, report, nil
	}

	revised, err := p.Summarizer.Refine(ctx, summary, eval.Critique, conversation)
	if err != nil {
		return models.ChunkSummary{}, models.SegmentReport{}, err
	}
	reeval, err := p.Evaluator.Evaluate(ctx, seg.Text, revised)
	if err != nil {
		return models.ChunkSummary{}, models.SegmentReport{}, err
	}

	newScore := reeval.Score
	report.RefinedScore = &newScore
	if newScore > eval.Score {
		result.Text = revised
		result.Score = newScore
		result.Refined = true
		report.FinalScore = newScore
		report.Accepted = true
	}
	return result, report, nil
}

// Compose aggregates the first and second half of the summaries separately,
// split at len/2 in segment order, then merges the two partial notes.
func (p *Processor) Compose(ctx context.Context, summaries []models.ChunkSummary) ([]string, string, error) {
	texts := make([]string, len(summaries))
	for i, s := range summaries {
		texts[i] = s.Text
	}
	mid := len(texts) / 2

	first, err := p.Composer.Aggregate(ctx, texts[:mid])
	if err != nil {
		return nil, "", fmt.Errorf("first half: %w", err)
	}
	second, err := p.Composer.Aggregate(ctx, texts[mid:])
	if err != nil {
		return nil, "", fmt.Errorf("second half: %w", err)
	}

	final, err := p.Composer.Merge(ctx, first, second)
	if err != nil {
		return nil, "", err
	}
	return []string{first, second}, final, nil
}

// MeanScore averages the final per-segment scores. It is reported only.
func MeanScore(reports []models.SegmentReport) float64 {
	if len(reports) == 0 {
		return 0
	}
	total := 0
	for _, r := range reports {
		total += r.FinalScore
	}
	return float64(total) / float64(len(reports))
}
