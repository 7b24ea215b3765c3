package aggregator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"therapy-notes/pkg/llm"
)

func TestCombineSummaries(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"none", nil, ""},
		{"one", []string{"first"}, "Chunk 1:\nfirst"},
		{"two", []string{"first", "second"}, "Chunk 1:\nfirst\n\nChunk 2:\nsecond"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineSummaries(tt.in); got != tt.want {
				t.Errorf("CombineSummaries() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	fake := &llm.Fake{Responses: []string{"\n Speech Therapy Note\nSubjective\ntext\n"}}
	a := New(fake, Options{AggregateModel: "agg", AggregateMaxTokens: 1300})

	got, err := a.Aggregate(context.Background(), []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if got != "Speech Therapy Note\nSubjective\ntext" {
		t.Errorf("Aggregate() = %q", got)
	}

	req := fake.Requests[0]
	if req.Stage != StageAggregate || req.Model != "agg" || req.MaxTokens != 1300 {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.User, "Chunk 1:\ns1\n\nChunk 2:\ns2") {
		t.Errorf("prompt missing chunk blocks:\n%s", req.User)
	}
}

func TestMerge(t *testing.T) {
	fake := &llm.Fake{Responses: []string{"final note"}}
	a := New(fake, Options{MergeModel: "merge", MergeMaxTokens: 1500})

	got, err := a.Merge(context.Background(), "partial one", "partial two")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got != "final note" {
		t.Errorf("Merge() = %q", got)
	}

	req := fake.Requests[0]
	if req.Stage != StageMerge || req.MaxTokens != 1500 {
		t.Errorf("request = %+v", req)
	}
	first := strings.Index(req.User, "PARTIAL NOTE #1:\npartial one")
	second := strings.Index(req.User, "PARTIAL NOTE #2:\npartial two")
	if first < 0 || second < 0 || second < first {
		t.Errorf("partial notes missing or out of order:\n%s", req.User)
	}
}

func TestMerge_PropagatesFailure(t *testing.T) {
	boom := errors.New("timeout")
	a := New(llm.GeneratorFunc(func(context.Context, llm.Request) (string, error) {
		return "", boom
	}), Options{})

	if _, err := a.Merge(context.Background(), "a", "b"); !errors.Is(err, boom) {
		t.Errorf("Merge() error = %v, want %v", err, boom)
	}
}
