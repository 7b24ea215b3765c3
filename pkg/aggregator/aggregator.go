// Package aggregator composes chunk summaries into a structured note and
// merges two partial notes into the final one.
package aggregator

import (
	"context"
	"fmt"
	"strings"

	"therapy-notes/pkg/llm"
)

const (
	StageAggregate = "aggregate"
	StageMerge     = "merge"
)

type Options struct {
	AggregateModel     string
	MergeModel         string
	AggregateMaxTokens int
	MergeMaxTokens     int
}

type Aggregator struct {
	gen  llm.Generator
	opts Options
}

func New(gen llm.Generator, opts Options) *Aggregator {
	return &Aggregator{gen: gen, opts: opts}
}

// Aggregate turns an ordered run of chunk summaries into one partial note
// with the Subjective, Objective, Assessment and Plan sections. The response
// is returned as-is; its structure is not checked here.
func (a *Aggregator) Aggregate(ctx context.Context, summaries []string) (string, error) {
	out, err := a.gen.Generate(ctx, llm.Request{
		Stage:     StageAggregate,
		Model:     a.opts.AggregateModel,
		System:    aggregateSystemPrompt,
		User:      fmt.Sprintf(aggregateUserPrompt, CombineSummaries(summaries)),
		MaxTokens: a.opts.AggregateMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("aggregate summaries: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Merge combines the two partial notes under the stricter final-note rules.
func (a *Aggregator) Merge(ctx context.Context, first, second string) (string, error) {
	out, err := a.gen.Generate(ctx, llm.Request{
		Stage:     StageMerge,
		Model:     a.opts.MergeModel,
		System:    mergeSystemPrompt,
		User:      fmt.Sprintf(mergeUserPrompt, first, second),
		MaxTokens: a.opts.MergeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("merge partial notes: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// CombineSummaries numbers summaries as "Chunk i:" blocks separated by a
// blank line.
func CombineSummaries(summaries []string) string {
	blocks := make([]string, len(summaries))
	for i, s := range summaries {
		blocks[i] = fmt.Sprintf("Chunk %d:\n%s", i+1, s)
	}
	return strings.Join(blocks, "\n\n")
}
