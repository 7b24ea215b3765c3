// Package summarizer reduces a labeled segment to a clinical summary and
// revises summaries against a critique.
package summarizer

import (
	"context"
	"fmt"

	"therapy-notes/pkg/llm"
	"therapy-notes/pkg/models"
)

const (
	StageSummarize = "summarize"
	StageRefine    = "refine"
)

type Options struct {
	Model            string
	SummaryMaxTokens int
	RefineMaxTokens  int
}

type Summarizer struct {
	gen  llm.Generator
	opts Options
}

func New(gen llm.Generator, opts Options) *Summarizer {
	return &Summarizer{gen: gen, opts: opts}
}

// Summarize produces one summary for the labeled conversation of a segment.
// Formatting rules live in the request; the quality gate checks the result.
func (s *Summarizer) Summarize(ctx context.Context, attrs []models.Attribution) (string, error) {
	out, err := s.gen.Generate(ctx, llm.Request{
		Stage:     StageSummarize,
		Model:     s.opts.Model,
		System:    summarySystemPrompt,
		User:      fmt.Sprintf(summaryUserPrompt, models.LabeledConversation(attrs)),
		MaxTokens: s.opts.SummaryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summarize segment: %w", err)
	}
	return out, nil
}

// Refine revises summary to address critique, with the labeled conversation
// as reference.
func (s *Summarizer) Refine(ctx context.Context, summary, critique, conversation string) (string, error) {
	out, err := s.gen.Generate(ctx, llm.Request{
		Stage:     StageRefine,
		Model:     s.opts.Model,
		System:    refineSystemPrompt,
		User:      fmt.Sprintf(refineUserPrompt, summary, critique, conversation),
		MaxTokens: s.opts.RefineMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("refine summary: %w", err)
	}
	return out, nil
}
