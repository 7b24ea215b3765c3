// Package llm is the seam between the note pipeline and the generative text
// service. Every stage depends on the Generator interface only.
package llm

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("generative service returned no choices")

// Request is one deterministic completion request.
type Request struct {
	// Stage names the caller in logs ("label", "summarize", ...).
	Stage     string
	Model     string
	System    string
	User      string
	MaxTokens int
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
