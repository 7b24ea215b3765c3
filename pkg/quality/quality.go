// Package quality scores a segment summary against its source text and
// explains what is missing.
package quality

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"therapy-notes/pkg/llm"
)

const (
	StageEvaluate = "evaluate"

	// DefaultScore is used when no usable score can be read.
	DefaultScore = 50
	MaxScore     = 100

	scoreLabel    = "SCORE:"
	critiqueLabel = "CRITIQUE:"
)

type Evaluation struct {
	Score    int
	Critique string
}

type Options struct {
	Model     string
	MaxTokens int
}

type Evaluator struct {
	gen  llm.Generator
	opts Options
}

func NewEvaluator(gen llm.Generator, opts Options) *Evaluator {
	return &Evaluator{gen: gen, opts: opts}
}

// Evaluate asks the service to grade summary against source. Unparseable
// responses fall back to DefaultScore and an empty critique; only a failed
// call is an error.
func (e *Evaluator) Evaluate(ctx context.Context, source, summary string) (Evaluation, error) {
	out, err := e.gen.Generate(ctx, llm.Request{
		Stage:     StageEvaluate,
		Model:     e.opts.Model,
		System:    evaluateSystemPrompt,
		User:      fmt.Sprintf(evaluateUserPrompt, source, summary),
		MaxTokens: e.opts.MaxTokens,
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate summary: %w", err)
	}
	return ParseEvaluation(out), nil
}

// ParseEvaluation reads a "SCORE: n / CRITIQUE: text" response.
//
// The first line starting with SCORE: (any case) gives the score: the first
// run of digits after the label, capped at MaxScore. The first line starting
// with CRITIQUE: opens the critique, and every later non-blank line that is
// not a SCORE: line is appended with a single space.
//
// Without a CRITIQUE: line but with a score, the critique is taken from the
// raw text after the first SCORE: label: whatever follows a CRITIQUE: label
// found there, else everything after the next line break, else the rest of
// the score line after the score token.
func ParseEvaluation(text string) Evaluation {
	score := DefaultScore
	var (
		scoreSeen    bool
		critiqueSeen bool
		critique     []string
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, scoreLabel):
			if !scoreSeen {
				scoreSeen = true
				_, rest, _ := strings.Cut(line, ":")
				score = parseScore(rest)
			}
		case critiqueSeen:
			if line != "" {
				critique = append(critique, line)
			}
		case strings.HasPrefix(upper, critiqueLabel):
			critiqueSeen = true
			_, rest, _ := strings.Cut(line, ":")
			if rest = strings.TrimSpace(rest); rest != "" {
				critique = append(critique, rest)
			}
		}
	}

	if critiqueSeen {
		return Evaluation{Score: score, Critique: strings.Join(critique, " ")}
	}
	if !scoreSeen {
		return Evaluation{Score: score}
	}
	return Evaluation{Score: score, Critique: critiqueAfterScore(text)}
}

func parseScore(s string) int {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return DefaultScore
	}
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if errors.Is(err, strconv.ErrRange) {
		return MaxScore
	}
	if err != nil {
		return DefaultScore
	}
	return min(n, MaxScore)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func critiqueAfterScore(text string) string {
	i := indexFold(text, scoreLabel)
	if i < 0 {
		return ""
	}
	rest := text[i+len(scoreLabel):]

	if j := indexFold(rest, critiqueLabel); j >= 0 {
		return strings.TrimSpace(rest[j+len(critiqueLabel):])
	}
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		return strings.TrimSpace(rest[nl:])
	}
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return ""
	}
	return strings.Join(fields[1:], " ")
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
func indexFold(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}
