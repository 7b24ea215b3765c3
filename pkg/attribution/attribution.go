// Package attribution labels each utterance of a segment as Therapist or
// Client in two passes: a lexical first guess, then a refinement that adds
// therapy-specific cues and turn-taking.
package attribution

import (
	"context"
	"fmt"
	"strings"

	"therapy-notes/pkg/llm"
	"therapy-notes/pkg/logger"
	"therapy-notes/pkg/models"
)

const (
	StageLabel   = "label"
	StageRelabel = "relabel"
)

type Options struct {
	Model            string
	LabelMaxTokens   int
	RelabelMaxTokens int
}

// SentenceSplitter turns a segment into utterances.
type SentenceSplitter interface {
	Split(text string) []string
}

type Attributor struct {
	gen      llm.Generator
	splitter SentenceSplitter
	opts     Options
}

func New(gen llm.Generator, splitter SentenceSplitter, opts Options) *Attributor {
	return &Attributor{gen: gen, splitter: splitter, opts: opts}
}

// Attribute splits segment into utterances and runs both labeling passes.
// The result may be shorter or longer than the utterance list; the service
// owns line fidelity.
func (a *Attributor) Attribute(ctx context.Context, segment string) ([]models.Attribution, error) {
	utterances := a.splitter.Split(segment)

	first, err := a.Label(ctx, utterances)
	if err != nil {
		return nil, err
	}
	refined, err := a.Relabel(ctx, first)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Int("utterances", len(utterances)).
		Int("firstPass", len(first)).
		Int("refined", len(refined)).
		Int("unknown", countUnknown(refined)).
		Msg("Attribution: segment labeled")

	return refined, nil
}

// Label is the lexical first pass.
func (a *Attributor) Label(ctx context.Context, utterances []string) ([]models.Attribution, error) {
	lines := make([]string, len(utterances))
	for i, u := range utterances {
		lines[i] = fmt.Sprintf("Line %d: %s", i+1, u)
	}

	out, err := a.gen.Generate(ctx, llm.Request{
		Stage:     StageLabel,
		Model:     a.opts.Model,
		System:    labelSystemPrompt,
		User:      fmt.Sprintf(labelUserPrompt, strings.Join(lines, "\n")),
		MaxTokens: a.opts.LabelMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("first-pass labeling: %w", err)
	}
	return ParseLabeled(out), nil
}

// Relabel is the contextual second pass over first-pass labels.
func (a *Attributor) Relabel(ctx context.Context, first []models.Attribution) ([]models.Attribution, error) {
	var b strings.Builder
	for i, attr := range first {
		fmt.Fprintf(&b, "Line %d (First Pass: %s): %s\n", i+1, attr.Role, attr.Text)
	}

	out, err := a.gen.Generate(ctx, llm.Request{
		Stage:     StageRelabel,
		Model:     a.opts.Model,
		System:    relabelSystemPrompt,
		User:      fmt.Sprintf(relabelUserPrompt, b.String()),
		MaxTokens: a.opts.RelabelMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("second-pass labeling: %w", err)
	}
	return ParseLabeled(out), nil
}

// ParseLabeled reads "Role: text" lines. Blank lines are skipped; a line
// without a Therapist: or Client: prefix (any case) becomes an Unknown
// attribution carrying the whole line.
func ParseLabeled(text string) []models.Attribution {
	var out []models.Attribution
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, parseLine(line))
	}
	return out
}

func parseLine(line string) models.Attribution {
	lower := strings.ToLower(line)
	for _, role := range []models.Role{models.RoleTherapist, models.RoleClient} {
		prefix := strings.ToLower(string(role)) + ":"
		if strings.HasPrefix(lower, prefix) {
			_, rest, _ := strings.Cut(line, ":")
			return models.Attribution{Role: role, Text: strings.TrimSpace(rest)}
		}
	}
	return models.Attribution{Role: models.RoleUnknown, Text: line}
}

func countUnknown(attrs []models.Attribution) int {
	n := 0
	for _, a := range attrs {
		if a.Role == models.RoleUnknown {
			n++
		}
	}
	return n
}
