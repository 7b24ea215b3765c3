// Package turns breaks a segment into sentence-level utterances.
package turns

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Splitter wraps a Punkt sentence tokenizer trained for English.
type Splitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func NewSplitter() (*Splitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence tokenizer: %w", err)
	}
	return &Splitter{tokenizer: tokenizer}, nil
}

// Split returns the trimmed, non-empty sentences of text in order.
func (s *Splitter) Split(text string) []string {
	var out []string
	for _, sent := range s.tokenizer.Tokenize(text) {
		if line := strings.TrimSpace(sent.Text); line != "" {
			out = append(out, line)
		}
	}
	return out
}
