// Package segmenter splits a transcript into bounded, overlapping segments.
//
// Splitting is recursive over a list of separators ordered from the most to
// the least natural boundary (paragraph, line, word, character). Text is cut
// on the first separator present; pieces that are still too long are cut
// again with the next separator. Small pieces are then greedily merged back
// into segments of at most ChunkSize characters, carrying up to ChunkOverlap
// characters of trailing context into the next segment.
package segmenter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"therapy-notes/pkg/models"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 120
)

var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func New(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}, nil
}

// Split returns the ordered segments of text. Empty or whitespace-only input
// yields no segments.
func (s *Splitter) Split(text string) []models.Segment {
	pieces := s.splitText(text, s.Separators)
	segments := make([]models.Segment, 0, len(pieces))
	for i, p := range pieces {
		segments = append(segments, models.Segment{Index: i, Text: p})
	}
	return segments
}

func (s *Splitter) splitText(text string, separators []string) []string {
	var final []string

	separator := ""
	var next []string
	for i, sep := range separators {
		if sep == "" {
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	var good []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			// indivisible: no lower-priority separator left
			final = append(final, piece)
		} else {
			final = append(final, s.splitText(piece, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge packs consecutive pieces into segments. Each piece already carries
// its leading separator, so pieces are joined without one.
func (s *Splitter) merge(pieces []string) []string {
	var (
		docs    []string
		current []string
		total   int
	)

	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.ChunkSize && len(current) > 0 {
			if doc := joinPieces(current); doc != "" {
				docs = append(docs, doc)
			}
			for len(current) > 0 && (total > s.ChunkOverlap || total+n > s.ChunkSize) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}

	if doc := joinPieces(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	if parts[0] != "" {
		out = append(out, parts[0])
	}
	for _, p := range parts[1:] {
		out = append(out, sep+p)
	}
	return out
}

func joinPieces(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
