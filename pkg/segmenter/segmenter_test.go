package segmenter

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%03d", i)
	}
	return strings.Join(words, " ")
}

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := New(size, overlap)
	if err != nil {
		t.Fatalf("New(%d, %d) error = %v", size, overlap, err)
	}
	return s
}

func TestNew_RejectsBadBounds(t *testing.T) {
	tests := []struct {
		size, overlap int
	}{
		{0, 0},
		{100, 100},
		{100, 150},
		{100, -1},
	}
	for _, tt := range tests {
		if _, err := New(tt.size, tt.overlap); err == nil {
			t.Errorf("New(%d, %d) should fail", tt.size, tt.overlap)
		}
	}
}

func TestSplit_DefaultSizesOnFourThousandChars(t *testing.T) {
	text := numberedWords(800)
	if len(text) != 3999 {
		t.Fatalf("fixture length = %d", len(text))
	}

	segs := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap).Split(text)
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}

	wantLens := []int{1499, 1499, 1239}
	for i, seg := range segs {
		if seg.Index != i {
			t.Errorf("segment %d has index %d", i, seg.Index)
		}
		if got := utf8.RuneCountInString(seg.Text); got != wantLens[i] {
			t.Errorf("segment %d length = %d, want %d", i, got, wantLens[i])
		}
	}
}

func TestSplit_BoundsAndOverlap(t *testing.T) {
	text := numberedWords(800)
	const size, overlap = 300, 40
	segs := mustSplitter(t, size, overlap).Split(text)

	prevStart, prevEnd := -1, 0
	for i, seg := range segs {
		if n := utf8.RuneCountInString(seg.Text); n > size {
			t.Errorf("segment %d has %d chars, limit %d", i, n, size)
		}
		if strings.HasPrefix(seg.Text, " ") || strings.HasSuffix(seg.Text, " ") {
			t.Errorf("segment %d is not trimmed: %q", i, seg.Text)
		}

		start := strings.Index(text[prevStart+1:], seg.Text)
		if start < 0 {
			t.Fatalf("segment %d is not an in-order substring of the input", i)
		}
		start += prevStart + 1

		if i == 0 && start != 0 {
			t.Errorf("first segment starts at %d", start)
		}
		if i > 0 {
			if start > prevEnd+1 {
				t.Errorf("gap between segment %d and %d: %d..%d", i-1, i, prevEnd, start)
			}
			if ov := prevEnd - start; ov > overlap {
				t.Errorf("overlap between segment %d and %d is %d, limit %d", i-1, i, ov, overlap)
			}
		}
		prevStart, prevEnd = start, start+len(seg.Text)
	}
	if prevEnd != len(text) {
		t.Errorf("segments end at %d, input has %d chars", prevEnd, len(text))
	}
}

func TestSplit_IndivisibleRunFallsBackToCharacters(t *testing.T) {
	segs := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap).Split(strings.Repeat("x", 3200))

	want := []int{1500, 1500, 440}
	if len(segs) != len(want) {
		t.Fatalf("got %d segments, want %d", len(segs), len(want))
	}
	for i, seg := range segs {
		if len(seg.Text) != want[i] {
			t.Errorf("segment %d length = %d, want %d", i, len(seg.Text), want[i])
		}
	}
}

func TestSplit_SmallInputs(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		in      string
		want    []string
	}{
		{"empty", 1500, 120, "", nil},
		{"whitespace only", 1500, 120, "   ", nil},
		{"fits in one", 1500, 120, "short text", []string{"short text"}},
		{"word boundaries", 10, 4, "aaaa bbbb cccc dddd eeee", []string{"aaaa bbbb", "cccc dddd", "eeee"}},
		{"paragraph first", 12, 3, "para one.\n\npara two is here.", []string{"para one.", "para two is", "is here."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := mustSplitter(t, tt.size, tt.overlap).Split(tt.in)
			if len(segs) != len(tt.want) {
				t.Fatalf("got %d segments %v, want %v", len(segs), segs, tt.want)
			}
			for i := range segs {
				if segs[i].Text != tt.want[i] {
					t.Errorf("segment %d = %q, want %q", i, segs[i].Text, tt.want[i])
				}
			}
		})
	}
}
