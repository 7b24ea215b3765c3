// Package transcript loads raw session transcripts.
package transcript

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Normalize collapses every run of whitespace, line breaks included, into a
// single space and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func Read(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return Normalize(string(data)), nil
}

func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()
	return Read(f)
}
