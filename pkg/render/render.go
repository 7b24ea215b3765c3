// Package render turns a final note into the HTML document handed to the
// clinician. Rendering is pure and deterministic.
package render

import (
	"regexp"
	"sort"
	"strings"
)

const (
	Title      = "Speech Therapy Note"
	Subjective = "Subjective"
	Objective  = "Objective"
	Assessment = "Assessment"
	Plan       = "Plan"
)

// SectionOrder is the fixed output order of the governed sections.
var SectionOrder = []string{Subjective, Objective, Assessment, Plan}

var headers = map[string]bool{
	Title:      true,
	Subjective: true,
	Objective:  true,
	Assessment: true,
	Plan:       true,
}

// Trigger phrases that start a new thought and get their own line.
var triggerPhrases = []string{
	"The client ",
	"They ",
	"The therapist ",
	"Client ",
	"Therapist ",
}

var (
	quotePattern = regexp.MustCompile(`"([^"]+)"`)
	// The class skips I, so a quote followed by "I ..." stays on its line.
	afterQuotePattern = regexp.MustCompile(`</b>(\s+)([A-HJ-Z])`)
	sentenceBoundary  = regexp.MustCompile(`[.!?]\s+[A-Z]`)

	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// ParseSections assigns every line to the most recent header line. A line is
// a header only when its trimmed form equals one of the reserved names
// exactly. Lines before the first header are dropped. A header that appears
// again replaces its earlier section, and a final header with no lines after
// it is dropped.
func ParseSections(text string) map[string]string {
	sections := make(map[string]string)
	current := ""
	var content []string

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if n := len(lines); lines[n-1] == "" {
		lines = lines[:n-1]
	}

	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); headers[trimmed] {
			if current != "" {
				sections[current] = strings.Join(content, "\n")
			}
			current = trimmed
			content = nil
			continue
		}
		if current != "" {
			content = append(content, line)
		}
	}
	if current != "" && len(content) > 0 {
		sections[current] = strings.Join(content, "\n")
	}

	return sections
}

// Render builds the HTML note. Sections missing from the input are skipped
// and an empty section leaves a blank line under its header. The Plan is
// emitted as written and the other sections get smart line breaks.
func Render(note string) string {
	sections := ParseSections(note)

	out := []string{"<html><body><pre>", "<b>" + Title + "</b>"}
	for _, name := range SectionOrder {
		content, ok := sections[name]
		if !ok {
			continue
		}
		out = append(out, "", "<b>"+name+"</b>")

		body := htmlEscaper.Replace(strings.TrimSpace(content))
		if name == Plan {
			out = append(out, body)
		} else {
			out = append(out, SmartLineBreaks(body))
		}
	}
	out = append(out, "</pre></body></html>")

	return strings.Join(out, "\n")
}

// SmartLineBreaks bolds quotes and re-segments text into short lines: after a
// bolded quote followed by a new capitalised sentence, before each trigger
// phrase outside a quote, and at every sentence boundary.
func SmartLineBreaks(text string) string {
	text = quotePattern.ReplaceAllString(text, `<b>"${1}"</b>`)
	text = afterQuotePattern.ReplaceAllString(text, "</b>\n${1}${2}")
	text = breakBeforeTriggers(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, part := range splitSentences(line) {
			if part = strings.TrimSpace(part); part != "" {
				lines = append(lines, part)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// breakBeforeTriggers inserts a line break before every trigger phrase that
// does not already start a line and is not inside a bold span. Offsets are
// collected against the unmodified text and applied in one pass.
func breakBeforeTriggers(text string) string {
	seen := make(map[int]bool)
	var offsets []int

	for _, phrase := range triggerPhrases {
		for from := 0; ; {
			i := strings.Index(text[from:], phrase)
			if i < 0 {
				break
			}
			pos := from + i
			from = pos + len(phrase)

			if pos == 0 || text[pos-1] == '\n' || insideBold(text, pos) || seen[pos] {
				continue
			}
			seen[pos] = true
			offsets = append(offsets, pos)
		}
	}
	if len(offsets) == 0 {
		return text
	}
	sort.Ints(offsets)

	var b strings.Builder
	b.Grow(len(text) + len(offsets))
	last := 0
	for _, pos := range offsets {
		b.WriteString(text[last:pos])
		b.WriteByte('\n')
		last = pos
	}
	b.WriteString(text[last:])
	return b.String()
}

func insideBold(text string, pos int) bool {
	before := text[:pos]
	return strings.Count(before, "<b>") != strings.Count(before, "</b>")
}

// splitSentences cuts after sentence-ending punctuation that is followed by
// whitespace and an uppercase letter.
func splitSentences(line string) []string {
	matches := sentenceBoundary.FindAllStringIndex(line, -1)
	if len(matches) == 0 {
		return []string{line}
	}

	parts := make([]string, 0, len(matches)+1)
	last := 0
	for _, m := range matches {
		parts = append(parts, line[last:m[0]+1])
		last = m[1] - 1
	}
	return append(parts, line[last:])
}
