package synth

import (
	"regexp"
	"strings"
)

var (
	numberedItem    = regexp.MustCompile(`(\d+)\.\s*([A-Z])`)
	fenceThenNumber = regexp.MustCompile("(?s)(```[^`]*```)\\s*(\\d+\\.)")
	excessBlanks    = regexp.MustCompile(`\n{3,}`)
)

// ensureFormatting normalizes model prose so numbered steps render as
// separate paragraphs: a blank line goes before every numbered item except
// one that starts the text, code fences get separated from the item that
// follows them, and runs of blank lines collapse to a single one.
func ensureFormatting(text string) string {
	if text == "" {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range numberedItem.FindAllStringSubmatchIndex(text, -1) {
		if m[0] == 0 {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString("\n\n")
		b.WriteString(text[m[2]:m[3]])
		b.WriteString(". ")
		b.WriteString(text[m[4]:m[5]])
		last = m[1]
	}
	b.WriteString(text[last:])
	formatted := b.String()

	formatted = fenceThenNumber.ReplaceAllString(formatted, "$1\n\n$2")
	formatted = excessBlanks.ReplaceAllString(formatted, "\n\n")

	return strings.TrimSpace(formatted)
}
