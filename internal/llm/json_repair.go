package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// RepairJSON attempts to fix malformed model output before strict parsing
// gives up. Cheap, targeted fixes run first; the jsonrepair library is the
// last resort. Returns the repaired string and whether the final result
// parses.
func RepairJSON(raw string) (string, bool) {
	var probe interface{}
	if json.Unmarshal([]byte(raw), &probe) == nil {
		return raw, true
	}

	repaired := removeTrailingCommas(raw)
	repaired = completeJSON(repaired)
	repaired = addKeyQuotes(repaired)

	if json.Unmarshal([]byte(repaired), &probe) == nil {
		return repaired, true
	}

	if libRepaired, err := jsonrepair.JSONRepair(repaired); err == nil {
		if json.Unmarshal([]byte(libRepaired), &probe) == nil {
			return libRepaired, true
		}
	}

	return repaired, false
}

var (
	trailingCommaBrace   = regexp.MustCompile(`,\s*}`)
	trailingCommaBracket = regexp.MustCompile(`,\s*]`)
	unquotedKey          = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)(\s*:)`)
)

func removeTrailingCommas(s string) string {
	s = trailingCommaBrace.ReplaceAllString(s, "}")
	return trailingCommaBracket.ReplaceAllString(s, "]")
}

// completeJSON closes unterminated objects and arrays in LIFO order. Models
// that hit the token limit mid-object produce exactly this shape.
func completeJSON(s string) string {
	s = strings.TrimSpace(s)

	var stack []rune
	inString := false
	escaped := false
	for _, char := range s {
		if escaped {
			escaped = false
			continue
		}
		switch char {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				stack = append(stack, '}')
			}
		case '[':
			if !inString {
				stack = append(stack, ']')
			}
		case '}', ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == char {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}

func addKeyQuotes(s string) string {
	return unquotedKey.ReplaceAllString(s, `$1"$2"$3`)
}
