package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// RCAResponse carries the four narrative fields the model is asked for.
// Fields the model omitted stay empty strings; callers substitute their
// own placeholders.
type RCAResponse struct {
	Summary         string `json:"summary"`
	DebugSteps      string `json:"debug_steps"`
	ResolutionSteps string `json:"resolution_steps"`
	RootCause       string `json:"root_cause"`
}

var responseControlChars = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)

// ParseRCAResponse extracts the four RCA fields from a raw completion.
// Markdown fences are stripped, the response is narrowed to the outermost
// object, control characters are removed, and strict parsing is tried
// before repair and finally per-field regex recovery. It never fails: a
// completely unusable response yields four empty fields.
func ParseRCAResponse(response string) RCAResponse {
	cleaned := stripFences(response)

	// Narrow to the outermost JSON object
	if open := strings.Index(cleaned, "{"); open >= 0 {
		if close := strings.LastIndex(cleaned, "}"); close > open {
			cleaned = cleaned[open : close+1]
		}
	}

	cleaned = responseControlChars.ReplaceAllString(cleaned, "")

	var parsed RCAResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return parsed
	}

	if repaired, ok := RepairJSON(cleaned); ok {
		if err := json.Unmarshal([]byte(repaired), &parsed); err == nil {
			log.Debug().Msg("Model response parsed after JSON repair")
			return parsed
		}
	}

	log.Debug().Msg("Model response is not valid JSON, recovering fields by pattern")
	return extractFieldsManually(cleaned)
}

func stripFences(response string) string {
	if idx := strings.Index(response, "```json"); idx >= 0 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	if idx := strings.Index(response, "```"); idx >= 0 {
		rest := response[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	return response
}

var fieldPatterns = map[string]*regexp.Regexp{
	"summary":          regexp.MustCompile(`(?s)"summary"\s*:\s*"([^"]*(?:\\.[^"]*)*)"`),
	"debug_steps":      regexp.MustCompile(`(?s)"debug_steps"\s*:\s*"([^"]*(?:\\.[^"]*)*)"`),
	"resolution_steps": regexp.MustCompile(`(?s)"resolution_steps"\s*:\s*"([^"]*(?:\\.[^"]*)*)"`),
	"root_cause":       regexp.MustCompile(`(?s)"root_cause"\s*:\s*"([^"]*(?:\\.[^"]*)*)"`),
}

// extractFieldsManually pulls each field out with a regex when the object
// as a whole will not parse.
func extractFieldsManually(text string) RCAResponse {
	var result RCAResponse
	for field, re := range fieldPatterns {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		content := unescapeField(match[1])
		switch field {
		case "summary":
			result.Summary = content
		case "debug_steps":
			result.DebugSteps = content
		case "resolution_steps":
			result.ResolutionSteps = content
		case "root_cause":
			result.RootCause = content
		}
	}
	return result
}

func unescapeField(content string) string {
	content = strings.ReplaceAll(content, `\n`, "\n")
	content = strings.ReplaceAll(content, `\"`, `"`)
	content = strings.ReplaceAll(content, `\\`, `\`)
	content = strings.ReplaceAll(content, `\t`, "\t")
	return content
}
