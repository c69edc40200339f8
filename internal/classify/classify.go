// Package classify holds the pure text heuristics used by the content
// extractor: deciding whether a blob looks like terminal output, whether a
// single line is a command or output, and the pattern tables for commands,
// errors and console links.
package classify

import (
	"regexp"
	"strings"
)

// outputIndicators are the signals that a text blob is a command/output
// transcript. Each entry counts at most once; two distinct kinds must match.
var outputTokenIndicators = []string{
	// Table headers
	"NAME", "STATUS", "VERSION", "TYPE", "ID", "CREATED",
	// Separators
	"----", "====", "****",
}

var outputPatternIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\d+\s+\w+`),      // numbered lists
	regexp.MustCompile(`(?m)^\w+\s+\d+\s+\w+`), // table rows
	regexp.MustCompile(`(?m)^\[\w+\]`),        // log format
	regexp.MustCompile(`(?m)^\s*\*\s+\w+`),    // bullet points
}

// LooksLikeCommandOutput reports whether text resembles terminal output.
// At least two distinct indicator kinds must be present somewhere in the
// text; repeated hits of the same indicator do not count twice.
func LooksLikeCommandOutput(text string) bool {
	matches := 0
	for _, token := range outputTokenIndicators {
		if strings.Contains(text, token) {
			matches++
		}
	}
	for _, re := range outputPatternIndicators {
		if re.MatchString(text) {
			matches++
		}
	}
	return matches >= 2
}

var commandPrefixes = []string{
	"$", "#", ">", "~",
	"root@", "user@", "admin@",
	`C:\`, "PS ", // Windows
}

// Generic "word arg" shape: a word possibly with hyphens, whitespace, then
// a flag or another word.
var commandShape = regexp.MustCompile(`(?i)^[a-z]+[\w\-]*\s+[\-\w]+`)

// IsCommandLine reports whether a trimmed line looks like a shell command.
func IsCommandLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for _, prefix := range commandPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return commandShape.MatchString(line)
}

var outputLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\d+[\.\)]\s+`),    // numbered list
	regexp.MustCompile(`^\s*[\*\-\+]\s+`),     // bullet list
	regexp.MustCompile(`^\w+[\-\w]*\s*[:=]\s*`), // key-value pairs
	regexp.MustCompile(`^\s*\[\w+\]`),         // log format
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),  // date stamps
}

// IsOutputLine reports whether a line looks like command output.
func IsOutputLine(line string) bool {
	if line == "" {
		return false
	}
	// Table-like output has runs of spaces or tabs
	if strings.Contains(line, "  ") || strings.Contains(line, "\t") {
		return true
	}
	for _, re := range outputLinePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// CommandPatterns match common CLI invocations inside free text. The
// generic word-plus-args pattern goes first; tool-specific patterns follow
// so new tools can be added without touching the extractor.
var CommandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)((?:sudo\s+)?[a-z]+[\w\-]*\s+[\w\-]+[^\n]*)`),
	regexp.MustCompile(`(?im)(npm\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(yarn\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(pip\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(python\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(java\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(mvn\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(gradle\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(curl\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(wget\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(apt-get\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(yum\s+[^\n]+)`),
	regexp.MustCompile(`(?im)(brew\s+[^\n]+)`),
}

// ErrorPatterns match common error-message shapes. The first capture group
// is the reported fragment.
var ErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([Ee]rror:\s*[^\n]+)`),
	regexp.MustCompile(`([Ee]xception:\s*[^\n]+)`),
	regexp.MustCompile(`([Ff]ailed:\s*[^\n]+)`),
	regexp.MustCompile(`([Ww]arning:\s*[^\n]+)`),
	regexp.MustCompile(`(FATAL:\s*[^\n]+)`),
	regexp.MustCompile(`(ERROR\s+\[\d+\]:[^\n]+)`),
	regexp.MustCompile(`(\[ERROR\][^\n]+)`),
	regexp.MustCompile(`(Traceback[^\n]+)`),
	regexp.MustCompile(`(panic:[^\n]+)`),
	regexp.MustCompile(`(fatal:[^\n]+)`),
}

// URLPattern matches http(s) URLs in free text.
var URLPattern = regexp.MustCompile(`(https?://[^\s<>"{}|\\^` + "`" + `\[\]]+)`)

// techLinkKeywords mark a URL as a console/dashboard link worth keeping.
var techLinkKeywords = []string{
	"console", "dashboard", "portal", "admin", "monitor",
	"grafana", "datadog", "newrelic", "kibana", "splunk",
	"jenkins", "gitlab", "github", "bitbucket", "jira",
	"confluence", "aws", "azure", "gcp", "cloud",
}

// IsTechnicalURL reports whether a URL points at a console, dashboard or
// other technical tool.
func IsTechnicalURL(url string) bool {
	lower := strings.ToLower(url)
	for _, keyword := range techLinkKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// InlineCodePattern matches backtick-delimited inline code runs.
var InlineCodePattern = regexp.MustCompile("`([^`]+)`")

// FencedCodePattern matches triple-backtick code fences with an optional
// language tag on the opening fence.
var FencedCodePattern = regexp.MustCompile("```([a-zA-Z]*)\n?([\\s\\S]*?)```")

// JSONObjectPattern is a balanced-brace heuristic for JSON object literals
// (one level of nesting).
var JSONObjectPattern = regexp.MustCompile(`(\{(?:[^{}]|(?:\{[^{}]*\}))*\})`)

// inlineCodeChars are the characters at least one of which must appear in
// an inline code run for it to count as a command.
const inlineCodeChars = " /-.()="

// IsInlineCommand reports whether a backtick-delimited run looks like a
// command rather than an identifier mention.
func IsInlineCommand(code string) bool {
	if len(code) < 6 {
		return false
	}
	return strings.ContainsAny(code, inlineCodeChars)
}
