// Package extract turns filtered ticket and chat text into a bounded,
// de-duplicated bag of typed technical facts: code blocks, commands,
// error messages, configurations and console links.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rcareport/internal/classify"
	"github.com/rcareport/pkg/models"
)

const (
	minCommandLength = 10
	minConfigLength  = 30
	linkContextSpan  = 50
)

// extractor accumulates facts across all sources of one ticket. Dedup keys
// span the whole run, not a single source.
type extractor struct {
	bag          *models.ExtractedContent
	seenCommands map[string]bool
	seenErrors   map[string]bool
	seenLinks    map[string]bool
}

func newExtractor() *extractor {
	return &extractor{
		bag:          models.NewExtractedContent(),
		seenCommands: make(map[string]bool),
		seenErrors:   make(map[string]bool),
		seenLinks:    make(map[string]bool),
	}
}

// All scans every text source of a filtered ticket plus the filtered chat
// thread and returns the accumulated fact bag. Inputs are never mutated
// and the same inputs always produce the same bag, order included.
func All(ticket *models.TicketDetail, thread models.ChatThread) *models.ExtractedContent {
	ex := newExtractor()

	// Chat-native console links seed the bag before text scanning
	for _, link := range thread.ConsoleLinks {
		if link.URL == "" || ex.seenLinks[link.URL] {
			continue
		}
		ex.seenLinks[link.URL] = true
		ex.bag.ConsoleLinks = append(ex.bag.ConsoleLinks, link)
	}

	if ticket != nil {
		if ticket.Description != "" {
			ex.fromText(ticket.Description, "description")
		}
		for _, comment := range ticket.Comments {
			if comment.Text == "" {
				continue
			}
			source := comment.Author
			if source == "" {
				source = "Unknown"
			}
			ex.fromText(comment.Text, source)
		}
	}

	for i, msg := range thread.Messages {
		if msg == "" || strings.HasPrefix(msg, "No ") {
			continue
		}
		ex.fromText(msg, fmt.Sprintf("slack_%d", i))
	}

	// Chat snippets arrive pre-segmented
	for _, snippet := range thread.CodeSnippets {
		language := snippet.Language
		if language == "" {
			language = "text"
		}
		user := snippet.User
		if user == "" {
			user = "Unknown"
		}
		ex.bag.CodeBlocks = append(ex.bag.CodeBlocks, models.CodeBlock{
			Code:     snippet.Code,
			Language: language,
			Source:   "slack_snippet",
			User:     user,
		})
	}

	return ex.bag
}

// fromText applies every detection strategy to one text blob. Overlap
// between strategies is expected; only commands, errors and links are
// de-duplicated.
func (ex *extractor) fromText(text, source string) {
	if text == "" {
		return
	}

	if classify.LooksLikeCommandOutput(text) {
		ex.segmentCommandOutput(text, source)
	}

	// Fenced code regions, kept even when segmentation already captured
	// overlapping lines
	for _, match := range classify.FencedCodePattern.FindAllStringSubmatch(text, -1) {
		language := match[1]
		if language == "" {
			language = "text"
		}
		code := strings.TrimSpace(match[2])
		if code == "" {
			continue
		}
		ex.bag.CodeBlocks = append(ex.bag.CodeBlocks, models.CodeBlock{
			Code:     code,
			Language: language,
			Source:   source,
		})
	}

	for _, re := range classify.CommandPatterns {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			ex.addCommand(strings.TrimSpace(match[1]), source)
		}
	}

	for _, re := range classify.ErrorPatterns {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			errText := strings.TrimSpace(match[1])
			if errText == "" || ex.seenErrors[errText] {
				continue
			}
			ex.seenErrors[errText] = true
			ex.bag.ErrorMessages = append(ex.bag.ErrorMessages, models.ErrorMessage{
				Error:  errText,
				Source: source,
			})
		}
	}

	// Backtick inline code that looks like a command
	for _, match := range classify.InlineCodePattern.FindAllStringSubmatch(text, -1) {
		code := strings.TrimSpace(match[1])
		if classify.IsInlineCommand(code) {
			ex.addCommand(code, source)
		}
	}

	ex.extractConfigurations(text, source)
	ex.extractConsoleLinks(text, source)
}

// segmentCommandOutput walks the lines of an output-looking blob, grouping
// a command line and its following output lines into one code block.
func (ex *extractor) segmentCommandOutput(text, source string) {
	var currentBlock []string
	inOutput := false

	flush := func(minLines int) {
		if len(currentBlock) > minLines {
			ex.bag.CodeBlocks = append(ex.bag.CodeBlocks, models.CodeBlock{
				Code:     strings.Join(currentBlock, "\n"),
				Language: "bash",
				Source:   source,
			})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		// Output continuation wins over the generic command shape, so
		// table rows like "NAME   STATUS" extend the block instead of
		// starting a new one
		case inOutput && classify.IsOutputLine(line):
			currentBlock = append(currentBlock, line)
		case classify.IsCommandLine(line):
			flush(1)
			currentBlock = []string{line}
			inOutput = true
		case inOutput && strings.TrimSpace(line) == "":
			flush(2)
			currentBlock = nil
			inOutput = false
		}
	}
	flush(1)
}

func (ex *extractor) addCommand(command, source string) {
	if len(command) <= minCommandLength {
		return
	}
	if strings.HasPrefix(command, "//") || strings.HasPrefix(command, "#") {
		return
	}
	if ex.seenCommands[command] {
		return
	}
	ex.seenCommands[command] = true
	ex.bag.Commands = append(ex.bag.Commands, models.Command{
		Command: command,
		Source:  source,
	})
}

// extractConfigurations finds JSON object literals that actually parse and
// stores them pretty-printed.
func (ex *extractor) extractConfigurations(text, source string) {
	for _, match := range classify.JSONObjectPattern.FindAllString(text, -1) {
		if len(match) <= minConfigLength {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(match), &obj); err != nil {
			continue
		}
		var formatted bytes.Buffer
		if err := json.Indent(&formatted, []byte(match), "", "  "); err != nil {
			continue
		}
		ex.bag.Configurations = append(ex.bag.Configurations, models.Configuration{
			Config: formatted.String(),
			Type:   "json",
			Source: source,
		})
	}
}

// extractConsoleLinks keeps technical URLs with a context window around
// the match.
func (ex *extractor) extractConsoleLinks(text, source string) {
	for _, loc := range classify.URLPattern.FindAllStringIndex(text, -1) {
		url := text[loc[0]:loc[1]]
		if !classify.IsTechnicalURL(url) || ex.seenLinks[url] {
			continue
		}
		ex.seenLinks[url] = true

		start := loc[0] - linkContextSpan
		if start < 0 {
			start = 0
		}
		for start > 0 && !utf8.RuneStart(text[start]) {
			start--
		}
		end := loc[1] + linkContextSpan
		if end > len(text) {
			end = len(text)
		}
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}
		ex.bag.ConsoleLinks = append(ex.bag.ConsoleLinks, models.ConsoleLink{
			URL:     url,
			Type:    "Technical Link",
			Source:  source,
			Context: text[start:end],
		})
	}
}
