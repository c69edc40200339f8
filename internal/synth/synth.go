// Package synth orchestrates the per-ticket RCA pipeline: bot filtering,
// transcript building, fact extraction, the model call, and assembly of a
// structurally complete record on every path, including total failure.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rcareport/internal/botfilter"
	"github.com/rcareport/internal/conversation"
	"github.com/rcareport/internal/extract"
	"github.com/rcareport/internal/llm"
	"github.com/rcareport/pkg/models"
)

// Placeholder narratives used when no usable evidence exists.
const (
	PlaceholderSummary    = "No issue description available"
	PlaceholderDebug      = "No debugging steps documented in the conversation"
	PlaceholderResolution = "No resolution steps documented in the conversation"
	PlaceholderRootCause  = "Root cause not identified in the conversation"

	fallbackResolution = "No resolution steps documented"
	fallbackRootCause  = "Root cause not identified"
)

const (
	maxFallbackCommands   = 5
	maxFallbackCodeBlocks = 3
	maxFallbackCodeLength = 500
	maxSummaryErrors      = 5
	maxSummaryCommands    = 10
)

// Completer is the language-model contract the synthesizer needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Synthesizer turns one ticket plus its chat thread into an RCARecord.
type Synthesizer struct {
	model Completer
}

// New creates a synthesizer. A nil model forces the mechanical fallback
// for every ticket.
func New(model Completer) *Synthesizer {
	return &Synthesizer{model: model}
}

// Analyze runs the full pipeline for one ticket. It never returns an
// error: every path, including model failure and empty conversations,
// yields a record with four non-empty narrative fields and all five media
// categories present.
func (s *Synthesizer) Analyze(ctx context.Context, ticket *models.TicketDetail, thread models.ChatThread) models.RCARecord {
	if ticket == nil {
		ticket = &models.TicketDetail{}
	}

	filtered := *ticket
	filtered.Comments = botfilter.FilterComments(ticket.Comments)
	filteredThread := botfilter.FilterThread(thread)

	transcript := conversation.Build(&filtered, filteredThread)
	if !conversation.IsMeaningful(transcript) {
		log.Debug().Str("ticket", ticket.ID).Msg("No meaningful conversation, returning placeholder record")
		return emptyRecord(ticket.Title)
	}

	content := extract.All(&filtered, filteredThread)
	media := extract.Media(&filtered, filteredThread)
	engineers := extract.Engineers(&filtered)

	log.Debug().
		Str("ticket", ticket.ID).
		Int("transcript_chars", len(transcript)).
		Int("commands", len(content.Commands)).
		Int("code_blocks", len(content.CodeBlocks)).
		Int("errors", len(content.ErrorMessages)).
		Msg("Extraction complete")

	record := s.callModel(ctx, ticket, transcript, content, media, engineers)

	return finalize(record, ticket, media)
}

// callModel invokes the language model and parses its response; any
// failure degrades to the mechanical fallback.
func (s *Synthesizer) callModel(ctx context.Context, ticket *models.TicketDetail, transcript string, content *models.ExtractedContent, media models.MediaBag, engineers []string) models.RCARecord {
	if s.model == nil {
		return mechanicalFallback(ticket.Title, content)
	}

	bounded := conversation.Bound(transcript, content.ErrorMessages)
	userPrompt := buildUserPrompt(ticket, bounded, content, media, engineers)

	response, err := s.model.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		log.Warn().Err(err).Str("ticket", ticket.ID).Msg("Model call failed, using mechanical fallback")
		return mechanicalFallback(ticket.Title, content)
	}

	parsed := llm.ParseRCAResponse(response)

	return models.RCARecord{
		Summary:         ensureFormatting(parsed.Summary),
		DebugSteps:      ensureFormatting(parsed.DebugSteps),
		ResolutionSteps: ensureFormatting(parsed.ResolutionSteps),
		RootCause:       strings.TrimSpace(parsed.RootCause),
		SupportingMedia: models.NewMediaBag(),
	}
}

const systemPrompt = `You are creating RCA (Root Cause Analysis) reports from support tickets.
Analyze the conversation and create a structured report based on what actually happened.
Only include information that is present in the conversation.
If no debugging steps are mentioned, say so.
If no resolution is mentioned, say so.
Do not make assumptions or add information not in the conversation.`

func buildUserPrompt(ticket *models.TicketDetail, transcript string, content *models.ExtractedContent, media models.MediaBag, engineers []string) string {
	engineerList := "Support Team"
	if len(engineers) > 0 {
		engineerList = strings.Join(engineers, ", ")
	}

	return fmt.Sprintf(`Analyze this support ticket conversation and create an RCA report.

TICKET: %s
STATUS: %s
ENGINEERS: %s

TECHNICAL CONTENT FOUND:
%s

CONVERSATION:
%s

Based on the conversation above, create an RCA report with these sections:

1. **Summary of the Issue**:
   - What problem was reported?
   - Include any error messages or symptoms mentioned
   - Be specific about what wasn't working

2. **Steps to Debug**:
   - List the actual debugging actions taken (numbered list)
   - Include any commands run or checks performed
   - Format commands in code blocks
   - If no debugging steps are mentioned, state: "No debugging steps were documented in the conversation."

3. **Steps to Resolution**:
   - What was done to fix the issue?
   - Include specific actions taken
   - Format commands in code blocks
   - If no resolution is mentioned, state: "No resolution steps were documented in the conversation."

4. **Root Cause Analysis**:
   - What caused the issue based on the investigation?
   - Be specific if the cause was identified
   - If not identified, state: "Root cause was not identified in the conversation."

IMPORTANT:
- Only include information actually present in the conversation
- Use proper formatting with line breaks between numbered steps
- Put actual commands/code in `+"```"+` blocks
- Do not make up or assume steps that aren't mentioned

Return as JSON:
{"summary": "...", "debug_steps": "...", "resolution_steps": "...", "root_cause": "..."}`,
		orDefault(ticket.Title, "N/A"),
		orDefault(ticket.Status, "N/A"),
		engineerList,
		contentSummary(content, media),
		transcript)
}

// contentSummary gives the model a compact inventory of what extraction
// found, so it can anchor the narrative on real evidence.
func contentSummary(content *models.ExtractedContent, media models.MediaBag) string {
	var parts []string

	if len(content.ErrorMessages) > 0 {
		parts = append(parts, "Errors found:")
		for i, err := range content.ErrorMessages {
			if i >= maxSummaryErrors {
				break
			}
			parts = append(parts, "- "+err.Error)
		}
	}

	if len(content.Commands) > 0 {
		parts = append(parts, "\nCommands found:")
		for i, cmd := range content.Commands {
			if i >= maxSummaryCommands {
				break
			}
			parts = append(parts, "- "+cmd.Command)
		}
	}

	if len(content.CodeBlocks) > 0 {
		parts = append(parts, fmt.Sprintf("\n%d code blocks found", len(content.CodeBlocks)))
	}
	if len(media.ConsoleLinks) > 0 {
		parts = append(parts, fmt.Sprintf("%d console/dashboard links found", len(media.ConsoleLinks)))
	}

	if len(parts) == 0 {
		return "No technical content extracted"
	}
	return strings.Join(parts, "\n")
}

// mechanicalFallback builds a debug narrative purely from extracted facts
// when the model is unavailable. With nothing extracted it degrades to the
// placeholder record.
func mechanicalFallback(title string, content *models.ExtractedContent) models.RCARecord {
	if len(content.Commands) == 0 && len(content.CodeBlocks) == 0 {
		return emptyRecord(title)
	}

	var steps []string
	n := 0
	for _, cmd := range content.Commands {
		if n >= maxFallbackCommands {
			break
		}
		n++
		steps = append(steps, fmt.Sprintf("%d. %s ran:\n```bash\n%s\n```", n, cmd.Source, cmd.Command))
	}
	for i, block := range content.CodeBlocks {
		if i >= maxFallbackCodeBlocks {
			break
		}
		n++
		code := block.Code
		if runes := []rune(code); len(runes) > maxFallbackCodeLength {
			code = string(runes[:maxFallbackCodeLength])
		}
		steps = append(steps, fmt.Sprintf("%d. Output:\n```%s\n%s\n```", n, block.Language, code))
	}

	return models.RCARecord{
		Summary:         orDefault(title, "Issue reported"),
		DebugSteps:      strings.Join(steps, "\n\n"),
		ResolutionSteps: fallbackResolution,
		RootCause:       fallbackRootCause,
		SupportingMedia: models.NewMediaBag(),
	}
}

// emptyRecord is the placeholder used when no conversation exists at all.
func emptyRecord(title string) models.RCARecord {
	return models.RCARecord{
		Summary:         orDefault(title, PlaceholderSummary),
		DebugSteps:      PlaceholderDebug,
		ResolutionSteps: PlaceholderResolution,
		RootCause:       PlaceholderRootCause,
		SupportingMedia: models.NewMediaBag(),
	}
}

// finalize attaches the collected media, folds in ticket-native
// attachments not already represented, and guarantees the non-empty
// narrative invariant.
func finalize(record models.RCARecord, ticket *models.TicketDetail, media models.MediaBag) models.RCARecord {
	record.SupportingMedia = media

	seen := make(map[string]bool, len(record.SupportingMedia.Attachments))
	for _, att := range record.SupportingMedia.Attachments {
		seen[att.URL] = true
	}
	for _, att := range ticket.Attachments {
		if att.URL == "" || seen[att.URL] {
			continue
		}
		seen[att.URL] = true
		record.SupportingMedia.Attachments = append(record.SupportingMedia.Attachments, models.MediaItem{
			URL:    att.URL,
			Title:  orDefault(att.Title, "Attachment"),
			Source: "clickup",
		})
	}

	record.Summary = orDefault(record.Summary, orDefault(ticket.Title, PlaceholderSummary))
	record.DebugSteps = orDefault(record.DebugSteps, PlaceholderDebug)
	record.ResolutionSteps = orDefault(record.ResolutionSteps, PlaceholderResolution)
	record.RootCause = orDefault(record.RootCause, PlaceholderRootCause)

	return record
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
