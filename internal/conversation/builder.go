// Package conversation assembles the single ordered transcript that feeds
// the language model, and bounds it when threads run long.
package conversation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rcareport/pkg/models"
)

// MinMeaningfulLength is the minimum transcript length (after trimming)
// for a ticket to be worth extracting and analyzing.
const MinMeaningfulLength = 50

// maxTranscriptLength is the point past which the transcript is chunked
// down to its causally relevant regions.
const maxTranscriptLength = 30000

const (
	headChunkLength    = 10000
	tailChunkLength    = 10000
	errorContextWindow = 500
	maxErrorContexts   = 3
)

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b-\x0c\x0e-\x1f\x7f-\x9f]`)

// CleanText strips control characters while preserving newlines and tabs.
func CleanText(text string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(text, " "))
}

// Build concatenates the filtered ticket and chat data into one labeled
// transcript. Output is byte-identical for identical inputs: sections are
// emitted in a fixed order and comments are used in the order given
// (the tracker client sorts them newest-first).
func Build(ticket *models.TicketDetail, thread models.ChatThread) string {
	var parts []string

	if ticket != nil {
		if ticket.Title != "" {
			parts = append(parts, "TICKET TITLE: "+ticket.Title+"\n")
		}
		if desc := CleanText(ticket.Description); desc != "" {
			parts = append(parts, "INITIAL DESCRIPTION:", desc, "")
		}
		if len(ticket.Comments) > 0 {
			parts = append(parts, "CONVERSATION:")
			for _, comment := range ticket.Comments {
				if comment.Text == "" {
					continue
				}
				author := comment.Author
				if author == "" {
					author = "Unknown"
				}
				parts = append(parts, "\n["+author+"]:", comment.Text, "")
			}
		}
	}

	if len(thread.Messages) > 0 {
		if len(parts) == 0 {
			parts = append(parts, "SLACK CONVERSATION:")
		} else {
			parts = append(parts, "\nADDITIONAL SLACK MESSAGES:")
		}
		for _, msg := range thread.Messages {
			if msg == "" || strings.HasPrefix(msg, "No ") {
				continue
			}
			parts = append(parts, CleanText(msg), "")
		}
	}

	return strings.Join(parts, "\n")
}

// IsMeaningful reports whether a transcript is long enough to analyze.
func IsMeaningful(transcript string) bool {
	return len(strings.TrimSpace(transcript)) >= MinMeaningfulLength
}

// Bound shortens transcripts that exceed the model budget while keeping
// the causally relevant regions: the opening, a context window around each
// of the first few extracted errors, and the closing. All offsets count
// runes so a chunk boundary never splits a multi-byte character.
func Bound(transcript string, errors []models.ErrorMessage) string {
	runes := []rune(transcript)
	if len(runes) <= maxTranscriptLength {
		return transcript
	}

	chunks := []string{string(runes[:headChunkLength])}

	count := 0
	for _, err := range errors {
		if count >= maxErrorContexts {
			break
		}
		byteIdx := strings.Index(transcript, err.Error)
		if byteIdx < 0 {
			continue
		}
		idx := utf8.RuneCountInString(transcript[:byteIdx])
		start := idx - errorContextWindow
		if start < 0 {
			start = 0
		}
		end := idx + utf8.RuneCountInString(err.Error) + errorContextWindow
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, "\n[Error context]:\n"+string(runes[start:end]))
		count++
	}

	chunks = append(chunks, "\n[Final part]:\n"+string(runes[len(runes)-tailChunkLength:]))

	return strings.Join(chunks, "\n")
}
