// Package botfilter removes automation-authored noise from ticket comments
// and chat messages before analysis. The two sources use deliberately
// different heuristics: tracker bots are caught by author-name substrings,
// chat bots by bracketed tag markers near the start of the message. The
// asymmetry matches the two platforms' bot-naming conventions.
package botfilter

import (
	"strings"

	"github.com/rcareport/pkg/models"
)

// botNamePatterns are substrings that mark a comment author as automation.
var botNamePatterns = []string{
	"clickbot", "automation #", "webhook", "form submission",
}

// automationPhrases are message prefixes that mark a comment as pure
// automation output even when the author name looks human.
var automationPhrases = []string{
	"clickbot (automations) set",
	"clickbot (form submission)",
	"clickbot (automations) added tag",
	"clickbot (automations) also added",
}

// chatBotMarkers are bracketed tags that mark a chat message as
// bot-authored when they appear within the first 50 characters.
var chatBotMarkers = []string{
	"[bot]:", "[automation]:", "[system]:", "[webhook]:",
}

// FilterComments returns the ticket comments with bot-authored and
// automation-generated entries removed. Comments with missing authors or
// empty text are judged on what is present; nothing errors.
func FilterComments(comments []models.Comment) []models.Comment {
	filtered := make([]models.Comment, 0, len(comments))
	for _, comment := range comments {
		if isBotComment(comment) {
			continue
		}
		filtered = append(filtered, comment)
	}
	return filtered
}

func isBotComment(comment models.Comment) bool {
	author := strings.ToLower(comment.Author)
	for _, pattern := range botNamePatterns {
		if strings.Contains(author, pattern) {
			return true
		}
	}

	text := strings.ToLower(comment.Text)
	if text == "" {
		return false
	}
	for _, phrase := range automationPhrases {
		if strings.HasPrefix(text, phrase) {
			return true
		}
	}
	return false
}

// FilterMessages returns the chat messages with bot-tagged entries and
// "No ..." placeholder sentinels removed.
func FilterMessages(messages []string) []string {
	filtered := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg == "" || strings.HasPrefix(msg, "No ") {
			continue
		}
		if isBotMessage(msg) {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered
}

func isBotMessage(msg string) bool {
	head := strings.ToLower(msg)
	if len(head) > 50 {
		head = head[:50]
	}
	for _, marker := range chatBotMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

// FilterThread returns a copy of the thread with bot messages removed.
// All other collections pass through untouched.
func FilterThread(thread models.ChatThread) models.ChatThread {
	thread.Messages = FilterMessages(thread.Messages)
	return thread
}
