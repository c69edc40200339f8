package botfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcareport/pkg/models"
)

func TestFilterComments_BotAuthor(t *testing.T) {
	comments := []models.Comment{
		{Author: "ClickBot", Text: "set status to OPEN"},
		{Author: "jane.doe", Text: "I restarted the pod and it recovered."},
	}

	filtered := FilterComments(comments)

	assert.Len(t, filtered, 1)
	assert.Equal(t, "jane.doe", filtered[0].Author)
}

func TestFilterComments_AutomationPhraseWithHumanAuthor(t *testing.T) {
	comments := []models.Comment{
		{Author: "jane.doe", Text: "ClickBot (automations) set priority to Urgent"},
	}

	assert.Empty(t, FilterComments(comments))
}

func TestFilterComments_HumanTextRetainedVerbatim(t *testing.T) {
	original := "checked the logs, nothing obvious yet"
	filtered := FilterComments([]models.Comment{{Author: "sam", Text: original}})

	assert.Len(t, filtered, 1)
	assert.Equal(t, original, filtered[0].Text)
}

func TestFilterComments_MissingFields(t *testing.T) {
	// No author, no text: nothing to judge, keep it
	filtered := FilterComments([]models.Comment{{}})
	assert.Len(t, filtered, 1)
}

func TestFilterMessages(t *testing.T) {
	messages := []string{
		"[12/01 10:15] jane: the deploy failed again",
		"[bot]: build #42 finished",
		"[Automation]: rule triggered",
		"No Slack thread found. Link thread in ClickUp for better analysis.",
		"",
		"[12/01 10:20] sam: rolling back now",
	}

	filtered := FilterMessages(messages)

	assert.Equal(t, []string{
		"[12/01 10:15] jane: the deploy failed again",
		"[12/01 10:20] sam: rolling back now",
	}, filtered)
}

func TestFilterMessages_MarkerBeyondWindowKept(t *testing.T) {
	// The marker appears after the first 50 characters, so the message is
	// treated as human quoting a bot rather than a bot message.
	msg := "jane: this is a long preamble padding the message [bot]: quoted"
	assert.Equal(t, []string{msg}, FilterMessages([]string{msg}))
}

func TestFilterThread(t *testing.T) {
	thread := models.EmptyChatThread()
	thread.Messages = []string{"[system]: maintenance window", "sam: looks healthy now"}
	thread.Images = []models.ChatFile{{URL: "https://files.example.com/a.png"}}

	filtered := FilterThread(thread)

	assert.Equal(t, []string{"sam: looks healthy now"}, filtered.Messages)
	assert.Len(t, filtered.Images, 1)
}
