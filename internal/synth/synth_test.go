package synth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcareport/pkg/models"
)

type fakeModel struct {
	response string
	err      error
	called   bool
	lastUser string
}

func (f *fakeModel) Complete(_ context.Context, _, userPrompt string) (string, error) {
	f.called = true
	f.lastUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func meaningfulTicket() *models.TicketDetail {
	return &models.TicketDetail{
		ID:          "abc123",
		Title:       "Production API returning 502 errors",
		Status:      "in progress",
		Description: "Customers started seeing 502 responses from the public API around 09:30 UTC. The gateway logs show upstream timeouts and the pods were restarting repeatedly.",
		Comments: []models.Comment{
			{Author: "Priya Sharma", Text: "Error: upstream connect timeout while contacting the billing service. Checked with `kubectl get pods -n production` and saw crash loops."},
		},
	}
}

func TestAnalyze_ShortTranscriptShortCircuits(t *testing.T) {
	model := &fakeModel{response: `{"summary": "x"}`}
	s := New(model)

	ticket := &models.TicketDetail{ID: "t1", Title: "T", Description: "hi"}
	record := s.Analyze(context.Background(), ticket, models.EmptyChatThread())

	assert.False(t, model.called, "model must not be called for empty conversations")
	assert.Equal(t, "T", record.Summary)
	assert.Equal(t, PlaceholderDebug, record.DebugSteps)
	assert.Equal(t, PlaceholderResolution, record.ResolutionSteps)
	assert.Equal(t, PlaceholderRootCause, record.RootCause)
	assertMediaShape(t, record)
}

func TestAnalyze_ShortCircuitWithoutTitle(t *testing.T) {
	s := New(nil)

	record := s.Analyze(context.Background(), &models.TicketDetail{ID: "t2"}, models.EmptyChatThread())

	assert.Equal(t, PlaceholderSummary, record.Summary)
	assertMediaShape(t, record)
}

func TestAnalyze_SuccessPath(t *testing.T) {
	model := &fakeModel{response: `{"summary": "API gateway 502s", "debug_steps": "1. Checked gateway logs", "resolution_steps": "1. Restarted billing pods", "root_cause": "Billing service OOM"}`}
	s := New(model)

	thread := models.EmptyChatThread()
	thread.Found = true
	thread.Images = append(thread.Images, models.ChatFile{URL: "https://files.example.com/graph.png", Title: "latency graph"})

	record := s.Analyze(context.Background(), meaningfulTicket(), thread)

	require.True(t, model.called)
	assert.Contains(t, model.lastUser, "TICKET: Production API returning 502 errors")
	assert.Contains(t, model.lastUser, "ENGINEERS: Priya Sharma")

	assert.Equal(t, "API gateway 502s", record.Summary)
	assert.Equal(t, "1. Checked gateway logs", record.DebugSteps)
	assert.Equal(t, "Billing service OOM", record.RootCause)
	require.Len(t, record.SupportingMedia.Images, 1)
	assert.Equal(t, "slack", record.SupportingMedia.Images[0].Source)
	assertMediaShape(t, record)
}

func TestAnalyze_ModelFailureFallsBack(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	s := New(model)

	record := s.Analyze(context.Background(), meaningfulTicket(), models.EmptyChatThread())

	assert.True(t, model.called)
	assert.Equal(t, "Production API returning 502 errors", record.Summary)
	assert.Equal(t, "No resolution steps documented", record.ResolutionSteps)
	assert.Equal(t, "Root cause not identified", record.RootCause)
	assert.NotEqual(t, PlaceholderDebug, record.DebugSteps)
	assertMediaShape(t, record)
}

func TestAnalyze_EmptyModelObjectGetsPlaceholders(t *testing.T) {
	model := &fakeModel{response: `{}`}
	s := New(model)

	record := s.Analyze(context.Background(), meaningfulTicket(), models.EmptyChatThread())

	assert.Equal(t, "Production API returning 502 errors", record.Summary)
	assert.Equal(t, PlaceholderDebug, record.DebugSteps)
	assert.Equal(t, PlaceholderResolution, record.ResolutionSteps)
	assert.Equal(t, PlaceholderRootCause, record.RootCause)
}

func TestAnalyze_TicketAttachmentsFoldedInOnce(t *testing.T) {
	model := &fakeModel{response: `{"summary": "s", "debug_steps": "d", "resolution_steps": "r", "root_cause": "c"}`}
	s := New(model)

	ticket := meaningfulTicket()
	ticket.Attachments = []models.Attachment{
		{URL: "https://attachments.example.com/trace.png", Title: "trace.png", IsImage: true},
	}

	record := s.Analyze(context.Background(), ticket, models.EmptyChatThread())

	require.Len(t, record.SupportingMedia.Attachments, 1)
	assert.Equal(t, "https://attachments.example.com/trace.png", record.SupportingMedia.Attachments[0].URL)
}

func TestMechanicalFallback_Numbering(t *testing.T) {
	content := models.NewExtractedContent()
	content.Commands = []models.Command{
		{Command: "kubectl get pods -n production", Source: "Priya Sharma"},
		{Command: "kubectl describe pod billing-7f9", Source: "slack_2"},
	}

	record := mechanicalFallback("Billing crash loops", content)

	assert.Equal(t, "Billing crash loops", record.Summary)
	assert.Contains(t, record.DebugSteps, "1. Priya Sharma ran:\n```bash\nkubectl get pods -n production\n```")
	assert.Contains(t, record.DebugSteps, "2. slack_2 ran:")
	assert.NotContains(t, record.DebugSteps, "3.")
}

func TestMechanicalFallback_CodeBlocksContinueNumbering(t *testing.T) {
	content := models.NewExtractedContent()
	content.Commands = []models.Command{{Command: "systemctl restart nginx", Source: "ops"}}
	content.CodeBlocks = []models.CodeBlock{
		{Code: "NAME   STATUS\nbilling   CrashLoopBackOff", Language: "bash", Source: "slack_0"},
	}

	record := mechanicalFallback("", content)

	assert.Equal(t, "Issue reported", record.Summary)
	assert.Contains(t, record.DebugSteps, "1. ops ran:")
	assert.Contains(t, record.DebugSteps, "2. Output:\n```bash\n")
}

func TestMechanicalFallback_LongCodeTruncated(t *testing.T) {
	content := models.NewExtractedContent()
	content.CodeBlocks = []models.CodeBlock{
		{Code: strings.Repeat("x", 900), Language: "text", Source: "description"},
	}

	record := mechanicalFallback("t", content)

	assert.Contains(t, record.DebugSteps, strings.Repeat("x", 500))
	assert.NotContains(t, record.DebugSteps, strings.Repeat("x", 501))
}

func TestMechanicalFallback_MultiByteCodeCap(t *testing.T) {
	content := models.NewExtractedContent()
	content.CodeBlocks = []models.CodeBlock{
		{Code: strings.Repeat("λ", 600), Language: "text", Source: "description"},
	}

	record := mechanicalFallback("t", content)

	assert.True(t, utf8.ValidString(record.DebugSteps))
	assert.Contains(t, record.DebugSteps, strings.Repeat("λ", 500))
	assert.NotContains(t, record.DebugSteps, strings.Repeat("λ", 501))
}

func TestMechanicalFallback_NothingExtracted(t *testing.T) {
	record := mechanicalFallback("Some ticket", models.NewExtractedContent())

	assert.Equal(t, "Some ticket", record.Summary)
	assert.Equal(t, PlaceholderDebug, record.DebugSteps)
}

func TestEnsureFormatting_BreaksBeforeNumberedItems(t *testing.T) {
	got := ensureFormatting("1. First step 2. Second step")

	assert.True(t, strings.HasPrefix(got, "1. First step"))
	assert.Contains(t, got, "\n\n2. Second step")
}

func TestEnsureFormatting_LeadingItemUntouched(t *testing.T) {
	got := ensureFormatting("1. Only step here")

	assert.Equal(t, "1. Only step here", got)
}

func TestEnsureFormatting_SeparatesFenceFromNextItem(t *testing.T) {
	got := ensureFormatting("1. Ran:\n```bash\nls -la\n```2. Checked output")

	assert.Contains(t, got, "```\n\n2. Checked output")
}

func TestEnsureFormatting_CollapsesBlankRuns(t *testing.T) {
	got := ensureFormatting("first\n\n\n\nsecond")

	assert.Equal(t, "first\n\nsecond", got)
}

func assertMediaShape(t *testing.T, record models.RCARecord) {
	t.Helper()
	assert.NotNil(t, record.SupportingMedia.Images)
	assert.NotNil(t, record.SupportingMedia.ErrorScreenshots)
	assert.NotNil(t, record.SupportingMedia.ConsoleLinks)
	assert.NotNil(t, record.SupportingMedia.Attachments)
	assert.NotNil(t, record.SupportingMedia.Files)
}
