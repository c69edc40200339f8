package slack

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArchiveURL(t *testing.T) {
	channel, ts, err := ParseArchiveURL("https://acme.slack.com/archives/C024BE91L/p1712345678901234")
	require.NoError(t, err)
	assert.Equal(t, "C024BE91L", channel)
	assert.Equal(t, "1712345678.901234", ts)
}

func TestParseArchiveURL_Malformed(t *testing.T) {
	_, _, err := ParseArchiveURL("https://acme.slack.com/archives/C024BE91L")
	assert.Error(t, err)

	_, _, err = ParseArchiveURL("https://acme.slack.com/archives/C024BE91L/1712345678901234")
	assert.Error(t, err)
}

func TestGetThread(t *testing.T) {
	userInfoCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/conversations.replies":
			assert.Equal(t, "C024BE91L", r.URL.Query().Get("channel"))
			assert.Equal(t, "1712345678.901234", r.URL.Query().Get("ts"))
			fmt.Fprint(w, `{
				"ok": true,
				"messages": [
					{
						"user": "U123",
						"text": "<@U456> the gateway at <https://grafana.acme.io/d/abc|dashboard> is red",
						"ts": "1712345678.901234"
					},
					{
						"user": "U123",
						"text": "uploading evidence",
						"ts": "1712345700.000100",
						"files": [
							{"mimetype": "image/png", "name": "error_console.png", "title": "error_console.png", "url_private": "https://files.slack.com/err.png", "thumb_360": "https://files.slack.com/err_360.png"},
							{"mimetype": "image/png", "name": "diagram.png", "title": "cluster diagram", "url_private": "https://files.slack.com/diagram.png"},
							{"mimetype": "application/pdf", "name": "postmortem.pdf", "title": "postmortem", "url_private": "https://files.slack.com/pm.pdf"},
							{"mimetype": "application/zip", "name": "bundle.zip", "url_private": "https://files.slack.com/bundle.zip"}
						],
						"blocks": [
							{"type": "rich_text", "elements": [
								{"type": "rich_text_preformatted", "elements": [{"type": "text", "text": "kubectl rollout restart deploy/billing"}]}
							]}
						]
					}
				]
			}`)
		case "/users.info":
			userInfoCalls++
			fmt.Fprint(w, `{"ok": true, "user": {"real_name": "Priya Sharma", "name": "priya"}}`)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient("xoxb-test", server.URL)
	thread := client.GetThread(context.Background(), "https://acme.slack.com/archives/C024BE91L/p1712345678901234")

	assert.True(t, thread.Found)
	require.Len(t, thread.Messages, 2)
	assert.Contains(t, thread.Messages[0], "Priya Sharma: @user the gateway at https://grafana.acme.io/d/abc is red")
	assert.True(t, strings.HasPrefix(thread.Messages[0], "["), "messages carry a timestamp prefix")

	assert.Equal(t, 1, userInfoCalls, "username lookups are cached")

	require.Len(t, thread.ErrorScreenshots, 1)
	assert.Equal(t, "https://files.slack.com/err_360.png", thread.ErrorScreenshots[0].ThumbURL)
	require.Len(t, thread.Images, 1)
	assert.Equal(t, "cluster diagram", thread.Images[0].Title)
	require.Len(t, thread.Files, 1, "unsupported mimetypes are dropped")
	assert.Equal(t, "application/pdf", thread.Files[0].Type)

	require.Len(t, thread.CodeSnippets, 1)
	assert.Equal(t, "kubectl rollout restart deploy/billing", thread.CodeSnippets[0].Code)
	assert.Equal(t, "Priya Sharma", thread.CodeSnippets[0].User)

	require.NotEmpty(t, thread.ConsoleLinks)
	assert.Equal(t, "Grafana", thread.ConsoleLinks[0].Type)
}

func TestGetThread_EmptyURL(t *testing.T) {
	client := NewClient("xoxb-test", "http://unused.invalid")
	thread := client.GetThread(context.Background(), "")

	assert.False(t, thread.Found)
	assert.NotNil(t, thread.Messages)
	assert.NotNil(t, thread.Images)
	assert.Empty(t, thread.Messages)
}

func TestGetThread_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": false, "error": "channel_not_found"}`)
	}))
	defer server.Close()

	client := NewClient("xoxb-test", server.URL)
	thread := client.GetThread(context.Background(), "https://acme.slack.com/archives/C024BE91L/p1712345678901234")

	assert.False(t, thread.Found)
	assert.Empty(t, thread.Messages)
}

func TestCleanMessageText(t *testing.T) {
	assert.Equal(t, "@user please check #ops-alerts", cleanMessageText("<@U02ABCDEF> please   check <#C987ZYX|ops-alerts>"))
	assert.Equal(t, "see https://example.com/page", cleanMessageText("see <https://example.com/page|this page>"))

	long := cleanMessageText(strings.Repeat("a", 1500))
	assert.Len(t, long, 1000)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestCleanMessageText_MultiByteCap(t *testing.T) {
	long := cleanMessageText(strings.Repeat("ñ", 1200))

	assert.True(t, utf8.ValidString(long))
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.Len(t, []rune(long), 1000)
}

func TestExtractConsoleLinks_TypedPatterns(t *testing.T) {
	links := extractConsoleLinks("logs at https://app.datadoghq.com/logs?query=billing and https://grafana.acme.io/d/abc")

	types := make(map[string]bool)
	for _, link := range links {
		types[link.Type] = true
	}
	assert.True(t, types["DataDog"])
	assert.True(t, types["Grafana"])
}

func TestUsernameLookupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": false, "error": "user_not_found"}`)
	}))
	defer server.Close()

	client := NewClient("xoxb-test", server.URL)
	assert.Equal(t, "User_Z999", client.username(context.Background(), "U0ABZ999"))
}
