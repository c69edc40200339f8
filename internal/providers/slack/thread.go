package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rcareport/pkg/models"
)

const (
	threadReplyLimit = 200
	maxMessageLength = 1000
	linkContextChars = 100
)

var (
	userMention    = regexp.MustCompile(`<@U[A-Z0-9]+>`)
	channelMention = regexp.MustCompile(`<#C[A-Z0-9]+\|([^>]+)>`)
	wrappedURL     = regexp.MustCompile(`<(https?://[^|>]+)(?:\|[^>]+)?>`)
)

// consolePatterns map cloud console and dashboard URLs to a display type.
// The generic pattern goes last so the specific ones win.
var consolePatterns = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`(?i)https://[^/]*console\.aws\.amazon\.com[^\s<>"{}|\\^` + "`" + `\[\]]+`), "AWS Console"},
	{regexp.MustCompile(`(?i)https://console\.cloud\.google\.com[^\s<>"{}|\\^` + "`" + `\[\]]+`), "GCP Console"},
	{regexp.MustCompile(`(?i)https://portal\.azure\.com[^\s<>"{}|\\^` + "`" + `\[\]]+`), "Azure Portal"},
	{regexp.MustCompile(`(?i)https://[^/]*kubernetes[^\s<>"{}|\\^` + "`" + `\[\]]*dashboard[^\s<>"{}|\\^` + "`" + `\[\]]+`), "K8s Dashboard"},
	{regexp.MustCompile(`(?i)https://[^/]*grafana[^\s<>"{}|\\^` + "`" + `\[\]]+`), "Grafana"},
	{regexp.MustCompile(`(?i)https://app\.datadoghq[^\s<>"{}|\\^` + "`" + `\[\]]+`), "DataDog"},
	{regexp.MustCompile(`(?i)https://[^/]*newrelic[^\s<>"{}|\\^` + "`" + `\[\]]+`), "New Relic"},
	{regexp.MustCompile(`(?i)https://[^/]*(?:console|dashboard|monitor|portal|admin)[^\s<>"{}|\\^` + "`" + `\[\]]+`), "Console/Dashboard"},
}

// errorScreenshotKeywords in an image's name or title mark it as an error
// screenshot rather than a plain image.
var errorScreenshotKeywords = []string{"error", "issue", "bug", "fail", "exception", "console", "log"}

// keptFileTypes are the non-image mimetypes worth carrying into the report.
var keptFileTypes = map[string]bool{
	"text/plain":       true,
	"application/json": true,
	"text/csv":         true,
	"application/pdf":  true,
}

type repliesResponse struct {
	Messages []messageJSON `json:"messages"`
}

type messageJSON struct {
	User   string      `json:"user"`
	Text   string      `json:"text"`
	TS     string      `json:"ts"`
	Files  []fileJSON  `json:"files"`
	Blocks []blockJSON `json:"blocks"`
}

type fileJSON struct {
	Mimetype   string      `json:"mimetype"`
	Name       string      `json:"name"`
	Title      string      `json:"title"`
	URLPrivate string      `json:"url_private"`
	Permalink  string      `json:"permalink"`
	Thumb360   string      `json:"thumb_360"`
	Thumb480   string      `json:"thumb_480"`
	Timestamp  json.Number `json:"timestamp"`
	Size       int64       `json:"size"`
}

type blockJSON struct {
	Type     string        `json:"type"`
	Elements []elementJSON `json:"elements"`
}

type elementJSON struct {
	Type     string        `json:"type"`
	Text     string        `json:"text"`
	Elements []elementJSON `json:"elements"`
}

// ParseArchiveURL splits a thread permalink into the channel ID and the
// dotted API timestamp ("p1712345678901234" becomes "1712345678.901234").
func ParseArchiveURL(archiveURL string) (channel, ts string, err error) {
	parts := strings.Split(strings.TrimRight(archiveURL, "/"), "/")
	if len(parts) < 6 {
		return "", "", fmt.Errorf("not a thread permalink: %s", archiveURL)
	}
	channel = parts[len(parts)-2]
	raw := parts[len(parts)-1]
	if !strings.HasPrefix(raw, "p") || len(raw) <= 11 {
		return "", "", fmt.Errorf("malformed thread timestamp: %s", raw)
	}
	raw = raw[1:]
	return channel, raw[:10] + "." + raw[10:], nil
}

// GetThread fetches the full reply chain behind an archive permalink and
// returns the cleaned messages, categorized media, console links and code
// snippets. Any failure, including an empty URL, yields the empty thread
// shape with Found=false rather than an error: a missing thread degrades
// the analysis, it does not abort the ticket.
func (c *Client) GetThread(ctx context.Context, archiveURL string) models.ChatThread {
	thread := models.EmptyChatThread()
	if archiveURL == "" {
		return thread
	}

	channel, ts, err := ParseArchiveURL(archiveURL)
	if err != nil {
		log.Warn().Err(err).Msg("Cannot parse chat thread URL")
		return thread
	}

	params := url.Values{
		"channel": {channel},
		"ts":      {ts},
		"limit":   {strconv.Itoa(threadReplyLimit)},
	}
	var resp repliesResponse
	if err := c.call(ctx, "conversations.replies", params, &resp); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("Failed to fetch thread replies")
		return thread
	}

	for _, msg := range resp.Messages {
		user := "Unknown"
		if msg.User != "" {
			user = c.username(ctx, msg.User)
		}

		timeStr := formatMessageTS(msg.TS)

		if text := strings.TrimSpace(msg.Text); text != "" {
			clean := cleanMessageText(text)
			if timeStr != "" {
				thread.Messages = append(thread.Messages, fmt.Sprintf("[%s] %s: %s", timeStr, user, clean))
			} else {
				thread.Messages = append(thread.Messages, fmt.Sprintf("[%s]: %s", user, clean))
			}
			thread.ConsoleLinks = append(thread.ConsoleLinks, extractConsoleLinks(text)...)
		}

		for _, file := range msg.Files {
			categorizeFile(file, user, &thread)
		}

		for _, snippet := range extractCodeSnippets(msg.Blocks) {
			thread.CodeSnippets = append(thread.CodeSnippets, models.CodeSnippet{
				Code:      snippet,
				User:      user,
				Timestamp: timeStr,
			})
		}
	}

	thread.Found = len(thread.Messages) > 0
	log.Debug().
		Int("messages", len(thread.Messages)).
		Int("images", len(thread.Images)).
		Int("snippets", len(thread.CodeSnippets)).
		Msg("Chat thread fetched")

	return thread
}

// formatMessageTS renders a dotted API timestamp as "MM/DD HH:MM".
func formatMessageTS(ts string) string {
	if ts == "" {
		return ""
	}
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return ""
	}
	return time.Unix(int64(seconds), 0).Format("01/02 15:04")
}

// cleanMessageText normalizes chat markup: user mentions become @user,
// channel mentions keep their name, wrapped URLs lose their label,
// whitespace collapses, and very long messages are capped.
func cleanMessageText(text string) string {
	text = userMention.ReplaceAllString(text, "@user")
	text = channelMention.ReplaceAllString(text, "#$1")
	text = wrappedURL.ReplaceAllString(text, "$1")
	text = strings.Join(strings.Fields(text), " ")

	if runes := []rune(text); len(runes) > maxMessageLength {
		text = string(runes[:maxMessageLength-3]) + "..."
	}
	return text
}

// categorizeFile sorts one shared file into images, error screenshots or
// kept files. Anything else is dropped.
func categorizeFile(file fileJSON, user string, thread *models.ChatThread) {
	fileURL := file.URLPrivate
	if fileURL == "" {
		fileURL = file.Permalink
	}
	thumb := file.Thumb360
	if thumb == "" {
		thumb = file.Thumb480
	}
	title := file.Title
	if title == "" {
		title = file.Name
	}

	info := models.ChatFile{
		Title:     title,
		Name:      file.Name,
		URL:       fileURL,
		ThumbURL:  thumb,
		User:      user,
		Timestamp: file.Timestamp.String(),
		Size:      file.Size,
	}

	switch {
	case isImage(file):
		info.Type = "image"
		if looksLikeErrorScreenshot(file) {
			thread.ErrorScreenshots = append(thread.ErrorScreenshots, info)
		} else {
			thread.Images = append(thread.Images, info)
		}
	case keptFileTypes[file.Mimetype]:
		info.Type = file.Mimetype
		thread.Files = append(thread.Files, info)
	}
}

func isImage(file fileJSON) bool {
	if strings.HasPrefix(file.Mimetype, "image/") {
		return true
	}
	lower := strings.ToLower(file.Name)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

func looksLikeErrorScreenshot(file fileJSON) bool {
	name := strings.ToLower(file.Name)
	title := strings.ToLower(file.Title)
	for _, keyword := range errorScreenshotKeywords {
		if strings.Contains(name, keyword) || strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

// extractConsoleLinks pulls console/dashboard URLs out of raw message text
// with a short context prefix.
func extractConsoleLinks(text string) []models.ConsoleLink {
	context := text
	if runes := []rune(context); len(runes) > linkContextChars {
		context = string(runes[:linkContextChars])
	}

	var links []models.ConsoleLink
	for _, pattern := range consolePatterns {
		for _, match := range pattern.re.FindAllString(text, -1) {
			clean := strings.TrimSuffix(strings.TrimSpace(match), ">")
			links = append(links, models.ConsoleLink{
				URL:     clean,
				Type:    pattern.kind,
				Source:  "slack",
				Context: context,
			})
		}
	}
	return links
}

// extractCodeSnippets walks rich-text blocks collecting preformatted runs.
func extractCodeSnippets(blocks []blockJSON) []string {
	var snippets []string
	for _, block := range blocks {
		if block.Type != "rich_text" {
			continue
		}
		for _, element := range block.Elements {
			if element.Type == "rich_text_preformatted" {
				if code := joinElementText(element.Elements); code != "" {
					snippets = append(snippets, code)
				}
				continue
			}
			for _, inner := range element.Elements {
				if inner.Type == "rich_text_preformatted" {
					if code := joinElementText(inner.Elements); code != "" {
						snippets = append(snippets, code)
					}
				}
			}
		}
	}
	return snippets
}

func joinElementText(elements []elementJSON) string {
	var b strings.Builder
	for _, element := range elements {
		b.WriteString(element.Text)
	}
	return b.String()
}
