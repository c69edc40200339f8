package clickup

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rcareport/pkg/models"
)

// slackThreadPattern matches permalinks to chat threads embedded anywhere
// in ticket text.
var slackThreadPattern = regexp.MustCompile(`https://[^/\s]*slack\.com/archives/[A-Z0-9]+/p[0-9]+`)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp"}

type taskDetailJSON struct {
	taskJSON
	MarkdownDescription string           `json:"markdown_description"`
	CustomFields        []customField    `json:"custom_fields"`
	Attachments         []attachmentJSON `json:"attachments"`
}

type customField struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

type attachmentJSON struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	ThumbnailSmall string `json:"thumbnail_small"`
	Size           int64  `json:"size"`
	Date           string `json:"date"`
}

type commentsResponse struct {
	Comments []commentJSON `json:"comments"`
}

type commentJSON struct {
	ID      string      `json:"id"`
	Comment interface{} `json:"comment"`
	Text    string      `json:"comment_text"`
	User    struct {
		Username string `json:"username"`
	} `json:"user"`
	Date     string `json:"date"`
	Resolved bool   `json:"resolved"`
}

// GetTaskDetail fetches the full task record used for analysis: the task
// itself, its comments flattened and sorted newest-first, its attachments,
// and the linked chat thread URL when one is discoverable. Missing fields
// come back empty rather than failing the ticket.
func (c *Client) GetTaskDetail(ctx context.Context, taskID string) (*models.TicketDetail, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task id is required")
	}

	query := url.Values{
		"include_subtasks":             {"true"},
		"include_markdown_description": {"true"},
	}
	var task taskDetailJSON
	if err := c.get(ctx, "/task/"+taskID, query, &task); err != nil {
		return nil, err
	}

	detail := &models.TicketDetail{
		ID:          task.ID,
		Title:       task.Name,
		Description: task.Description,
		Status:      task.Status.Status,
	}
	for _, a := range task.Assignees {
		detail.Assignees = append(detail.Assignees, models.Assignee{
			Username: a.Username,
			Email:    a.Email,
		})
	}

	comments, err := c.getTaskComments(ctx, taskID)
	if err != nil {
		log.Warn().Err(err).Str("task", taskID).Msg("Failed to fetch comments")
	}
	detail.Comments = comments

	detail.Attachments = convertAttachments(task.Attachments)

	if chatURL := findChatThreadURL(&task, comments); chatURL != "" {
		log.Debug().Str("task", taskID).Str("url", chatURL).Msg("Found linked chat thread")
		detail.ChatThreadURL = chatURL
	}

	return detail, nil
}

// getTaskComments returns the non-empty comments of a task, flattened from
// the nested block structure and sorted newest-first.
func (c *Client) getTaskComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	var resp commentsResponse
	if err := c.get(ctx, "/task/"+taskID+"/comment", nil, &resp); err != nil {
		return nil, err
	}

	var comments []models.Comment
	for _, raw := range resp.Comments {
		text := flattenCommentBlocks(raw.Comment)
		if text == "" {
			text = strings.TrimSpace(raw.Text)
		}
		if text == "" {
			continue
		}

		comment := models.Comment{
			ID:       raw.ID,
			Text:     text,
			Author:   raw.User.Username,
			Date:     formatMillis(raw.Date),
			Resolved: raw.Resolved,
		}
		if match := slackThreadPattern.FindString(text); match != "" {
			comment.ChatURL = match
		}
		comments = append(comments, comment)
	}

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Date > comments[j].Date
	})

	return comments, nil
}

// flattenCommentBlocks reduces the tracker's nested comment structure to a
// single string. Blocks carry plain text fragments, nested "content" lists,
// or code fragments which come out fenced.
func flattenCommentBlocks(data interface{}) string {
	switch v := data.(type) {
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		var parts []string
		for _, block := range v {
			if part := flattenBlock(block); part != "" {
				parts = append(parts, part)
			}
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	case map[string]interface{}:
		return strings.TrimSpace(flattenBlock(v))
	}
	return ""
}

func flattenBlock(block interface{}) string {
	switch b := block.(type) {
	case string:
		return b
	case map[string]interface{}:
		if code, ok := b["code"].(string); ok && code != "" {
			return "```\n" + code + "\n```"
		}
		if text, ok := b["text"].(string); ok {
			return text
		}
		if s, ok := b["string"].(string); ok {
			return s
		}
		if content, ok := b["content"]; ok {
			switch c := content.(type) {
			case string:
				return c
			case []interface{}:
				var parts []string
				for _, item := range c {
					if part := flattenBlock(item); part != "" {
						parts = append(parts, part)
					}
				}
				return strings.Join(parts, " ")
			}
		}
	}
	return ""
}

func convertAttachments(raw []attachmentJSON) []models.Attachment {
	var attachments []models.Attachment
	for _, a := range raw {
		att := models.Attachment{
			ID:      a.ID,
			Title:   orDefault(a.Title, "Attachment"),
			URL:     a.URL,
			Size:    a.Size,
			Date:    formatMillis(a.Date),
			IsImage: isImageFile(a.URL) || isImageFile(a.Title),
			Type:    "file",
		}
		if att.IsImage {
			att.Type = "image"
			att.ThumbnailURL = orDefault(a.ThumbnailSmall, a.URL)
		}
		attachments = append(attachments, att)
	}
	return attachments
}

func isImageFile(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

// findChatThreadURL looks for a chat thread permalink in the description,
// the markdown description, the comments, chat-related custom fields, and
// finally attachment URLs, in that order.
func findChatThreadURL(task *taskDetailJSON, comments []models.Comment) string {
	if match := slackThreadPattern.FindString(task.Description); match != "" {
		return match
	}
	if match := slackThreadPattern.FindString(task.MarkdownDescription); match != "" {
		return match
	}

	for _, comment := range comments {
		if comment.ChatURL != "" {
			return comment.ChatURL
		}
		if match := slackThreadPattern.FindString(comment.Text); match != "" {
			return match
		}
	}

	for _, field := range task.CustomFields {
		name := strings.ToLower(field.Name)
		if !strings.Contains(name, "slack") && !strings.Contains(name, "thread") {
			continue
		}
		value := fmt.Sprintf("%v", field.Value)
		if match := slackThreadPattern.FindString(value); match != "" {
			return match
		}
	}

	for _, att := range task.Attachments {
		if strings.Contains(strings.ToLower(att.Title), "slack") {
			if match := slackThreadPattern.FindString(att.URL); match != "" {
				return match
			}
		}
	}

	return ""
}
