package extract

import (
	"strings"

	"github.com/rcareport/pkg/models"
)

// Media gathers every displayable artifact for one ticket: chat images and
// error screenshots, chat console links and files, and tracker attachments.
func Media(ticket *models.TicketDetail, thread models.ChatThread) models.MediaBag {
	bag := models.NewMediaBag()

	for _, img := range thread.Images {
		bag.Images = append(bag.Images, chatFileToMedia(img, "Image"))
	}
	for _, img := range thread.ErrorScreenshots {
		bag.ErrorScreenshots = append(bag.ErrorScreenshots, chatFileToMedia(img, "Error Screenshot"))
	}
	bag.ConsoleLinks = append(bag.ConsoleLinks, thread.ConsoleLinks...)
	for _, file := range thread.Files {
		bag.Files = append(bag.Files, chatFileToMedia(file, "File"))
	}

	if ticket != nil {
		for _, att := range ticket.Attachments {
			bag.Attachments = append(bag.Attachments, models.MediaItem{
				URL:    att.URL,
				Title:  defaultTitle(att.Title, "Attachment"),
				Source: "clickup",
			})
		}
	}

	return bag
}

func chatFileToMedia(file models.ChatFile, fallbackTitle string) models.MediaItem {
	thumb := file.ThumbURL
	if thumb == "" {
		thumb = file.URL
	}
	return models.MediaItem{
		URL:       file.URL,
		ThumbURL:  thumb,
		Title:     defaultTitle(file.Title, fallbackTitle),
		Source:    "slack",
		Timestamp: file.Timestamp,
	}
}

func defaultTitle(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}

// Engineers returns the distinct human display names involved in a ticket,
// taken from assignees and comment authors. Names containing "bot" and the
// "Unknown" placeholder are excluded. Order is first-seen.
func Engineers(ticket *models.TicketDetail) []string {
	engineers := []string{}
	if ticket == nil {
		return engineers
	}

	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || name == "Unknown" || seen[name] {
			return
		}
		if strings.Contains(strings.ToLower(name), "bot") {
			return
		}
		seen[name] = true
		engineers = append(engineers, name)
	}

	for _, assignee := range ticket.Assignees {
		if assignee.Username != "" {
			add(assignee.Username)
		} else {
			add(assignee.Name)
		}
	}
	for _, comment := range ticket.Comments {
		add(comment.Author)
	}

	return engineers
}
