// Package report renders the interactive HTML report: one expandable row
// per ticket, grouped by customer, with the synthesized RCA sections,
// reference links, image grid and shared code snippets.
package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rcareport/pkg/models"
)

const (
	maxReferenceLinks = 10
	maxImages         = 10
	maxSnippets       = 3
	maxSnippetLength  = 500
	maxImageTitle     = 30
)

// AnalyzedTicket pairs a fetched ticket with its synthesized RCA record
// and the chat stats used for the row indicators.
type AnalyzedTicket struct {
	Ticket           models.Ticket
	RCA              models.RCARecord
	ChatMessageCount int
	CodeSnippets     []models.CodeSnippet
	AnalysisFailed   bool
}

// TemplateData contains all data needed for the HTML template
type TemplateData struct {
	PeriodName     string
	DateRange      string
	GeneratedTime  string
	UsingAI        bool
	TotalTickets   int
	TotalCompleted int
	CustomerCount  int
	Customers      []CustomerData
}

// CustomerData represents one customer section of the report
type CustomerData struct {
	Name           string
	TicketCount    int
	CompletedCount int
	Tickets        []TicketData
}

// TicketData represents one expandable ticket row
type TicketData struct {
	Index          int
	DetailID       string
	Title          string
	URL            string
	Date           string
	Status         string
	StatusClass    string
	Owner          string
	Customer       string
	TrackerID      string
	ResolutionTime string
	Indicators     []IndicatorData

	Summary         string
	DebugSteps      string
	ResolutionSteps string
	RootCause       string

	ReferenceLinks []string
	Images         []ImageData
	Snippets       []SnippetData
}

// IndicatorData is a small badge next to the ticket title
type IndicatorData struct {
	Class string
	Label string
}

// ImageData is one tile of the attached-images grid
type ImageData struct {
	URL      string
	ThumbURL string
	Title    string
}

// SnippetData is one shared code block
type SnippetData struct {
	User string
	Code string
}

var rowImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}
var gridImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}
var titleDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Prepare converts analyzed tickets grouped by customer into template data.
// Customers are ordered by ticket count, then name, so the busiest sections
// land at the bottom of the report.
func Prepare(byCustomer map[string][]AnalyzedTicket, start, end time.Time, periodName string, usingAI bool) *TemplateData {
	names := make([]string, 0, len(byCustomer))
	for name := range byCustomer {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if len(byCustomer[a]) != len(byCustomer[b]) {
			return len(byCustomer[a]) < len(byCustomer[b])
		}
		return a < b
	})

	data := &TemplateData{
		PeriodName:    periodName,
		DateRange:     start.Format("Jan 02") + " - " + end.Format("Jan 02, 2006"),
		GeneratedTime: time.Now().Format("2006-01-02 15:04:05 MST"),
		UsingAI:       usingAI,
		CustomerCount: len(names),
	}

	for _, name := range names {
		tickets := byCustomer[name]
		customer := CustomerData{Name: name, TicketCount: len(tickets)}

		for i, analyzed := range tickets {
			if analyzed.Ticket.IsCompleted {
				customer.CompletedCount++
			}
			customer.Tickets = append(customer.Tickets, prepareTicket(analyzed, name, i+1))
		}

		data.TotalTickets += customer.TicketCount
		data.TotalCompleted += customer.CompletedCount
		data.Customers = append(data.Customers, customer)
	}

	return data
}

func prepareTicket(analyzed AnalyzedTicket, customer string, index int) TicketData {
	ticket := analyzed.Ticket
	rca := analyzed.RCA

	row := TicketData{
		Index:           index,
		DetailID:        fmt.Sprintf("%s_%d", strings.ReplaceAll(customer, " ", "_"), index),
		Title:           ticket.Title,
		URL:             ticket.URL,
		Date:            ticket.Date,
		Status:          ticket.Status,
		StatusClass:     statusClass(ticket.Status, ticket.IsCompleted),
		Owner:           ticket.Owner,
		Customer:        customer,
		TrackerID:       ticket.ID,
		ResolutionTime:  ticket.TimeToResolution,
		Indicators:      prepareIndicators(analyzed),
		Summary:         rca.Summary,
		DebugSteps:      rca.DebugSteps,
		ResolutionSteps: rca.ResolutionSteps,
		RootCause:       rca.RootCause,
		ReferenceLinks:  prepareReferenceLinks(rca.SupportingMedia.ConsoleLinks),
		Images:          prepareImages(rca.SupportingMedia),
		Snippets:        prepareSnippets(analyzed.CodeSnippets),
	}
	return row
}

// statusClass maps a workflow status onto a badge CSS class.
func statusClass(status string, completed bool) string {
	upper := strings.ToUpper(status)

	if completed {
		switch {
		case strings.Contains(upper, "CUSTOMER SIDE FIX"):
			return "status-customer-fix"
		case strings.Contains(upper, "INVALID"), strings.Contains(upper, "DUPLICATE"):
			return "status-invalid"
		case strings.Contains(upper, "EXTERNAL LIMITATION"), strings.Contains(upper, "CAN'T FIX"):
			return "status-external"
		default:
			return "status-complete"
		}
	}

	switch {
	case strings.Contains(upper, "BLOCKED"):
		return "status-blocked"
	case strings.Contains(upper, "IN PROGRESS"), strings.Contains(upper, "PR"):
		return "status-progress"
	case strings.Contains(upper, "NEEDS CUSTOMER RESPONSE"):
		return "status-waiting"
	case strings.Contains(upper, "QA"), strings.Contains(upper, "TEST"):
		return "status-qa"
	case strings.Contains(upper, "SIGNOFF"), strings.Contains(upper, "RELEASE"):
		return "status-signoff"
	default:
		return "status-open"
	}
}

func prepareIndicators(analyzed AnalyzedTicket) []IndicatorData {
	if analyzed.AnalysisFailed {
		return []IndicatorData{{Class: "no-data-indicator", Label: "Error"}}
	}

	var indicators []IndicatorData
	media := analyzed.RCA.SupportingMedia

	if analyzed.ChatMessageCount > 1 {
		indicators = append(indicators, IndicatorData{Class: "slack-indicator", Label: "Slack"})
	}

	imageCount := len(media.Images) + len(media.ErrorScreenshots)
	for _, att := range media.Attachments {
		if hasExtension(att.URL, rowImageExtensions) {
			imageCount++
		}
	}
	if imageCount > 0 {
		indicators = append(indicators, IndicatorData{Class: "images-indicator", Label: fmt.Sprintf("%d img", imageCount)})
	}

	if n := len(media.ConsoleLinks); n > 0 {
		indicators = append(indicators, IndicatorData{Class: "console-indicator", Label: fmt.Sprintf("%d links", n)})
	}

	if analyzed.Ticket.TimeToResolution != "" {
		indicators = append(indicators, IndicatorData{Class: "resolution-time", Label: analyzed.Ticket.TimeToResolution})
	}

	return indicators
}

func prepareReferenceLinks(links []models.ConsoleLink) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, link := range links {
		if link.URL == "" || seen[link.URL] {
			continue
		}
		seen[link.URL] = true
		urls = append(urls, link.URL)
		if len(urls) >= maxReferenceLinks {
			break
		}
	}
	return urls
}

// prepareImages collects error screenshots first, then plain images, then
// tracker attachments that look like images, capped for the grid.
func prepareImages(media models.MediaBag) []ImageData {
	var images []ImageData

	add := func(item models.MediaItem, fallbackTitle string) {
		if item.URL == "" {
			return
		}
		thumb := item.ThumbURL
		if thumb == "" {
			thumb = item.URL
		}
		title := item.Title
		if title == "" {
			title = fallbackTitle
		}
		images = append(images, ImageData{
			URL:      item.URL,
			ThumbURL: thumb,
			Title:    displayTitle(title, item.Timestamp),
		})
	}

	for _, img := range media.ErrorScreenshots {
		add(img, "Error Screenshot")
	}
	for _, img := range media.Images {
		add(img, "Image")
	}
	for _, att := range media.Attachments {
		if !hasExtension(att.URL, gridImageExtensions) {
			continue
		}
		timestamp := titleDatePattern.FindString(att.Title)
		add(models.MediaItem{URL: att.URL, Title: att.Title, Timestamp: timestamp}, "Attachment")
	}

	if len(images) > maxImages {
		images = images[:maxImages]
	}
	return images
}

func displayTitle(title, timestamp string) string {
	if strings.Contains(title, "Screenshot") && timestamp != "" {
		return "Screenshot " + timestamp
	}
	if runes := []rune(title); len(runes) > maxImageTitle {
		return string(runes[:maxImageTitle-3]) + "..."
	}
	return title
}

func prepareSnippets(snippets []models.CodeSnippet) []SnippetData {
	var out []SnippetData
	for _, snippet := range snippets {
		if len(out) >= maxSnippets {
			break
		}
		code := snippet.Code
		if runes := []rune(code); len(runes) > maxSnippetLength {
			code = string(runes[:maxSnippetLength]) + "..."
		}
		user := snippet.User
		if user == "" {
			user = "Unknown"
		}
		out = append(out, SnippetData{User: user, Code: code})
	}
	return out
}

func hasExtension(url string, extensions []string) bool {
	lower := strings.ToLower(url)
	for _, ext := range extensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
