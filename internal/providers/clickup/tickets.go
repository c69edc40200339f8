package clickup

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rcareport/pkg/models"
)

// Tasks arrive in pages of up to 100; a shorter page is the last one.
const taskPageSize = 100

// skipListKeywords mark lists that hold internal work rather than customer
// tickets. Matching is substring on the lowercased list name.
var skipListKeywords = []string{"infra", "internal", "facets", "test"}

// completedStatuses are the workflow states that count as done or closed,
// compared against the upper-cased status name.
var completedStatuses = map[string]bool{
	"DUPLICATE":           true,
	"EXTERNAL LIMITATION": true,
	"CUSTOMER SIDE FIX":   true,
	"INVALID":             true,
	"NOT REPRODUCIBLE":    true,
	"AS DESIGNED":         true,
	"CAN'T FIX":           true,
	"COMPLETE":            true,
}

type folderResponse struct {
	Lists []listJSON `json:"lists"`
}

type listJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tasksResponse struct {
	Tasks    []taskJSON `json:"tasks"`
	LastPage bool       `json:"last_page"`
}

type taskJSON struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	URL         string         `json:"url"`
	Description string         `json:"description"`
	Status      statusJSON     `json:"status"`
	DateCreated string         `json:"date_created"`
	DateClosed  string         `json:"date_closed"`
	DateDone    string         `json:"date_done"`
	Assignees   []assigneeJSON `json:"assignees"`
	Tags        []tagJSON      `json:"tags"`
}

type statusJSON struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

type assigneeJSON struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type tagJSON struct {
	Name string `json:"name"`
}

// FetchTickets walks every customer list in the folder and returns the
// tickets created inside [start, end], keyed by customer (list) name.
// Closed and completed tickets are included. A list that fails to fetch is
// logged and skipped so one bad list cannot sink the whole report.
func (c *Client) FetchTickets(ctx context.Context, folderID string, start, end time.Time) (map[string][]models.Ticket, error) {
	var folder folderResponse
	if err := c.get(ctx, "/folder/"+folderID, nil, &folder); err != nil {
		return nil, fmt.Errorf("cannot access folder %s: %w", folderID, err)
	}

	log.Info().Int("lists", len(folder.Lists)).Msg("Fetching tickets from customer lists")

	windowEnd := end.Add(24 * time.Hour)
	byCustomer := make(map[string][]models.Ticket)

	for _, list := range folder.Lists {
		if skipList(list.Name) {
			log.Debug().Str("list", list.Name).Msg("Skipping internal list")
			continue
		}

		tasks, err := c.listTasks(ctx, list.ID, start, windowEnd)
		if err != nil {
			log.Warn().Err(err).Str("list", list.Name).Msg("Failed to fetch tasks for list")
			continue
		}

		for _, task := range tasks {
			created := parseMillis(task.DateCreated)
			if created.IsZero() || created.Before(start) || created.After(windowEnd) {
				continue
			}
			byCustomer[list.Name] = append(byCustomer[list.Name], toTicket(task, list.Name, created))
		}

		if n := len(byCustomer[list.Name]); n > 0 {
			log.Debug().Str("list", list.Name).Int("tickets", n).Msg("List processed")
		}
	}

	return byCustomer, nil
}

func skipList(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range skipListKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// listTasks pages through all tasks of one list created inside the window.
func (c *Client) listTasks(ctx context.Context, listID string, start, end time.Time) ([]taskJSON, error) {
	var all []taskJSON

	for page := 0; ; page++ {
		query := url.Values{
			"archived":        {"false"},
			"page":            {strconv.Itoa(page)},
			"order_by":        {"created"},
			"reverse":         {"true"},
			"subtasks":        {"false"},
			"include_closed":  {"true"},
			"date_created_gt": {strconv.FormatInt(start.UnixMilli(), 10)},
			"date_created_lt": {strconv.FormatInt(end.UnixMilli(), 10)},
		}

		var resp tasksResponse
		if err := c.get(ctx, "/list/"+listID+"/task", query, &resp); err != nil {
			return nil, err
		}
		if len(resp.Tasks) == 0 {
			break
		}

		all = append(all, resp.Tasks...)

		if resp.LastPage || len(resp.Tasks) < taskPageSize {
			break
		}
	}

	return all, nil
}

func toTicket(task taskJSON, customer string, created time.Time) models.Ticket {
	statusName := task.Status.Status
	if statusName == "" {
		statusName = "Unknown"
	}
	completed := isCompleted(statusName, task.Status.Type)

	ticket := models.Ticket{
		ID:          task.ID,
		Title:       orDefault(task.Name, "No title"),
		URL:         task.URL,
		Description: task.Description,
		Status:      statusName,
		StatusType:  task.Status.Type,
		IsCompleted: completed,
		Customer:    customer,
		Date:        created.Format("2006-01-02"),
		CreatedTime: created.Format("15:04"),
		Owner:       "Unassigned",
	}

	if len(task.Assignees) > 0 && task.Assignees[0].Username != "" {
		ticket.Owner = task.Assignees[0].Username
	}
	for _, tag := range task.Tags {
		if tag.Name != "" {
			ticket.Tags = append(ticket.Tags, tag.Name)
		}
	}

	if completed {
		closedMillis := task.DateClosed
		if closedMillis == "" {
			closedMillis = task.DateDone
		}
		if closed := parseMillis(closedMillis); !closed.IsZero() {
			ticket.DateClosed = closed.Format("2006-01-02 15:04")
			ticket.TimeToResolution = humanizeResolution(closed.Sub(created))
		}
	}

	return ticket
}

// isCompleted classifies a workflow status as done/closed. The status name
// wins over the platform status type so custom "done" states map correctly.
func isCompleted(statusName, statusType string) bool {
	if completedStatuses[strings.ToUpper(statusName)] {
		return true
	}
	if statusType == "closed" || statusType == "done" {
		return true
	}
	switch strings.ToLower(statusName) {
	case "complete", "closed", "done", "resolved":
		return true
	}
	return false
}

func humanizeResolution(d time.Duration) string {
	hours := int(d.Hours())
	if hours < 24 {
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d days", hours/24)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
