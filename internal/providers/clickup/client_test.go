package clickup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func TestFetchTickets(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.Local)
	created := time.Date(2026, 1, 10, 9, 30, 0, 0, time.Local)
	closed := created.Add(26 * time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pk_test", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/folder/F1":
			fmt.Fprint(w, `{"lists": [
				{"id": "L1", "name": "Acme Corp"},
				{"id": "L2", "name": "Internal Tools"},
				{"id": "L3", "name": "Beta Inc"}
			]}`)
		case "/list/L1/task":
			assert.Equal(t, "true", r.URL.Query().Get("include_closed"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"last_page": true,
				"tasks": []map[string]interface{}{
					{
						"id": "t1", "name": "Gateway 502s", "url": "https://app.example.com/t/t1",
						"status":       map[string]string{"status": "COMPLETE", "type": "closed"},
						"date_created": millis(created),
						"date_closed":  millis(closed),
						"assignees":    []map[string]string{{"username": "priya"}},
					},
					{
						"id": "t2", "name": "Slow dashboards",
						"status":       map[string]string{"status": "IN PROGRESS", "type": "custom"},
						"date_created": millis(created),
					},
					{
						"id": "t3", "name": "Ancient ticket",
						"status":       map[string]string{"status": "OPEN", "type": "open"},
						"date_created": millis(start.Add(-48 * time.Hour)),
					},
				},
			})
		case "/list/L3/task":
			fmt.Fprint(w, `{"tasks": [], "last_page": true}`)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient("pk_test", server.URL)
	byCustomer, err := client.FetchTickets(context.Background(), "F1", start, end)
	require.NoError(t, err)

	require.Contains(t, byCustomer, "Acme Corp")
	assert.NotContains(t, byCustomer, "Internal Tools", "internal lists must be skipped")
	assert.NotContains(t, byCustomer, "Beta Inc", "empty lists produce no entry")

	tickets := byCustomer["Acme Corp"]
	require.Len(t, tickets, 2, "out-of-window tickets are dropped")

	first := tickets[0]
	assert.Equal(t, "Gateway 502s", first.Title)
	assert.True(t, first.IsCompleted)
	assert.Equal(t, "priya", first.Owner)
	assert.Equal(t, "2026-01-10", first.Date)
	assert.Equal(t, "1 days", first.TimeToResolution)

	second := tickets[1]
	assert.False(t, second.IsCompleted)
	assert.Equal(t, "Unassigned", second.Owner)
	assert.Empty(t, second.TimeToResolution)
}

func TestFetchTickets_Pagination(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2026, 2, 28, 0, 0, 0, 0, time.Local)
	created := millis(start.Add(12 * time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/folder/F2":
			fmt.Fprint(w, `{"lists": [{"id": "L1", "name": "Acme"}]}`)
		case "/list/L1/task":
			page := r.URL.Query().Get("page")
			var tasks []map[string]interface{}
			count := taskPageSize
			if page == "1" {
				count = 2
			}
			for i := 0; i < count; i++ {
				tasks = append(tasks, map[string]interface{}{
					"id":           fmt.Sprintf("p%s-%d", page, i),
					"name":         "ticket",
					"status":       map[string]string{"status": "OPEN"},
					"date_created": created,
				})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"tasks": tasks, "last_page": page == "1"})
		}
	}))
	defer server.Close()

	client := NewClient("pk_test", server.URL)
	byCustomer, err := client.FetchTickets(context.Background(), "F2", start, end)
	require.NoError(t, err)
	assert.Len(t, byCustomer["Acme"], taskPageSize+2)
}

func TestGetTaskDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/task/T1":
			fmt.Fprint(w, `{
				"id": "T1",
				"name": "Billing crash loops",
				"description": "Pods restart repeatedly",
				"status": {"status": "IN PROGRESS", "type": "custom"},
				"assignees": [{"username": "priya", "email": "priya@example.com"}],
				"attachments": [
					{"id": "a1", "title": "trace.png", "url": "https://files.example.com/trace.png", "thumbnail_small": "https://files.example.com/trace_small.png"},
					{"id": "a2", "title": "dump.txt", "url": "https://files.example.com/dump.txt"}
				]
			}`)
		case "/task/T1/comment":
			fmt.Fprint(w, `{"comments": [
				{
					"id": "c1",
					"comment": [{"text": "Thread here:"}, {"text": "https://acme.slack.com/archives/C024BE91L/p1712345678901234"}],
					"user": {"username": "priya"},
					"date": "1767950000000"
				},
				{
					"id": "c2",
					"comment": [{"content": [{"text": "Checked the"}, {"text": "gateway logs"}]}, {"code": "kubectl logs billing-7f9"}],
					"user": {"username": "arjun"},
					"date": "1767960000000"
				},
				{
					"id": "c3",
					"comment": [],
					"user": {"username": "ghost"},
					"date": "1767970000000"
				}
			]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient("pk_test", server.URL)
	detail, err := client.GetTaskDetail(context.Background(), "T1")
	require.NoError(t, err)

	assert.Equal(t, "Billing crash loops", detail.Title)
	require.Len(t, detail.Assignees, 1)

	require.Len(t, detail.Comments, 2, "empty comments are dropped")
	assert.Equal(t, "arjun", detail.Comments[0].Author, "comments are sorted newest-first")
	assert.Contains(t, detail.Comments[0].Text, "Checked the gateway logs")
	assert.Contains(t, detail.Comments[0].Text, "```\nkubectl logs billing-7f9\n```")

	assert.Equal(t, "https://acme.slack.com/archives/C024BE91L/p1712345678901234", detail.ChatThreadURL)

	require.Len(t, detail.Attachments, 2)
	assert.True(t, detail.Attachments[0].IsImage)
	assert.Equal(t, "https://files.example.com/trace_small.png", detail.Attachments[0].ThumbnailURL)
	assert.False(t, detail.Attachments[1].IsImage)
}

func TestGetTaskDetail_ChatURLFromDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/task/T2":
			fmt.Fprint(w, `{
				"id": "T2",
				"name": "t",
				"description": "See https://acme.slack.com/archives/C024BE91L/p1712000000000000 for context"
			}`)
		case "/task/T2/comment":
			fmt.Fprint(w, `{"comments": []}`)
		}
	}))
	defer server.Close()

	client := NewClient("pk_test", server.URL)
	detail, err := client.GetTaskDetail(context.Background(), "T2")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.slack.com/archives/C024BE91L/p1712000000000000", detail.ChatThreadURL)
}

func TestGetTaskDetail_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"err": "Token invalid"}`)
	}))
	defer server.Close()

	client := NewClient("bad", server.URL)
	_, err := client.GetTaskDetail(context.Background(), "T1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestIsCompleted(t *testing.T) {
	assert.True(t, isCompleted("COMPLETE", ""))
	assert.True(t, isCompleted("Customer Side Fix", "custom"))
	assert.True(t, isCompleted("weird status", "closed"))
	assert.True(t, isCompleted("Resolved", ""))
	assert.False(t, isCompleted("IN PROGRESS", "custom"))
	assert.False(t, isCompleted("BLOCKED", "open"))
}

func TestSkipList(t *testing.T) {
	assert.True(t, skipList("Infra Requests"))
	assert.True(t, skipList("internal-only"))
	assert.True(t, skipList("Testing Grounds"))
	assert.False(t, skipList("Acme Corp"))
}

func TestHumanizeResolution(t *testing.T) {
	assert.Equal(t, "5 hours", humanizeResolution(5*time.Hour+30*time.Minute))
	assert.Equal(t, "2 days", humanizeResolution(49*time.Hour))
}
