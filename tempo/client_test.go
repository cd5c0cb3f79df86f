package tempo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestHTTPClient_WorklogsPaginatesWithBearerToken(t *testing.T) {
	t.Parallel()

	all := []Worklog{
		{TempoWorklogID: 1, Issue: Issue{ID: 10001}, TimeSpentSeconds: 3600, StartDate: "2026-03-02", StartTime: "09:00:00"},
		{TempoWorklogID: 2, Issue: Issue{ID: 10002, Key: "PROJ-2"}, TimeSpentSeconds: 1800, StartDate: "2026-03-02"},
		{TempoWorklogID: 3, Issue: Issue{ID: 10001}, TimeSpentSeconds: 900, StartDate: "2026-03-03", StartTime: "13:30:00"},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tempo-secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if r.URL.Path != "/4/worklogs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("from") != "2026-03-01" || query.Get("to") != "2026-03-31" {
			t.Errorf("unexpected range %s", r.URL.RawQuery)
		}
		offset, _ := strconv.Atoi(query.Get("offset"))
		limit, _ := strconv.Atoi(query.Get("limit"))
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		page := worklogPage{Metadata: pageMetadata{Count: end - offset, Offset: offset, Limit: limit}, Results: all[offset:end]}
		if end < len(all) {
			page.Metadata.Next = "next-page"
		}
		writeJSON(t, w, page)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, APIToken: "tempo-secret", PageSize: 2})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	worklogs, err := client.Worklogs(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("worklogs: %v", err)
	}
	if len(worklogs) != 3 {
		t.Fatalf("expected 3 worklogs over two pages, got %d", len(worklogs))
	}
	if worklogs[2].TempoWorklogID != 3 {
		t.Fatalf("unexpected order: %+v", worklogs)
	}
}

func TestHTTPClient_ResolveIssuesCachesLookups(t *testing.T) {
	t.Parallel()

	var lookups atomic.Int32
	jira := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "dev@example.com" || pass != "jira-secret" {
			t.Errorf("unexpected jira auth %q %q %v", user, pass, ok)
		}
		if r.URL.Query().Get("fields") != "project" {
			t.Errorf("unexpected fields query %s", r.URL.RawQuery)
		}
		switch r.URL.Path {
		case "/rest/api/3/issue/10001":
			writeJSON(t, w, map[string]any{"key": "PROJ-1", "fields": map[string]any{"project": map[string]any{"key": "PROJ", "name": "Platform"}}})
		default:
			http.Error(w, `{"errorMessages":["Issue does not exist"]}`, http.StatusNotFound)
		}
	}))
	defer jira.Close()

	client, err := NewClient(ClientConfig{
		BaseURL:      "https://tempo.example.com",
		APIToken:     "tempo-secret",
		JiraBaseURL:  jira.URL,
		JiraEmail:    "dev@example.com",
		JiraAPIToken: "jira-secret",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	worklogs := []Worklog{
		{TempoWorklogID: 1, Issue: Issue{ID: 10001}},
		{TempoWorklogID: 2, Issue: Issue{ID: 10001}},
		{TempoWorklogID: 3, Issue: Issue{ID: 99999}},
		{TempoWorklogID: 4, Issue: Issue{ID: 10003, Key: "PROJ-3", ProjectName: "Known"}},
	}

	failed := client.ResolveIssues(context.Background(), worklogs)
	if len(failed) != 1 || failed[0] != 99999 {
		t.Fatalf("expected one failed lookup, got %v", failed)
	}
	if lookups.Load() != 2 {
		t.Fatalf("expected 2 jira lookups, got %d", lookups.Load())
	}
	for _, i := range []int{0, 1} {
		if worklogs[i].Issue.Key != "PROJ-1" || worklogs[i].Issue.ProjectName != "Platform" {
			t.Fatalf("worklog %d not resolved: %+v", i, worklogs[i].Issue)
		}
	}
	if worklogs[2].Issue.Key != "" {
		t.Fatalf("failed lookup must leave issue untouched: %+v", worklogs[2].Issue)
	}
}

func TestHTTPClient_ResolveIssuesWithoutJira(t *testing.T) {
	t.Parallel()

	client, err := NewClient(ClientConfig{APIToken: "tempo-secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	worklogs := []Worklog{{Issue: Issue{ID: 1}}}
	if failed := client.ResolveIssues(context.Background(), worklogs); failed != nil {
		t.Fatalf("expected no lookups without jira, got %v", failed)
	}
}

func TestHTTPClient_PingAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, APIToken: "expired"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Ping(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Body != "token expired" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestWorklog_Started(t *testing.T) {
	t.Parallel()

	got, err := Worklog{StartDate: "2026-03-03", StartTime: "13:30:00"}.Started()
	if err != nil {
		t.Fatalf("started: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 3, 13, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", got)
	}

	midnight, err := Worklog{StartDate: "2026-03-03"}.Started()
	if err != nil || midnight.Hour() != 0 {
		t.Fatalf("expected midnight, got %s (%v)", midnight, err)
	}

	if _, err := (Worklog{StartDate: "03/03/2026"}).Started(); err == nil {
		t.Fatalf("expected parse error")
	}
}
