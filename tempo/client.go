package tempo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL  = "https://api.tempo.io"
	dayLayout       = "2006-01-02"
	defaultPageSize = 1000
)

// Client defines the Tempo v4 operations used for sync.
type Client interface {
	Ping(ctx context.Context) error
	Worklogs(ctx context.Context, from, to time.Time) ([]Worklog, error)
	ResolveIssues(ctx context.Context, worklogs []Worklog) []int64
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL  string
	APIToken string
	// Jira credentials enable issue key and project lookups. Leave blank to skip.
	JiraBaseURL  string
	JiraEmail    string
	JiraAPIToken string
	Timeout      time.Duration
	PageSize     int
}

type HTTPClient struct {
	baseURL      string
	httpClient   httpDoer
	jiraBaseURL  string
	jiraEmail    string
	jiraAPIToken string
	jiraClient   httpDoer
	pageSize     int
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL, DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	apiToken := strings.TrimSpace(cfg.APIToken)
	if apiToken == "" {
		return nil, errors.New("tempo api token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	base := &http.Client{Timeout: timeout}
	authCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	bearer := oauth2.NewClient(authCtx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiToken, TokenType: "Bearer"}))
	bearer.Timeout = timeout

	client := &HTTPClient{
		baseURL:    baseURL,
		httpClient: bearer,
		jiraClient: base,
		pageSize:   cfg.PageSize,
	}
	if client.pageSize <= 0 {
		client.pageSize = defaultPageSize
	}

	if strings.TrimSpace(cfg.JiraBaseURL) != "" {
		jiraBaseURL, err := normalizeBaseURL(cfg.JiraBaseURL, "")
		if err != nil {
			return nil, err
		}
		client.jiraBaseURL = jiraBaseURL
		client.jiraEmail = strings.TrimSpace(cfg.JiraEmail)
		client.jiraAPIToken = strings.TrimSpace(cfg.JiraAPIToken)
	}

	return client, nil
}

func normalizeBaseURL(raw, fallback string) (string, error) {
	baseURL := strings.TrimSpace(raw)
	if baseURL == "" {
		baseURL = fallback
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", raw)
	}
	return baseURL, nil
}

// Issue references a Jira issue. Tempo v4 only guarantees ID; Key and ProjectName
// are filled by older payloads or by ResolveIssues.
type Issue struct {
	ID          int64  `json:"id"`
	Key         string `json:"key,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
}

type Author struct {
	AccountID string `json:"accountId"`
}

type Worklog struct {
	TempoWorklogID   int64  `json:"tempoWorklogId"`
	Issue            Issue  `json:"issue"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	StartDate        string `json:"startDate"`
	StartTime        string `json:"startTime"`
	Description      string `json:"description"`
	Comment          string `json:"comment,omitempty"`
	Author           Author `json:"author"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// Started combines StartDate and StartTime as UTC. A missing time means midnight.
func (w Worklog) Started() (time.Time, error) {
	value := strings.TrimSpace(w.StartDate)
	clock := strings.TrimSpace(w.StartTime)
	if clock == "" {
		clock = "00:00:00"
	}
	parsed, err := time.Parse(dayLayout+" 15:04:05", value+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse worklog %d start %q %q: %w", w.TempoWorklogID, w.StartDate, w.StartTime, err)
	}
	return parsed.UTC(), nil
}

type pageMetadata struct {
	Count  int    `json:"count"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Next   string `json:"next"`
}

type worklogPage struct {
	Metadata pageMetadata `json:"metadata"`
	Results  []Worklog    `json:"results"`
}

// APIError carries the upstream status and body of a failed request.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tempo request %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, c.httpClient, c.baseURL, "/4/globalconfiguration", nil, nil, nil)
}

// Worklogs pages through /4/worklogs until the metadata has no next link.
// to is exclusive; Tempo reads its "to" day inclusively, so the last sent day is to-1.
func (c *HTTPClient) Worklogs(ctx context.Context, from, to time.Time) ([]Worklog, error) {
	lastDay := to.AddDate(0, 0, -1)
	if lastDay.Before(from) {
		lastDay = from
	}

	out := make([]Worklog, 0, c.pageSize)
	offset := 0
	for {
		query := url.Values{}
		query.Set("from", from.Format(dayLayout))
		query.Set("to", lastDay.Format(dayLayout))
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		var page worklogPage
		if err := c.doJSON(ctx, c.httpClient, c.baseURL, "/4/worklogs", query, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Results...)

		if strings.TrimSpace(page.Metadata.Next) == "" || len(page.Results) == 0 {
			break
		}
		offset += len(page.Results)
	}
	return out, nil
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Project struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"project"`
	} `json:"fields"`
}

// ResolveIssues fills Issue.Key and Issue.ProjectName from Jira for every distinct issue
// id that lacks them. Each id is looked up once per call. Failed lookups leave the
// worklog untouched and their ids are returned.
func (c *HTTPClient) ResolveIssues(ctx context.Context, worklogs []Worklog) []int64 {
	if c.jiraBaseURL == "" {
		return nil
	}

	type resolved struct {
		key     string
		project string
		ok      bool
	}
	cache := make(map[int64]resolved)
	failed := make([]int64, 0)

	for i := range worklogs {
		issue := &worklogs[i].Issue
		if issue.ID == 0 || (issue.Key != "" && issue.ProjectName != "") {
			continue
		}

		hit, seen := cache[issue.ID]
		if !seen {
			var out jiraIssue
			query := url.Values{}
			query.Set("fields", "project")
			endpoint := "/rest/api/3/issue/" + strconv.FormatInt(issue.ID, 10)
			err := c.doJSON(ctx, c.jiraClient, c.jiraBaseURL, endpoint, query, c.setJiraAuth, &out)
			hit = resolved{key: out.Key, project: out.Fields.Project.Name, ok: err == nil && out.Key != ""}
			cache[issue.ID] = hit
			if !hit.ok {
				failed = append(failed, issue.ID)
			}
		}
		if !hit.ok {
			continue
		}
		if issue.Key == "" {
			issue.Key = hit.key
		}
		if issue.ProjectName == "" {
			issue.ProjectName = hit.project
		}
	}
	return failed
}

func (c *HTTPClient) setJiraAuth(req *http.Request) {
	if c.jiraEmail != "" || c.jiraAPIToken != "" {
		req.SetBasicAuth(c.jiraEmail, c.jiraAPIToken)
	}
}

func (c *HTTPClient) doJSON(ctx context.Context, doer httpDoer, baseURL, endpointPath string, query url.Values, decorate func(*http.Request), out any) error {
	target := baseURL + endpointPath
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request GET %s: %w", endpointPath, err)
	}
	req.Header.Set("Accept", "application/json")
	if decorate != nil {
		decorate(req)
	}

	resp, err := doer.Do(req)
	if err != nil {
		return fmt.Errorf("request GET %s failed: %w", endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Method:     http.MethodGet,
			Path:       endpointPath,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(responseBody)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response GET %s: %w", endpointPath, err)
	}
	return nil
}
