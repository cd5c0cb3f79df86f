package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"timeboard/tempo"
	"timeboard/worklog"
)

const tempoUnknownIssue = "Unknown Issue"

type TempoProvider struct {
	Base
	client tempo.Client
}

// NewTempo builds the Tempo provider. A nil client means no API token is configured.
func NewTempo(client tempo.Client, options Options) *TempoProvider {
	return &TempoProvider{
		Base:   newBase("tempo", worklog.SourceTempo, options),
		client: client,
	}
}

func (p *TempoProvider) Configured() bool {
	return p.client != nil
}

func (p *TempoProvider) Validate(ctx context.Context) bool {
	if p.client == nil {
		return false
	}
	if err := p.client.Ping(ctx); err != nil {
		p.logger.Info("validation failed", "error", err)
		return false
	}
	return true
}

func (p *TempoProvider) fetch(ctx context.Context, from, to time.Time) ([]tempo.Worklog, error) {
	worklogs, err := p.client.Worklogs(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if failed := p.client.ResolveIssues(ctx, worklogs); len(failed) > 0 {
		p.logger.Warn("issue lookups failed", "count", len(failed), "issueIds", failed)
	}
	return worklogs, nil
}

func (p *TempoProvider) Sync(ctx context.Context, options SyncOptions) (SyncResult, error) {
	if p.client == nil {
		return SyncResult{}, fmt.Errorf("sync %s: tempo api token: %w", p.name, ErrMissingCredential)
	}

	records, cached, err := loadOrFetch(ctx, &p.Base, options, p.fetch)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync %s: %w", p.name, err)
	}

	details := TempoDetails{}
	count := 0
	for _, record := range records {
		entry, resolved, err := transformTempo(record)
		if err != nil {
			p.logger.Warn("skipping worklog", "worklogId", record.TempoWorklogID, "issue", issueLabel(record.Issue), "error", err)
			details.RowsSkipped++
			continue
		}
		if resolved {
			details.IssueKeysResolved++
		} else {
			details.IssueKeysFallback++
		}

		if _, err := p.store.UpsertEntry(entry); err != nil {
			return SyncResult{}, fmt.Errorf(
				"sync %s: store entry source=%s externalId=%s issue=%s: %w",
				p.name,
				entry.Source,
				worklog.Deref(entry.ExternalID),
				issueLabel(record.Issue),
				err,
			)
		}
		count++
	}

	p.logger.Info("sync finished", "count", count, "cached", cached, "issueKeysResolved", details.IssueKeysResolved, "issueKeysFallback", details.IssueKeysFallback, "rowsSkipped", details.RowsSkipped)
	return SyncResult{
		Provider: p.name,
		Count:    count,
		Cached:   cached,
		Message:  syncMessage(p.name, count, cached),
		Details:  details,
	}, nil
}

// transformTempo maps a worklog and reports whether the issue key was known.
func transformTempo(record tempo.Worklog) (worklog.Entry, bool, error) {
	started, err := record.Started()
	if err != nil {
		return worklog.Entry{}, false, err
	}

	key := strings.TrimSpace(record.Issue.Key)
	projectName := strings.TrimSpace(record.Issue.ProjectName)

	var project string
	switch {
	case key != "" && projectName != "":
		project = key + " - " + projectName
	case key != "":
		project = key
	case record.Issue.ID != 0:
		project = "Issue #" + strconv.FormatInt(record.Issue.ID, 10)
	default:
		project = tempoUnknownIssue
	}

	description := record.Description
	if strings.TrimSpace(description) == "" {
		description = record.Comment
	}

	return worklog.Entry{
		Source:      worklog.SourceTempo,
		ExternalID:  worklog.StringPtr(strconv.FormatInt(record.TempoWorklogID, 10)),
		Date:        started,
		Duration:    float64(record.TimeSpentSeconds) / 3600,
		Project:     worklog.StringPtr(project),
		Description: worklog.StringPtr(description),
	}, key != "", nil
}

func issueLabel(issue tempo.Issue) string {
	if issue.Key != "" {
		return issue.Key
	}
	return "#" + strconv.FormatInt(issue.ID, 10)
}
