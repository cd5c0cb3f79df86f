package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"timeboard/storage"
	"timeboard/toggl"
	"timeboard/worklog"
)

const togglNoProject = "No Project"

type TogglProvider struct {
	Base
	client toggl.Client
}

// NewToggl builds the Toggl provider. A nil client means no API token is configured.
func NewToggl(client toggl.Client, options Options) *TogglProvider {
	return &TogglProvider{
		Base:   newBase("toggl", worklog.SourceToggl, options),
		client: client,
	}
}

func (p *TogglProvider) Configured() bool {
	return p.client != nil
}

func (p *TogglProvider) Validate(ctx context.Context) bool {
	if p.client == nil {
		return false
	}
	if _, err := p.client.Me(ctx); err != nil {
		p.logger.Info("validation failed", "error", err)
		return false
	}
	return true
}

func (p *TogglProvider) Sync(ctx context.Context, options SyncOptions) (SyncResult, error) {
	if p.client == nil {
		return SyncResult{}, fmt.Errorf("sync %s: toggl api token: %w", p.name, ErrMissingCredential)
	}

	records, cached, err := loadOrFetch(ctx, &p.Base, options, p.client.TimeEntries)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync %s: %w", p.name, err)
	}

	details := TogglDetails{}
	count := 0
	for _, record := range records {
		if record.Running() {
			details.RunningSkipped++
			continue
		}

		entry := transformToggl(record)
		if _, err := p.store.UpsertEntry(entry); err != nil {
			if errors.Is(err, storage.ErrDuplicateEntry) {
				details.ConflictsSkipped++
				p.logger.Warn("skipping conflicting entry", "externalId", worklog.Deref(entry.ExternalID), "error", err)
				continue
			}
			return SyncResult{}, fmt.Errorf("sync %s: store entry %d: %w", p.name, record.ID, err)
		}
		count++
	}

	p.logger.Info("sync finished", "count", count, "cached", cached, "runningSkipped", details.RunningSkipped)
	return SyncResult{
		Provider: p.name,
		Count:    count,
		Cached:   cached,
		Message:  syncMessage(p.name, count, cached),
		Details:  details,
	}, nil
}

func transformToggl(record toggl.TimeEntry) worklog.Entry {
	project := togglNoProject
	if record.ProjectName != nil && *record.ProjectName != "" {
		project = *record.ProjectName
	}

	return worklog.Entry{
		Source:      worklog.SourceToggl,
		ExternalID:  worklog.StringPtr(strconv.FormatInt(record.ID, 10)),
		Date:        record.Start.UTC(),
		Duration:    float64(record.Duration) / 3600,
		Project:     worklog.StringPtr(project),
		Description: worklog.StringPtr(record.Description),
	}
}
