package provider

import (
	"context"
	"errors"

	"timeboard/worklog"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidRange      = errors.New("invalid date range")
)

// Provider pulls entries from one upstream source into the store.
type Provider interface {
	Name() string
	Source() worklog.Source
	// Configured reports whether the credential needed for Sync is present.
	Configured() bool
	Sync(ctx context.Context, options SyncOptions) (SyncResult, error)
	// Validate checks reachability and credentials. It never returns an error.
	Validate(ctx context.Context) bool
	CachePath() string
}

// SyncOptions selects the fetch range. CustomStart and CustomEnd are inclusive
// YYYY-MM-DD days; setting either bypasses the cache for both read and write.
type SyncOptions struct {
	ForceRefresh bool   `json:"forceRefresh"`
	CustomStart  string `json:"customStart"`
	CustomEnd    string `json:"customEnd"`
}

func (o SyncOptions) custom() bool {
	return o.CustomStart != "" || o.CustomEnd != ""
}

type SyncResult struct {
	Provider string  `json:"provider"`
	Count    int     `json:"count"`
	Cached   bool    `json:"cached"`
	Message  string  `json:"message"`
	Details  Details `json:"details,omitempty"`
}

// Details is the source-specific part of a SyncResult: TogglDetails or TempoDetails.
type Details interface {
	details()
}

type TogglDetails struct {
	RunningSkipped   int `json:"runningSkipped"`
	ConflictsSkipped int `json:"conflictsSkipped"`
}

func (TogglDetails) details() {}

type TempoDetails struct {
	IssueKeysResolved int `json:"issueKeysResolved"`
	IssueKeysFallback int `json:"issueKeysFallback"`
	RowsSkipped       int `json:"rowsSkipped"`
}

func (TempoDetails) details() {}
