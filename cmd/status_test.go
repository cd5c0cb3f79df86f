package cmd

import (
	"strings"
	"testing"
	"time"

	"timeboard/storage"
	"timeboard/worklog"
)

func TestRenderProviderTable(t *testing.T) {
	reachable := false
	rendered := renderProviderTable([]providerRow{
		{name: "toggl", configured: true, reachable: &reachable, count: 4, lastSync: time.Date(2026, 1, 22, 1, 30, 0, 0, time.UTC), hasSync: true},
		{name: "tempo"},
	}, time.FixedZone("KST", 9*3600))

	for _, want := range []string{"toggl", "yes", "false", "4", "2026-01-22 10:30", "tempo", "never"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("expected %q in table:\n%s", want, rendered)
		}
	}
}

func TestRenderSourceTable_AddsTotalRow(t *testing.T) {
	rendered := renderSourceTable([]storage.SourceSummary{
		{Source: worklog.SourceToggl, Hours: 1.5, Count: 2},
		{Source: worklog.SourceManual, Hours: 0.25, Count: 1},
	})

	for _, want := range []string{"toggl", "manual", "total", "1.75", "3"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("expected %q in table:\n%s", want, rendered)
		}
	}
}
