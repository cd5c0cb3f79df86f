package importer

import (
	"strings"
	"testing"
	"time"

	"timeboard/worklog"
)

const togglExport = "\ufeffUser,Email,Project,Description,Start date,Start time,End date,End time,Duration\n" +
	"Dev,dev@example.com,Platform,Review 5\" display,2026-01-22,11:00:00,2026-01-22,12:30:00,01:30:00\n" +
	"Dev,dev@example.com,,,2026-01-22,,,,0.75\n" +
	"Dev,dev@example.com,Platform,idle,2026-01-22,13:00:00,2026-01-22,13:00:00,00:00:00\n" +
	"Dev,dev@example.com,Platform,running,2026-01-22,14:00:00,,,-0:30:00\n" +
	"Dev,dev@example.com,Platform,broken,2026-01-22,15:00:00,,,abc\n" +
	",,,,,,,,\n"

func seoulOptions(t *testing.T) Options {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return Options{Location: loc}
}

func TestTogglCSVAdapter_Parse(t *testing.T) {
	t.Parallel()

	adapter := NewTogglCSVAdapter(seoulOptions(t))
	result := adapter.Parse([]byte(togglExport))

	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d (%v)", len(result.Entries), result.Errors)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], "row 5:") || !strings.HasPrefix(result.Errors[1], "row 6:") {
		t.Fatalf("unexpected error rows: %v", result.Errors)
	}
	if result.DataRows != 5 || result.SkippedRows != 3 {
		t.Fatalf("unexpected counters: data=%d skipped=%d", result.DataRows, result.SkippedRows)
	}

	first := result.Entries[0]
	if first.Source != worklog.SourceTogglCSV {
		t.Fatalf("unexpected source %s", first.Source)
	}
	if !first.Date.Equal(time.Date(2026, 1, 22, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant %s", first.Date)
	}
	if first.Duration != 1.5 {
		t.Fatalf("unexpected duration %f", first.Duration)
	}
	if worklog.Deref(first.Project) != "Platform" || worklog.Deref(first.Description) != "Review 5\" display" {
		t.Fatalf("unexpected text fields: %q %q", worklog.Deref(first.Project), worklog.Deref(first.Description))
	}
	if first.ExternalID == nil || !strings.HasPrefix(*first.ExternalID, "csv-") {
		t.Fatalf("expected synthesized external id, got %v", first.ExternalID)
	}

	second := result.Entries[1]
	if !second.Date.Equal(time.Date(2026, 1, 21, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected midnight Seoul, got %s", second.Date)
	}
	if second.Project != nil || second.Description != nil {
		t.Fatalf("expected blank project and description to be nil")
	}
	if second.ExternalID == nil {
		t.Fatalf("external id must always be set")
	}
}

func TestTogglCSVAdapter_RepeatedParseIsStable(t *testing.T) {
	t.Parallel()

	adapter := NewTogglCSVAdapter(seoulOptions(t))
	first := adapter.Parse([]byte(togglExport))
	second := adapter.Parse([]byte(togglExport))

	for i := range first.Entries {
		if *first.Entries[i].ExternalID != *second.Entries[i].ExternalID {
			t.Fatalf("external id changed between parses: %s vs %s", *first.Entries[i].ExternalID, *second.Entries[i].ExternalID)
		}
	}
}

func TestTogglCSVAdapter_StructuralFailure(t *testing.T) {
	t.Parallel()

	adapter := NewTogglCSVAdapter(Options{})
	tests := map[string]string{
		"empty":          "",
		"missing start":  "Project,Duration\nPlatform,1:00:00\n",
		"missing length": "Project,Start date\nPlatform,2026-01-22\n",
	}
	for name, input := range tests {
		result := adapter.Parse([]byte(input))
		if len(result.Entries) != 0 || len(result.Errors) != 1 {
			t.Fatalf("%s: expected structural failure, got entries=%d errors=%v", name, len(result.Entries), result.Errors)
		}
	}
}

func TestTogglCSVAdapter_DecimalHoursColumn(t *testing.T) {
	t.Parallel()

	input := "Project,Start date,Start time,Hours\nPlatform,01/22/2026,09:00,\"2,5\"\n"
	result := NewTogglCSVAdapter(Options{}).Parse([]byte(input))
	if len(result.Entries) != 1 || len(result.Errors) != 0 {
		t.Fatalf("expected one entry, got %d (%v)", len(result.Entries), result.Errors)
	}
	if result.Entries[0].Duration != 2.5 {
		t.Fatalf("unexpected duration %f", result.Entries[0].Duration)
	}
	if !result.Entries[0].Date.Equal(time.Date(2026, 1, 22, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %s", result.Entries[0].Date)
	}
}
