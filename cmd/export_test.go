package cmd

import (
	"testing"
	"time"

	"timeboard/worklog"
)

func TestDetectExportFormat(t *testing.T) {
	tests := map[string]string{
		"./out.csv":  "csv",
		"./out.XLSX": "excel",
		"./out.xlsm": "excel",
		"./out":      "csv",
	}
	for path, want := range tests {
		if got := detectExportFormat(path); got != want {
			t.Fatalf("detectExportFormat(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestBuildExportFilter(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)

	filter, err := buildExportFilter("2026-01-01", "2026-01-31", "Tempo", seoul)
	if err != nil {
		t.Fatalf("build filter: %v", err)
	}
	if filter.Source != worklog.SourceTempo {
		t.Fatalf("unexpected source %q", filter.Source)
	}
	if !filter.From.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, seoul)) || !filter.To.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, seoul)) {
		t.Fatalf("unexpected range %s..%s", filter.From, filter.To)
	}

	empty, err := buildExportFilter("", "", "", time.UTC)
	if err != nil || !empty.From.IsZero() || !empty.To.IsZero() || empty.Source != "" {
		t.Fatalf("expected unbounded filter, got %+v (%v)", empty, err)
	}

	for _, tc := range [][3]string{{"2026-02-01", "2026-01-01", ""}, {"01/02/2026", "", ""}, {"", "", "harvest"}} {
		if _, err := buildExportFilter(tc[0], tc[1], tc[2], time.UTC); err == nil {
			t.Fatalf("expected error for %v", tc)
		}
	}
}
