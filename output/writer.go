package output

import (
	"fmt"
	"strings"
	"time"

	"timeboard/worklog"
)

type Writer interface {
	Write(path string, entries []worklog.Entry) error
}

// WriterForFormat returns an entry writer that renders timestamps in loc (nil means UTC).
func WriterForFormat(format string, loc *time.Location) (Writer, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{Location: loc}, nil
	case "excel", "xlsx":
		return &ExcelWriter{Location: loc}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

var entryHeaders = []string{"ID", "Source", "ExternalID", "Date", "Hours", "Project", "Description"}

func entryRow(entry worklog.Entry, loc *time.Location) []any {
	return []any{
		entry.ID,
		string(entry.Source),
		worklog.Deref(entry.ExternalID),
		entry.Date.In(loc).Format(time.RFC3339),
		entry.Duration,
		worklog.Deref(entry.Project),
		worklog.Deref(entry.Description),
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
