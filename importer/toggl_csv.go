package importer

import (
	"fmt"
	"time"

	"timeboard/worklog"
)

// TogglCSVAdapter maps the Toggl Track "detailed" export: one row per time entry.
type TogglCSVAdapter struct {
	loc *time.Location
}

func NewTogglCSVAdapter(options Options) *TogglCSVAdapter {
	return &TogglCSVAdapter{loc: locationOrUTC(options.Location)}
}

func (a *TogglCSVAdapter) Name() string {
	return "toggl-csv"
}

func (a *TogglCSVAdapter) Source() worklog.Source {
	return worklog.SourceTogglCSV
}

func (a *TogglCSVAdapter) Parse(raw []byte) Result {
	return parseCSV(a, raw)
}

func (a *TogglCSVAdapter) ParseRows(rows [][]string) Result {
	if len(rows) == 0 {
		return structuralFailure(fmt.Errorf("toggl export has no header row"))
	}

	records := recordsFromRows(rows)
	header := Record{Values: make(map[string]string, len(rows[0]))}
	for _, cell := range rows[0] {
		header.Values[normalizeHeader(cell)] = ""
	}
	if !header.Has("Start date") {
		return structuralFailure(fmt.Errorf("toggl export is missing the Start date column"))
	}
	if !header.Has("Duration", "Duration (decimal)", "Hours") {
		return structuralFailure(fmt.Errorf("toggl export is missing a Duration column"))
	}

	result := Result{Entries: make([]worklog.Entry, 0, len(records))}
	for i, record := range records {
		if isBlankRow(rows[i+1]) {
			continue
		}
		result.DataRows++

		entry, ok, err := a.mapRecord(record)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", record.RowNumber, err))
			result.SkippedRows++
			continue
		}
		if !ok {
			result.SkippedRows++
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result
}

func (a *TogglCSVAdapter) mapRecord(record Record) (worklog.Entry, bool, error) {
	start, err := parseDateAndTime(record.Get("Start date"), record.Get("Start time"), a.loc)
	if err != nil {
		return worklog.Entry{}, false, fmt.Errorf("parse start: %w", err)
	}

	hours, err := parseDurationHours(record.Get("Duration", "Duration (decimal)", "Hours"))
	if err != nil {
		return worklog.Entry{}, false, fmt.Errorf("parse duration: %w", err)
	}
	if hours < 0 {
		return worklog.Entry{}, false, fmt.Errorf("negative duration %s", formatHours(hours))
	}
	if hours == 0 {
		return worklog.Entry{}, false, nil
	}

	project := record.Get("Project")
	instant := start.UTC()
	return worklog.Entry{
		Source:      worklog.SourceTogglCSV,
		ExternalID:  worklog.StringPtr(hashID("csv", instant.Format(time.RFC3339), project)),
		Date:        instant,
		Duration:    hours,
		Project:     worklog.StringPtr(project),
		Description: worklog.StringPtr(record.Get("Description")),
	}, true, nil
}
