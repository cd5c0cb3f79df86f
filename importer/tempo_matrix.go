package importer

import (
	"fmt"
	"strings"
	"time"

	"timeboard/worklog"
)

// TempoMatrixAdapter maps the Tempo timesheet export: one row per issue, one column
// per calendar date, cells holding hours.
type TempoMatrixAdapter struct {
	loc        *time.Location
	dateLayout string
}

func NewTempoMatrixAdapter(options Options) *TempoMatrixAdapter {
	layout := strings.TrimSpace(options.MatrixDateLayout)
	if layout == "" {
		layout = DefaultMatrixDateLayout
	}
	return &TempoMatrixAdapter{loc: locationOrUTC(options.Location), dateLayout: layout}
}

func (a *TempoMatrixAdapter) Name() string {
	return "tempo-matrix"
}

func (a *TempoMatrixAdapter) Source() worklog.Source {
	return worklog.SourceTempoCSV
}

func (a *TempoMatrixAdapter) Parse(raw []byte) Result {
	return parseCSV(a, raw)
}

type matrixHeader struct {
	keyCol   int
	issueCol int
	dates    map[int]time.Time
}

func (a *TempoMatrixAdapter) scanHeader(header []string) matrixHeader {
	scanned := matrixHeader{keyCol: -1, issueCol: -1, dates: make(map[int]time.Time)}
	for col, cell := range header {
		switch normalizeHeader(cell) {
		case "key", "issuekey":
			if scanned.keyCol < 0 {
				scanned.keyCol = col
			}
			continue
		case "issue", "issuesummary", "summary":
			if scanned.issueCol < 0 {
				scanned.issueCol = col
			}
			continue
		}
		if date, err := time.ParseInLocation(a.dateLayout, strings.TrimSpace(cell), a.loc); err == nil {
			scanned.dates[col] = date
		}
	}
	return scanned
}

func (a *TempoMatrixAdapter) ParseRows(rows [][]string) Result {
	if len(rows) == 0 {
		return structuralFailure(fmt.Errorf("tempo export has no header row"))
	}

	header := a.scanHeader(rows[0])
	if len(header.dates) == 0 {
		return structuralFailure(fmt.Errorf("tempo export header has no date columns matching layout %q", a.dateLayout))
	}
	if header.keyCol < 0 && header.issueCol < 0 {
		return structuralFailure(fmt.Errorf("tempo export header has neither a Key nor an Issue column"))
	}

	result := Result{Entries: make([]worklog.Entry, 0, len(rows))}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		result.DataRows++

		if isTotalsRow(row, header) {
			result.SkippedRows++
			continue
		}

		key := cellAt(row, header.keyCol)
		issue := cellAt(row, header.issueCol)
		rowKey := key
		if rowKey == "" {
			rowKey = issue
		}
		if rowKey == "" {
			result.SkippedRows++
			continue
		}

		emitted := 0
		for col, date := range header.dates {
			raw := cellAt(row, col)
			if raw == "" {
				continue
			}
			hours, err := parseDecimalHours(raw)
			if err != nil || hours <= 0 {
				continue
			}
			result.Entries = append(result.Entries, a.entry(date, rowKey, key, issue, hours))
			emitted++
		}
		if emitted == 0 {
			result.SkippedRows++
		}
	}

	sortEntries(result.Entries)
	return result
}

func (a *TempoMatrixAdapter) entry(date time.Time, rowKey, key, issue string, hours float64) worklog.Entry {
	project := key
	switch {
	case key != "" && issue != "":
		project = key + " - " + issue
	case key == "":
		project = issue
	}

	return worklog.Entry{
		Source:      worklog.SourceTempoCSV,
		ExternalID:  worklog.StringPtr(hashID("matrix", date.Format(DefaultMatrixDateLayout), rowKey, formatHours(hours))),
		Date:        date.UTC(),
		Duration:    hours,
		Project:     worklog.StringPtr(project),
		Description: worklog.StringPtr(issue),
	}
}

// isTotalsRow reports a "Total" label in the first, key or issue column.
func isTotalsRow(row []string, header matrixHeader) bool {
	for _, col := range []int{0, header.keyCol, header.issueCol} {
		switch strings.ToLower(cellAt(row, col)) {
		case "total", "totals":
			return true
		}
	}
	return false
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
