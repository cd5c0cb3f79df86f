package importer

import (
	"fmt"
	"sort"
	"time"

	"timeboard/worklog"
)

// Result is the outcome of parsing one input. Row-level problems land in Errors and
// parsing continues; a structural failure yields no entries and a single error.
type Result struct {
	Entries     []worklog.Entry
	Errors      []string
	DataRows    int
	SkippedRows int
}

type Adapter interface {
	Name() string
	Source() worklog.Source
	Parse(raw []byte) Result
	ParseRows(rows [][]string) Result
}

type Options struct {
	// Location interprets wall-clock dates and times; nil means UTC.
	Location *time.Location
	// MatrixDateLayout is the Go layout of date column headers in matrix exports.
	MatrixDateLayout string
}

const DefaultMatrixDateLayout = "2006-01-02"

func SupportedAdapterNames() []string {
	return []string{"toggl-csv", "tempo-matrix"}
}

func AdapterByName(name string, options Options) (Adapter, error) {
	switch normalizeHeader(name) {
	case "togglcsv", "toggl":
		return NewTogglCSVAdapter(options), nil
	case "tempomatrix", "tempo":
		return NewTempoMatrixAdapter(options), nil
	default:
		return nil, fmt.Errorf("unsupported adapter: %s", name)
	}
}

func structuralFailure(err error) Result {
	return Result{Errors: []string{err.Error()}}
}

func parseCSV(adapter Adapter, raw []byte) Result {
	rows, err := CSVTable(raw)
	if err != nil {
		return structuralFailure(err)
	}
	return adapter.ParseRows(rows)
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// sortEntries orders entries by date, then external id, so output is deterministic.
func sortEntries(entries []worklog.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return worklog.Deref(entries[i].ExternalID) < worklog.Deref(entries[j].ExternalID)
	})
}
