package output

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"timeboard/internal/timeutil"
	"timeboard/worklog"
)

// DailySummary describes one calendar day. An entry spans [Date, Date+Duration).
// TotalHours sums durations; CoveredHours merges overlapping spans, so the difference
// is time booked twice (for example in both Toggl and Tempo).
type DailySummary struct {
	Date         string
	Start        time.Time
	End          time.Time
	TotalHours   float64
	CoveredHours float64
	OverlapHours float64
	BreakHours   float64
	EntryCount   int
	Sources      []worklog.Source
}

type interval struct {
	start time.Time
	end   time.Time
}

var dailySummaryHeaders = []string{"Date", "StartTime", "EndTime", "TotalHours", "CoveredHours", "OverlapHours", "BreakHours", "EntryCount", "Sources"}

// BuildDailySummaries groups entries by their calendar day in loc (nil means UTC).
func BuildDailySummaries(entries []worklog.Entry, loc *time.Location) []DailySummary {
	if len(entries) == 0 {
		return []DailySummary{}
	}
	if loc == nil {
		loc = time.UTC
	}

	byDay := make(map[string][]worklog.Entry)
	for _, entry := range entries {
		day := entry.Date.In(loc).Format(timeutil.DateLayout)
		byDay[day] = append(byDay[day], entry)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	summaries := make([]DailySummary, 0, len(days))
	for _, day := range days {
		summaries = append(summaries, summarizeDay(day, byDay[day], loc))
	}

	return summaries
}

func summarizeDay(day string, entries []worklog.Entry, loc *time.Location) DailySummary {
	intervals := make([]interval, 0, len(entries))
	sources := make(map[worklog.Source]struct{})
	total := 0.0

	for _, entry := range entries {
		start := entry.Date.In(loc)
		end := start.Add(time.Duration(entry.Duration * float64(time.Hour)))
		intervals = append(intervals, interval{start: start, end: end})
		sources[entry.Source] = struct{}{}
		total += entry.Duration
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start.Before(intervals[j].start)
	})

	start := intervals[0].start
	end := intervals[0].end
	for _, candidate := range intervals[1:] {
		end = maxTime(end, candidate.end)
	}

	covered := mergedCoverage(intervals)
	breakDuration := end.Sub(start) - covered
	if breakDuration < 0 {
		breakDuration = 0
	}

	sourceList := make([]worklog.Source, 0, len(sources))
	for source := range sources {
		sourceList = append(sourceList, source)
	}
	sort.Slice(sourceList, func(i, j int) bool { return sourceList[i] < sourceList[j] })

	overlap := total - covered.Hours()
	if overlap < 0 {
		overlap = 0
	}

	return DailySummary{
		Date:         day,
		Start:        start,
		End:          end,
		TotalHours:   roundHours(total),
		CoveredHours: roundHours(covered.Hours()),
		OverlapHours: roundHours(overlap),
		BreakHours:   roundHours(breakDuration.Hours()),
		EntryCount:   len(entries),
		Sources:      sourceList,
	}
}

// mergedCoverage expects intervals sorted by start.
func mergedCoverage(intervals []interval) time.Duration {
	if len(intervals) == 0 {
		return 0
	}

	currentStart := intervals[0].start
	currentEnd := intervals[0].end
	covered := time.Duration(0)

	for _, candidate := range intervals[1:] {
		if candidate.start.After(currentEnd) {
			covered += currentEnd.Sub(currentStart)
			currentStart = candidate.start
			currentEnd = candidate.end
			continue
		}

		if candidate.end.After(currentEnd) {
			currentEnd = candidate.end
		}
	}

	covered += currentEnd.Sub(currentStart)
	return covered
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}

func WriteDailySummaries(path, format string, summaries []DailySummary) error {
	rows := make([][]any, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, dailySummaryRow(summary))
	}

	switch normalizeFormat(format) {
	case "csv":
		return writeDailySummariesCSV(path, rows)
	case "excel", "xlsx":
		return writeSheet(path, dailySummaryHeaders, rows)
	default:
		return fmt.Errorf("unsupported output format for daily summaries: %s", format)
	}
}

func dailySummaryRow(summary DailySummary) []any {
	sources := make([]string, len(summary.Sources))
	for i, source := range summary.Sources {
		sources[i] = string(source)
	}
	return []any{
		summary.Date,
		summary.Start.Format(timeutil.ClockLayout),
		summary.End.Format(timeutil.ClockLayout),
		summary.TotalHours,
		summary.CoveredHours,
		summary.OverlapHours,
		summary.BreakHours,
		summary.EntryCount,
		strings.Join(sources, ","),
	}
}

func writeDailySummariesCSV(path string, rows [][]any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(dailySummaryHeaders); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, values := range rows {
		row := make([]string, len(values))
		for i, value := range values {
			if hours, ok := value.(float64); ok {
				row[i] = strconv.FormatFloat(hours, 'f', 2, 64)
				continue
			}
			row[i] = csvValue(value)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	return nil
}
