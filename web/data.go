package web

import (
	"fmt"
	"time"

	"timeboard/internal/timeutil"
	"timeboard/storage"
)

type RangeSummary struct {
	From       string                  `json:"from"`
	To         string                  `json:"to"`
	TotalHours float64                 `json:"totalHours"`
	Count      int                     `json:"count"`
	Days       []storage.DaySummary    `json:"days"`
	BySource   []storage.SourceSummary `json:"bySource"`
}

type Stats struct {
	TotalEntries int                     `json:"totalEntries"`
	TotalHours   float64                 `json:"totalHours"`
	TodayHours   float64                 `json:"todayHours"`
	WeekHours    float64                 `json:"weekHours"`
	BySource     []storage.SourceSummary `json:"bySource"`
}

type summaryStore interface {
	SumDuration(filter storage.Filter) (float64, error)
	CountEntries(filter storage.Filter) (int, error)
	SummaryBySource(filter storage.Filter) ([]storage.SourceSummary, error)
	SummaryByDay(filter storage.Filter, loc *time.Location) ([]storage.DaySummary, error)
}

// buildRangeSummary reports [from, to). Days without entries are listed with zero hours
// so a week view always has seven rows. To is reported as the last included day.
func buildRangeSummary(store summaryStore, from, to time.Time, loc *time.Location) (RangeSummary, error) {
	filter := storage.Filter{From: from, To: to}

	days, err := store.SummaryByDay(filter, loc)
	if err != nil {
		return RangeSummary{}, fmt.Errorf("summarize days: %w", err)
	}
	bySource, err := store.SummaryBySource(filter)
	if err != nil {
		return RangeSummary{}, fmt.Errorf("summarize sources: %w", err)
	}

	summary := RangeSummary{
		From:     from.In(loc).Format(timeutil.DateLayout),
		To:       to.In(loc).AddDate(0, 0, -1).Format(timeutil.DateLayout),
		Days:     fillDays(days, from, to, loc),
		BySource: bySource,
	}
	for _, day := range days {
		summary.TotalHours += day.Hours
		summary.Count += day.Count
	}
	if summary.BySource == nil {
		summary.BySource = []storage.SourceSummary{}
	}
	return summary, nil
}

func buildStats(store summaryStore, today time.Time, loc *time.Location) (Stats, error) {
	var stats Stats

	total, err := store.CountEntries(storage.Filter{})
	if err != nil {
		return stats, fmt.Errorf("count entries: %w", err)
	}
	stats.TotalEntries = total

	if stats.TotalHours, err = store.SumDuration(storage.Filter{}); err != nil {
		return stats, fmt.Errorf("sum entries: %w", err)
	}

	dayFrom, dayTo := timeutil.DayRange(today.In(loc))
	if stats.TodayHours, err = store.SumDuration(storage.Filter{From: dayFrom, To: dayTo}); err != nil {
		return stats, fmt.Errorf("sum today: %w", err)
	}

	weekFrom, weekTo := timeutil.WeekRange(today.In(loc))
	if stats.WeekHours, err = store.SumDuration(storage.Filter{From: weekFrom, To: weekTo}); err != nil {
		return stats, fmt.Errorf("sum week: %w", err)
	}

	if stats.BySource, err = store.SummaryBySource(storage.Filter{}); err != nil {
		return stats, fmt.Errorf("summarize sources: %w", err)
	}
	if stats.BySource == nil {
		stats.BySource = []storage.SourceSummary{}
	}
	return stats, nil
}

func fillDays(days []storage.DaySummary, from, to time.Time, loc *time.Location) []storage.DaySummary {
	byDay := make(map[string]storage.DaySummary, len(days))
	for _, day := range days {
		byDay[day.Day] = day
	}

	out := make([]storage.DaySummary, 0, len(days))
	for day := timeutil.StartOfDay(from.In(loc)); day.Before(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(timeutil.DateLayout)
		if existing, ok := byDay[key]; ok {
			out = append(out, existing)
			continue
		}
		out = append(out, storage.DaySummary{Day: key})
	}
	return out
}
