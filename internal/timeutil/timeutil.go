package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func MinutesFromMidnight(value time.Time) int {
	return value.Hour()*60 + value.Minute()
}

// ParseClockMinutes parses HH:MM into minutes since midnight.
func ParseClockMinutes(value string) (int, error) {
	parsed, err := time.Parse(ClockLayout, strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", value, err)
	}
	return MinutesFromMidnight(parsed), nil
}

// DurationHours returns the hours between two HH:MM clock values of the same day.
// The result is exact and may be negative when end precedes start.
func DurationHours(start, end string) (float64, error) {
	startMinutes, err := ParseClockMinutes(start)
	if err != nil {
		return 0, err
	}
	endMinutes, err := ParseClockMinutes(end)
	if err != nil {
		return 0, err
	}
	return float64(endMinutes-startMinutes) / 60, nil
}

// LoadLocation resolves an IANA zone name; blank means UTC.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// WallClockToInstant interprets a calendar date and HH:MM wall-clock time in the named
// timezone and returns the matching instant in UTC.
func WallClockToInstant(date, clock, timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	value := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	parsed, err := time.ParseInLocation(DateLayout+" "+ClockLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse wall clock %q: %w", value, err)
	}
	return parsed.UTC(), nil
}

// DefaultSyncRange covers three calendar months before today through tomorrow.
// Tomorrow keeps same-day entries in range when client and server clocks disagree.
func DefaultSyncRange(now time.Time) (time.Time, time.Time) {
	today := StartOfDay(now)
	return today.AddDate(0, -3, 0), today.AddDate(0, 0, 1)
}

// WeekRange returns Monday 00:00 of the ISO week containing t and the following Monday.
func WeekRange(t time.Time) (time.Time, time.Time) {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := StartOfDay(t).AddDate(0, 0, -(weekday - 1))
	return monday, monday.AddDate(0, 0, 7)
}

// DayRange returns the start of t's day and the start of the next day.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}
