package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDecimalHours accepts "1.5", "1,5" and "1.234,5".
func parseDecimalHours(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty hours value")
	}
	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	hours, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hours %q: %w", raw, err)
	}
	return hours, nil
}

// parseDurationHours accepts H:MM:SS, H:MM or decimal hours and returns hours.
func parseDurationHours(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if !strings.Contains(cleaned, ":") {
		return parseDecimalHours(cleaned)
	}

	sign := 1.0
	if strings.HasPrefix(cleaned, "-") {
		sign = -1
		cleaned = strings.TrimPrefix(cleaned, "-")
	}

	parts := strings.Split(cleaned, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("unsupported duration format: %q", raw)
	}

	values := make([]int, 3)
	for i, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 {
			return 0, fmt.Errorf("unsupported duration format: %q", raw)
		}
		if i > 0 && value >= 60 {
			return 0, fmt.Errorf("duration component out of range: %q", raw)
		}
		values[i] = value
	}

	seconds := values[0]*3600 + values[1]*60 + values[2]
	return sign * float64(seconds) / 3600, nil
}

// parseDateAndTime combines a date cell and an optional time cell in loc.
// A blank time means midnight.
func parseDateAndTime(dateValue, timeValue string, loc *time.Location) (time.Time, error) {
	dateValue = strings.TrimSpace(dateValue)
	timeValue = strings.TrimSpace(timeValue)
	if dateValue == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if timeValue == "" {
		timeValue = "00:00:00"
	}

	datetime := dateValue + " " + timeValue
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02 03:04:05 PM",
		"2006-01-02 03:04 PM",
		"01/02/2006 15:04:05",
		"01/02/2006 15:04",
		"01/02/2006 03:04 PM",
		"02.01.2006 15:04:05",
		"02.01.2006 15:04",
	}

	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, datetime, loc); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported date/time format: %q", datetime)
}

// hashID derives a stable identifier from the given parts.
func hashID(prefix string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return prefix + "-" + hex.EncodeToString(sum[:])[:24]
}

func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}
