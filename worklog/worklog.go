package worklog

import (
	"fmt"
	"strings"
	"time"
)

// Source tags where an entry came from. The set is closed.
type Source string

const (
	SourceToggl    Source = "toggl"
	SourceTempo    Source = "tempo"
	SourceManual   Source = "manual"
	SourceTogglCSV Source = "toggl_csv"
	SourceTempoCSV Source = "tempo_csv"
)

func Sources() []Source {
	return []Source{SourceToggl, SourceTempo, SourceManual, SourceTogglCSV, SourceTempoCSV}
}

func ParseSource(value string) (Source, error) {
	normalized := Source(strings.ToLower(strings.TrimSpace(value)))
	for _, source := range Sources() {
		if normalized == source {
			return source, nil
		}
	}
	return "", fmt.Errorf("unsupported source: %s", value)
}

// Entry is the canonical time entry shared by providers, importers and the store.
// Date is an absolute instant marking the start of the work period; Duration is in hours.
type Entry struct {
	ID          int64     `json:"id"`
	Source      Source    `json:"source"`
	ExternalID  *string   `json:"externalId"`
	Date        time.Time `json:"date"`
	Duration    float64   `json:"duration"`
	Project     *string   `json:"project"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StringPtr returns nil for blank values and a trimmed copy otherwise.
func StringPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func Deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
