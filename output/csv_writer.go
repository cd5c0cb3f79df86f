package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"timeboard/worklog"
)

type CSVWriter struct {
	Location *time.Location
}

func (w *CSVWriter) Write(path string, entries []worklog.Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(entryHeaders); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	for _, entry := range entries {
		values := entryRow(entry, loc)
		row := make([]string, len(values))
		for i, value := range values {
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

func csvValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
