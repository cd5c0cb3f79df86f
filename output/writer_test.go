package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"timeboard/worklog"

	"github.com/xuri/excelize/v2"
)

func sampleEntries() []worklog.Entry {
	return []worklog.Entry{
		{
			ID:          7,
			Source:      worklog.SourceToggl,
			ExternalID:  worklog.StringPtr("4711"),
			Date:        time.Date(2026, 1, 22, 2, 0, 0, 0, time.UTC),
			Duration:    1.5,
			Project:     worklog.StringPtr("Platform"),
			Description: worklog.StringPtr("review, \"quoted\""),
		},
		{ID: 8, Source: worklog.SourceManual, Date: time.Date(2026, 1, 22, 3, 0, 0, 0, time.UTC), Duration: 0.25},
	}
}

func TestCSVWriter_RendersInLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	writer, err := WriterForFormat("CSV", seoul)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}

	path := filepath.Join(t.TempDir(), "entries.csv")
	if err := writer.Write(path, sampleEntries()); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 || lines[0] != "ID,Source,ExternalID,Date,Hours,Project,Description" {
		t.Fatalf("unexpected csv %q", raw)
	}
	if lines[1] != `7,toggl,4711,2026-01-22T11:00:00+09:00,1.5,Platform,"review, ""quoted"""` {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if lines[2] != "8,manual,,2026-01-22T12:00:00+09:00,0.25,," {
		t.Fatalf("unexpected second row %q", lines[2])
	}
}

func TestExcelWriter_KeepsHoursNumeric(t *testing.T) {
	writer, err := WriterForFormat("xlsx", nil)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}

	path := filepath.Join(t.TempDir(), "entries.xlsx")
	if err := writer.Write(path, sampleEntries()); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	header, _ := file.GetCellValue(sheet, "D1")
	date, _ := file.GetCellValue(sheet, "D2")
	hours, _ := file.GetCellValue(sheet, "E2")
	cellType, _ := file.GetCellType(sheet, "E2")
	if header != "Date" || date != "2026-01-22T02:00:00Z" || hours != "1.5" {
		t.Fatalf("unexpected cells header=%q date=%q hours=%q", header, date, hours)
	}
	if cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString {
		t.Fatalf("hours must be numeric, got type %v", cellType)
	}
}

func TestWriterForFormat_Unsupported(t *testing.T) {
	if _, err := WriterForFormat("json", nil); err == nil {
		t.Fatalf("expected error")
	}
}
