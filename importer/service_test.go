package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestRun_CSVAndExcel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "toggl_january.csv")
	if err := os.WriteFile(csvPath, []byte(togglExport), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	xlsxPath := filepath.Join(dir, "toggl_february.xlsx")
	workbook := excelize.NewFile()
	rows := [][]any{
		{"Project", "Description", "Start date", "Start time", "Duration"},
		{"Platform", "pairing", "2026-02-03", "09:00:00", "02:00:00"},
		{"Platform", "broken", "not-a-date", "09:00:00", "01:00:00"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := workbook.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := workbook.SaveAs(xlsxPath); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = workbook.Close()

	result, err := Run([]string{csvPath, xlsxPath}, "", NewTogglCSVAdapter(seoulOptions(t)))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.FilesProcessed != 2 {
		t.Fatalf("expected 2 files, got %d", result.FilesProcessed)
	}
	if result.RowsRead != 7 || result.RowsMapped != 3 || result.RowsSkipped != 4 {
		t.Fatalf("unexpected counters: read=%d mapped=%d skipped=%d", result.RowsRead, result.RowsMapped, result.RowsSkipped)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(result.Entries))
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 row errors, got %v", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[2], "toggl_february.xlsx: row 3:") {
		t.Fatalf("expected file-prefixed error, got %q", result.Errors[2])
	}
}

func TestRun_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "export.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := Run([]string{path}, "", NewTogglCSVAdapter(Options{})); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestRunUpload_ExplicitFormat(t *testing.T) {
	t.Parallel()

	result, err := RunUpload("upload", []byte(tempoExport), "csv", NewTempoMatrixAdapter(Options{}))
	if err != nil {
		t.Fatalf("run upload: %v", err)
	}
	if result.RowsMapped != 3 {
		t.Fatalf("expected 3 mapped entries, got %d", result.RowsMapped)
	}
}

func TestAdapterByName(t *testing.T) {
	t.Parallel()

	for _, name := range SupportedAdapterNames() {
		adapter, err := AdapterByName(name, Options{})
		if err != nil {
			t.Fatalf("adapter %s: %v", name, err)
		}
		if adapter.Name() != name {
			t.Fatalf("expected adapter %s, got %s", name, adapter.Name())
		}
	}
	if _, err := AdapterByName("harvest", Options{}); err == nil {
		t.Fatalf("expected unsupported adapter error")
	}
}
