package importer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// TableForFormat decodes raw file content into rows for the given format.
func TableForFormat(format string, raw []byte) ([][]string, error) {
	switch normalizeHeader(format) {
	case "csv":
		return CSVTable(raw)
	case "excel", "xlsx", "xlsm":
		return ExcelTable(raw)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

func inferFormat(path string, format string) (string, error) {
	if strings.TrimSpace(format) != "" {
		return format, nil
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch extension {
	case "csv":
		return "csv", nil
	case "xlsx", "xlsm":
		return "excel", nil
	default:
		return "", fmt.Errorf("unsupported file extension for %s", path)
	}
}
