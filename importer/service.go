package importer

import (
	"fmt"
	"os"
	"path/filepath"

	"timeboard/worklog"
)

type RunResult struct {
	FilesProcessed int             `json:"filesProcessed"`
	RowsRead       int             `json:"rowsRead"`
	RowsMapped     int             `json:"rowsMapped"`
	RowsSkipped    int             `json:"rowsSkipped"`
	Entries        []worklog.Entry `json:"-"`
	Errors         []string        `json:"errors"`
}

// Run reads every file, decodes it by format (inferred from the extension when blank)
// and maps it through the adapter. Unreadable files fail the run; row problems are
// collected in Errors.
func Run(paths []string, format string, adapter Adapter) (*RunResult, error) {
	result := &RunResult{Entries: make([]worklog.Entry, 0, 256)}
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read import file %s: %w", path, err)
		}
		if err := result.add(path, raw, format, adapter); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// RunUpload maps a single in-memory upload, named like the original file.
func RunUpload(name string, raw []byte, format string, adapter Adapter) (*RunResult, error) {
	result := &RunResult{Entries: make([]worklog.Entry, 0, 64)}
	if err := result.add(name, raw, format, adapter); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *RunResult) add(name string, raw []byte, format string, adapter Adapter) error {
	sourceFormat, err := inferFormat(name, format)
	if err != nil {
		return err
	}

	rows, err := TableForFormat(sourceFormat, raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	parsed := adapter.ParseRows(rows)
	r.FilesProcessed++
	r.RowsRead += parsed.DataRows
	r.RowsSkipped += parsed.SkippedRows
	r.RowsMapped += len(parsed.Entries)
	r.Entries = append(r.Entries, parsed.Entries...)

	base := filepath.Base(name)
	for _, rowErr := range parsed.Errors {
		r.Errors = append(r.Errors, base+": "+rowErr)
	}
	return nil
}
