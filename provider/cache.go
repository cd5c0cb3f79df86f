package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// readCache returns the snapshot records when the file exists and its mtime is
// younger than ttl.
func readCache[R any](path string, ttl time.Duration, now time.Time) ([]R, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stat cache file: %w", err)
	}
	if now.Sub(info.ModTime()) >= ttl {
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read cache file: %w", err)
	}

	var records []R
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("decode cache file: %w", err)
	}
	return records, true, nil
}

// writeCache replaces the snapshot via a temp file and rename.
func writeCache[R any](path string, records []R) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode cache snapshot: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp cache file: %w", err)
	}
	return nil
}
