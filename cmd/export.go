package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"timeboard/internal/timeutil"
	"timeboard/output"
	"timeboard/storage"
	"timeboard/worklog"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportMode   string
	exportOutput string
	exportDBPath string
	exportFrom   string
	exportTo     string
	exportSource string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored entries from SQLite to CSV/Excel",
	Long: `Export stored entries from SQLite.

Modes:
- raw: one row per entry (id, source, external id, start, hours, project, description)
- daily: per-day aggregates (first start, last end, total hours, covered hours,
  hours booked twice across sources, break hours)

Timestamps and day boundaries use the configured timezone.
Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export all entries to CSV
  timeboard export --output ./entries.csv

  # Export January Tempo entries to Excel
  timeboard export --source tempo --from 2026-01-01 --to 2026-01-31 --output ./tempo-jan.xlsx

  # Export daily summary to CSV
  timeboard export --mode daily --output ./daily-summary.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}

		app, err := loadApp(exportDBPath)
		if err != nil {
			return err
		}
		defer app.Close()

		filter, err := buildExportFilter(exportFrom, exportTo, exportSource, app.location)
		if err != nil {
			return err
		}

		entries, err := app.store.ListEntries(filter)
		if err != nil {
			return err
		}

		mode := strings.TrimSpace(strings.ToLower(exportMode))
		switch mode {
		case "", "raw":
			writer, writerErr := output.WriterForFormat(format, app.location)
			if writerErr != nil {
				return writerErr
			}
			if err := writer.Write(exportOutput, entries); err != nil {
				return err
			}
			fmt.Printf("Export completed. Rows: %d, Mode: raw, Format: %s, File: %s\n", len(entries), format, exportOutput)
		case "daily":
			summaries := output.BuildDailySummaries(entries, app.location)
			if err := output.WriteDailySummaries(exportOutput, format, summaries); err != nil {
				return err
			}
			fmt.Printf("Export completed. Days: %d, Mode: daily, Format: %s, File: %s\n", len(summaries), format, exportOutput)
		default:
			return fmt.Errorf("unsupported export mode: %s (supported: raw, daily)", exportMode)
		}
		return nil
	},
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "xlsx", "xlsm":
		return "excel"
	default:
		return "csv"
	}
}

// buildExportFilter reads from/to as inclusive days in loc.
func buildExportFilter(from, to, source string, loc *time.Location) (storage.Filter, error) {
	var filter storage.Filter

	if strings.TrimSpace(source) != "" {
		parsed, err := worklog.ParseSource(source)
		if err != nil {
			return filter, err
		}
		filter.Source = parsed
	}
	if strings.TrimSpace(from) != "" {
		day, err := time.ParseInLocation(timeutil.DateLayout, strings.TrimSpace(from), loc)
		if err != nil {
			return filter, fmt.Errorf("invalid --from value %q (expected YYYY-MM-DD)", from)
		}
		filter.From = day
	}
	if strings.TrimSpace(to) != "" {
		day, err := time.ParseInLocation(timeutil.DateLayout, strings.TrimSpace(to), loc)
		if err != nil {
			return filter, fmt.Errorf("invalid --to value %q (expected YYYY-MM-DD)", to)
		}
		filter.To = day.AddDate(0, 0, 1)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, fmt.Errorf("invalid range: --from must be <= --to")
	}
	return filter, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "raw", "Export mode: raw|daily")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day to export, YYYY-MM-DD (inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day to export, YYYY-MM-DD (inclusive)")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "Only export one source: toggl|tempo|manual|toggl_csv|tempo_csv")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "Path to SQLite database (default: database.path from config)")

	_ = exportCmd.MarkFlagRequired("output")
}
