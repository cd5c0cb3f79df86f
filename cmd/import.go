package cmd

import (
	"fmt"
	"strings"

	"timeboard/importer"

	"github.com/spf13/cobra"
)

var (
	importInputs  []string
	importFormat  string
	importAdapter string
	importDBPath  string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import Toggl/Tempo CSV or Excel exports into the local database",
	Long: `Read export files, map each row through the selected adapter, and upsert results in SQLite.

Adapters:
- toggl-csv: Toggl detailed export. Needs "Start date" and a duration column
  ("Duration", "Duration (decimal)" or "Hours"). Zero-length rows are skipped.
- tempo-matrix: Tempo timesheet matrix. One row per issue, one column per day
  (header dates use import.matrix_date_layout); total rows are ignored.

Wall-clock dates are read in the configured timezone. Each row gets a content-derived id, so
importing the same file again updates rows instead of duplicating them.
When --format is omitted, format is inferred from each input file extension.`,
	Example: `
  # Import a Toggl detailed export
  timeboard import -i ./Toggl_time_entries_2026-01.csv --adapter toggl-csv

  # Import two Tempo matrix exports from Excel
  timeboard import -i ./tempo-jan.xlsx -i ./tempo-feb.xlsx --adapter tempo-matrix

  # Force CSV parsing for a file without extension
  timeboard import -i ./export --format csv --adapter toggl-csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(importDBPath)
		if err != nil {
			return err
		}
		defer app.Close()

		adapter, err := importer.AdapterByName(importAdapter, importer.Options{
			Location:         app.location,
			MatrixDateLayout: app.cfg.Import.MatrixDateLayout,
		})
		if err != nil {
			return fmt.Errorf("%w (supported: %s)", err, strings.Join(importer.SupportedAdapterNames(), ", "))
		}

		result, err := importer.Run(importInputs, importFormat, adapter)
		if err != nil {
			return err
		}

		persisted, err := app.store.UpsertEntries(result.Entries)
		if err != nil {
			return err
		}

		fmt.Printf("Import completed. Files: %d, Rows read: %d, Rows mapped: %d, Rows skipped: %d, Rows persisted: %d\n",
			result.FilesProcessed,
			result.RowsRead,
			result.RowsMapped,
			result.RowsSkipped,
			persisted,
		)
		for _, rowErr := range result.Errors {
			fmt.Printf("  warning: %s\n", rowErr)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringArrayVarP(&importInputs, "input", "i", nil, "Input file path (repeatable)")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: csv|excel (optional, inferred from extension when omitted)")
	importCmd.Flags().StringVarP(&importAdapter, "adapter", "a", "toggl-csv", "Adapter to map rows: toggl-csv|tempo-matrix")
	importCmd.Flags().StringVar(&importDBPath, "db", "", "Path to SQLite database (default: database.path from config)")

	_ = importCmd.MarkFlagRequired("input")
}
