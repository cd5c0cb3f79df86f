package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"timeboard/internal/timeutil"
	"timeboard/manual"
	"timeboard/worklog"

	"github.com/spf13/cobra"
)

var (
	addDate        string
	addStart       string
	addEnd         string
	addProject     string
	addDescription string
	addTimezone    string
	addDBPath      string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a manual time entry",
	Long: `Record a manual entry from a date and two wall-clock times.

Times are read in --timezone (default: timezone from config, blank means UTC). The end time
must be later than the start time on the same day. Manual entries may overlap anything.`,
	Example: `
  # Ninety minutes today
  timeboard add --start 09:00 --end 10:30 --project Platform

  # A past day in a specific timezone
  timeboard add --date 2026-01-22 --start 11:00 --end 12:30 --timezone Asia/Seoul --description "pairing"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(addDBPath)
		if err != nil {
			return err
		}
		defer app.Close()

		input := buildManualInput(app.cfg.Timezone, app.location, time.Now())
		created, err := manual.NewService(app.store).Create(input)
		if err != nil {
			var validationErr *manual.ValidationError
			if errors.As(err, &validationErr) {
				for field, problem := range validationErr.Fields {
					fmt.Printf("  %s: %s\n", field, problem)
				}
			}
			return err
		}

		fmt.Printf("Manual entry created. ID: %d, Start: %s, Hours: %.2f, Project: %s\n",
			created.ID,
			created.Date.In(app.location).Format(time.RFC3339),
			created.Duration,
			worklog.Deref(created.Project),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addDate, "date", "", "Calendar day, YYYY-MM-DD (default: today)")
	addCmd.Flags().StringVar(&addStart, "start", "", "Start time, HH:MM")
	addCmd.Flags().StringVar(&addEnd, "end", "", "End time, HH:MM")
	addCmd.Flags().StringVarP(&addProject, "project", "p", "", "Project name")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Description")
	addCmd.Flags().StringVar(&addTimezone, "timezone", "", "IANA timezone of --start/--end (default: timezone from config)")
	addCmd.Flags().StringVar(&addDBPath, "db", "", "Path to SQLite database (default: database.path from config)")

	_ = addCmd.MarkFlagRequired("start")
	_ = addCmd.MarkFlagRequired("end")
}

// buildManualInput fills in the date (today in loc) and timezone defaults from flags.
func buildManualInput(configTimezone string, loc *time.Location, now time.Time) manual.Input {
	date := strings.TrimSpace(addDate)
	if date == "" {
		date = now.In(loc).Format(timeutil.DateLayout)
	}
	timezone := strings.TrimSpace(addTimezone)
	if timezone == "" {
		timezone = configTimezone
	}

	return manual.Input{
		Date:        date,
		StartTime:   addStart,
		EndTime:     addEnd,
		Project:     addProject,
		Description: addDescription,
		Timezone:    timezone,
	}
}
