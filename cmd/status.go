package cmd

import (
	"fmt"
	"strconv"
	"time"

	"timeboard/internal/timeutil"
	"timeboard/provider"
	"timeboard/storage"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	statusValidate bool
	statusDBPath   string
)

type providerRow struct {
	name       string
	configured bool
	reachable  *bool
	count      int
	lastSync   time.Time
	hasSync    bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider configuration, entry counts and hour totals",
	Long: `Show each provider with its configuration state, number of stored entries and the time
of the most recent stored entry, followed by hour totals per source, for today and for the
current week (Monday start, configured timezone).

With --validate every configured provider is contacted once to check its credentials.`,
	Example: `
  # Offline status from the database
  timeboard status

  # Also check API credentials
  timeboard status --validate
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(statusDBPath)
		if err != nil {
			return err
		}
		defer app.Close()

		registry, err := buildRegistry(app.cfg, app.store, app.logger)
		if err != nil {
			return err
		}

		rows := make([]providerRow, 0, len(registry.All()))
		for _, p := range registry.All() {
			row, err := collectProviderRow(cmd, app.store, p)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		fmt.Println(renderProviderTable(rows, app.location))

		totals, err := app.store.SummaryBySource(storage.Filter{})
		if err != nil {
			return err
		}
		fmt.Println(renderSourceTable(totals))

		now := time.Now().In(app.location)
		dayFrom, dayTo := timeutil.DayRange(now)
		weekFrom, weekTo := timeutil.WeekRange(now)
		today, err := app.store.SumDuration(storage.Filter{From: dayFrom, To: dayTo})
		if err != nil {
			return err
		}
		week, err := app.store.SumDuration(storage.Filter{From: weekFrom, To: weekTo})
		if err != nil {
			return err
		}
		fmt.Printf("Today: %.2fh, This week: %.2fh\n", today, week)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusValidate, "validate", false, "Contact configured providers to check credentials")
	statusCmd.Flags().StringVar(&statusDBPath, "db", "", "Path to SQLite database (default: database.path from config)")
}

func collectProviderRow(cmd *cobra.Command, store *storage.SQLiteStore, p provider.Provider) (providerRow, error) {
	row := providerRow{name: p.Name(), configured: p.Configured()}

	count, err := store.CountEntries(storage.Filter{Source: p.Source()})
	if err != nil {
		return row, err
	}
	row.count = count

	row.lastSync, row.hasSync, err = store.LastCreatedAt(p.Source())
	if err != nil {
		return row, err
	}

	if statusValidate && row.configured {
		reachable := p.Validate(cmd.Context())
		row.reachable = &reachable
	}
	return row, nil
}

func renderProviderTable(rows []providerRow, loc *time.Location) string {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		configured := "no"
		if row.configured {
			configured = "yes"
		}
		reachable := "-"
		if row.reachable != nil {
			reachable = strconv.FormatBool(*row.reachable)
		}
		lastSync := "never"
		if row.hasSync {
			lastSync = row.lastSync.In(loc).Format("2006-01-02 15:04")
		}
		cells = append(cells, []string{row.name, configured, reachable, strconv.Itoa(row.count), lastSync})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("PROVIDER", "CONFIGURED", "REACHABLE", "ENTRIES", "LAST SYNC").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1 && cells[row][1] == "yes":
				return okStyle
			case col == 1:
				return mutedStyle
			case col == 2 && cells[row][2] == "false":
				return failStyle
			default:
				return cellStyle
			}
		}).
		String()
}

func renderSourceTable(totals []storage.SourceSummary) string {
	cells := make([][]string, 0, len(totals)+1)
	hours, count := 0.0, 0
	for _, total := range totals {
		cells = append(cells, []string{string(total.Source), strconv.Itoa(total.Count), fmt.Sprintf("%.2f", total.Hours)})
		hours += total.Hours
		count += total.Count
	}
	cells = append(cells, []string{"total", strconv.Itoa(count), fmt.Sprintf("%.2f", hours)})

	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("SOURCE", "ENTRIES", "HOURS").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || row == len(cells)-1 {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
