package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"timeboard/provider"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	syncRefresh bool
	syncFrom    string
	syncTo      string
	syncDBPath  string
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = cellStyle.Foreground(lipgloss.Color("2"))
	failStyle   = cellStyle.Foreground(lipgloss.Color("1"))
	mutedStyle  = cellStyle.Foreground(lipgloss.Color("8"))
)

var syncCmd = &cobra.Command{
	Use:   "sync [provider...]",
	Short: "Fetch entries from Toggl and/or Tempo into the local database",
	Long: `Fetch time entries from the named providers (all configured providers when none is given)
and upsert them into SQLite.

Without --from/--to the default window is the last three months through tomorrow, and a
cached fetch younger than cache.ttl is reused unless --refresh is set. A custom range always
fetches fresh data and does not touch the cache. Both bounds are inclusive calendar days.`,
	Example: `
  # Sync every configured provider
  timeboard sync

  # Sync toggl only, ignoring the cache
  timeboard sync toggl --refresh

  # Backfill tempo for one quarter
  timeboard sync tempo --from 2025-10-01 --to 2025-12-31
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(syncDBPath)
		if err != nil {
			return err
		}
		defer app.Close()

		registry, err := buildRegistry(app.cfg, app.store, app.logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		options := provider.SyncOptions{ForceRefresh: syncRefresh, CustomStart: syncFrom, CustomEnd: syncTo}
		outcomes, err := runSync(ctx, registry, args, options)
		if err != nil {
			return err
		}

		fmt.Println(renderSyncTable(outcomes))

		failed := 0
		for _, outcome := range outcomes {
			if outcome.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d providers failed", failed, len(outcomes))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncRefresh, "refresh", false, "Ignore a fresh cache and fetch from the API")
	syncCmd.Flags().StringVar(&syncFrom, "from", "", "First day to fetch, YYYY-MM-DD (inclusive)")
	syncCmd.Flags().StringVar(&syncTo, "to", "", "Last day to fetch, YYYY-MM-DD (inclusive)")
	syncCmd.Flags().StringVar(&syncDBPath, "db", "", "Path to SQLite database (default: database.path from config)")
}

// runSync syncs the named providers in order, or every configured one when names is empty.
// Naming an unconfigured provider still runs it so its missing-credential error is reported.
func runSync(ctx context.Context, registry *provider.Registry, names []string, options provider.SyncOptions) ([]provider.Outcome, error) {
	if len(names) == 0 {
		outcomes := registry.SyncAll(ctx, options)
		if len(outcomes) == 0 {
			return nil, fmt.Errorf("no provider is configured (set toggl.api_token or tempo.api_token)")
		}
		return outcomes, nil
	}

	selected := make([]provider.Provider, 0, len(names))
	for _, name := range names {
		p, ok := registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown provider %q (available: %v)", name, registry.Names())
		}
		selected = append(selected, p)
	}

	outcomes := make([]provider.Outcome, 0, len(selected))
	for _, p := range selected {
		result, err := p.Sync(ctx, options)
		outcomes = append(outcomes, provider.Outcome{Name: p.Name(), Result: result, Err: err})
	}
	return outcomes, nil
}

func renderSyncTable(outcomes []provider.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			rows = append(rows, []string{outcome.Name, "failed", "-", "-", outcome.Err.Error()})
			continue
		}
		cached := "no"
		if outcome.Result.Cached {
			cached = "yes"
		}
		rows = append(rows, []string{
			outcome.Name,
			"ok",
			strconv.Itoa(outcome.Result.Count),
			cached,
			describeDetails(outcome.Result.Details),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("PROVIDER", "STATUS", "ENTRIES", "CACHED", "DETAILS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1 && rows[row][1] == "ok":
				return okStyle
			case col == 1:
				return failStyle
			case col == 4:
				return mutedStyle
			default:
				return cellStyle
			}
		}).
		String()
}

func describeDetails(details provider.Details) string {
	switch d := details.(type) {
	case provider.TogglDetails:
		return fmt.Sprintf("running skipped: %d, conflicts skipped: %d", d.RunningSkipped, d.ConflictsSkipped)
	case provider.TempoDetails:
		return fmt.Sprintf("issue keys resolved: %d, fallback: %d, rows skipped: %d", d.IssueKeysResolved, d.IssueKeysFallback, d.RowsSkipped)
	default:
		return ""
	}
}
