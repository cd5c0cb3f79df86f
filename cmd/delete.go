package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"timeboard/storage"
	"timeboard/worklog"

	"github.com/spf13/cobra"
)

var (
	deleteDBPath string
	deleteYes    bool
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one stored entry by id",
	Long: `Delete a single entry from the local database.

The entry is shown first and an interactive prompt requires typing exactly "Y" unless --yes
is given. A synced entry that still exists upstream comes back on the next sync.`,
	Example: `
  # Delete entry 42 after confirmation
  timeboard delete 42

  # Delete without prompting
  timeboard delete 42 --yes
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[0])
		if err != nil {
			return err
		}

		app, err := loadApp(deleteDBPath)
		if err != nil {
			return err
		}
		defer app.Close()

		entry, found, err := app.store.GetEntry(id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: id %d", storage.ErrEntryNotFound, id)
		}

		if !deleteYes {
			confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, describeEntry(entry, app.location))
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("delete aborted: confirmation was not 'Y'")
			}
		}

		if _, err := app.store.DeleteEntry(id); err != nil {
			return err
		}
		fmt.Printf("Deleted entry %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
	deleteCmd.Flags().StringVar(&deleteDBPath, "db", "", "Path to SQLite database (default: database.path from config)")
}

func parseEntryID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", raw)
	}
	return id, nil
}

func describeEntry(entry worklog.Entry, loc *time.Location) string {
	project := worklog.Deref(entry.Project)
	if project == "" {
		project = "(no project)"
	}
	return fmt.Sprintf("#%d %s %s %.2fh %s", entry.ID, entry.Source, entry.Date.In(loc).Format("2006-01-02 15:04"), entry.Duration, project)
}

func confirmDeletePrompt(input io.Reader, output io.Writer, subject string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete entry %s? Type Y to confirm: ", subject); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}
