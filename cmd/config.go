package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the timeboard configuration file.",
	Long: `Create and display the timeboard configuration file.

Every key can also be set through the environment as TIMEBOARD_<SECTION>_<KEY>, for example
TIMEBOARD_TOGGL_API_TOKEN or TIMEBOARD_TEMPO_JIRA_EMAIL. Environment values win over the file.`,
	Example: `
  # Create default config in $HOME/.timeboard.yaml
  timeboard config create

  # Show active config and source file
  timeboard config show
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
