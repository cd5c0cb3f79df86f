package cmd

import (
	"fmt"
	"io"
	"os"

	"timeboard/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Tokens are masked.`,
	Example: `
  # Show active configuration
  timeboard config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		} else {
			fmt.Println("No config file loaded; showing defaults and environment values.")
		}
		printConfig(os.Stdout, cfg)
		return nil
	},
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "%s: %s\n", config.KeyDatabasePath, cfg.Database.Path)
	fmt.Fprintf(w, "%s: %s\n", config.KeyCacheDir, cfg.Cache.Dir)
	fmt.Fprintf(w, "%s: %s\n", config.KeyCacheTTL, cfg.Cache.TTL)
	fmt.Fprintf(w, "%s: %d\n", config.KeyServerPort, cfg.Server.Port)
	fmt.Fprintf(w, "%s: %s\n", config.KeyTimezone, orDefault(cfg.Timezone, "UTC"))
	fmt.Fprintf(w, "%s: %s\n", config.KeySyncRequestTimeout, cfg.Sync.RequestTimeout)
	fmt.Fprintf(w, "%s: %s\n", config.KeyTogglAPIToken, maskSecret(cfg.Toggl.APIToken))
	fmt.Fprintf(w, "%s: %s\n", config.KeyTogglBaseURL, cfg.Toggl.BaseURL)
	fmt.Fprintf(w, "%s: %s\n", config.KeyTempoAPIToken, maskSecret(cfg.Tempo.APIToken))
	fmt.Fprintf(w, "%s: %s\n", config.KeyTempoBaseURL, cfg.Tempo.BaseURL)
	fmt.Fprintf(w, "%s: %s\n", config.KeyTempoJiraBaseURL, orDefault(cfg.Tempo.JiraBaseURL, "(disabled)"))
	fmt.Fprintf(w, "%s: %s\n", config.KeyTempoJiraEmail, cfg.Tempo.JiraEmail)
	fmt.Fprintf(w, "%s: %s\n", config.KeyTempoJiraAPIToken, maskSecret(cfg.Tempo.JiraAPIToken))
	fmt.Fprintf(w, "%s: %s\n", config.KeyImportMatrixDateLayout, cfg.Import.MatrixDateLayout)
	fmt.Fprintf(w, "%s: %s\n", config.KeyLogLevel, cfg.Log.Level)
}

// maskSecret keeps the last four characters of values long enough to stay unguessable.
func maskSecret(value string) string {
	switch {
	case value == "":
		return "(not set)"
	case len(value) <= 8:
		return "****"
	default:
		return "****" + value[len(value)-4:]
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
