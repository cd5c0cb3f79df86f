/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"timeboard/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "timeboard",
	Short: "Collect time entries from Toggl, Tempo, file exports and manual input in one place.",
	Long: `
**********************************************
*                TIMEBOARD                   *
**********************************************

This CLI syncs time entries from Toggl Track and Tempo, imports their CSV/Excel exports,
records manual entries, and keeps everything in a local SQLite database.
The same data is served as a JSON API by "timeboard serve".

Providers:
- toggl: Toggl Track API v9 (toggl.api_token)
- tempo: Tempo API v4 (tempo.api_token), optional Jira issue lookup

Import adapters:
- toggl-csv: Toggl detailed export (.csv, .xlsx)
- tempo-matrix: Tempo timesheet matrix export (.csv, .xlsx)
`,
	Example: `
  # Create configuration file
  timeboard config create

  # Sync all configured providers (cache is reused for 10 minutes)
  timeboard sync

  # Re-fetch Tempo for January, bypassing the cache
  timeboard sync tempo --from 2026-01-01 --to 2026-01-31

  # Import a Toggl detailed export
  timeboard import -i ./toggl-detailed.csv --adapter toggl-csv

  # Record a manual entry
  timeboard add --date 2026-01-22 --start 09:00 --end 10:30 --project Platform

  # Show provider status and totals
  timeboard status

  # Start the JSON API
  timeboard serve
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.timeboard.yaml, then ./.timeboard.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".timeboard")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found, using defaults and TIMEBOARD_* environment. Create one with: timeboard config create")
	}
}
