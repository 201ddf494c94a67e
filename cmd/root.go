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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trackboard/config"
)

const configName = ".trackboard"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trackboard",
	Short: "Track time, activities, links, and files for personal projects.",
	Long: `
**********************************************
*               TRACKBOARD                   *
**********************************************

A personal project dashboard. Time is logged per project and UTC day,
activities are free-text notes (optionally summarized from shared
conversations), and links and files are stored alongside each project.

Everything is available from the web dashboard (trackboard serve) and from
this CLI. Data lives in SQLite by default or in PostgreSQL.
`,
	Example: `
  # Create configuration file
  trackboard config create

  # Add a project and start a stopwatch for it
  trackboard project add --name "Dashboard"
  trackboard timer <projectId>

  # Log 25 minutes with a note
  trackboard log <projectId> 25m --summary "wired the store"

  # Start the web dashboard
  trackboard serve

  # Import projects from a spreadsheet
  trackboard import -i ./projects.xlsx

  # Export per-project totals
  trackboard export --mode totals --output ./totals.csv
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

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.trackboard.yaml, then ./.trackboard.yaml)")
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
		viper.SetConfigName(configName)
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found, using defaults. Create one with: trackboard config create")
	}
}
