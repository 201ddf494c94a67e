package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackboard/config"
	"trackboard/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Long: `Apply pending schema migrations for the configured database.

PostgreSQL runs the embedded goose migrations. SQLite creates its schema on
open, so this only verifies the database file can be opened.`,
	Example: `
  trackboard migrate
  TRACKBOARD_DATABASE_DRIVER=postgres TRACKBOARD_DATABASE_DSN=postgres://localhost/trackboard trackboard migrate
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if cfg.Database.Driver != config.DriverPostgres {
			store, err := storage.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(out, "SQLite schema ready: %s\n", cfg.Database.Path)
			return nil
		}

		applied, err := storage.MigratePostgres(cmd.Context(), cfg.Database.DSN)
		if err != nil {
			return err
		}
		for _, migration := range applied {
			fmt.Fprintf(out, "applied %d: %s\n", migration.Version, migration.Path)
		}
		fmt.Fprintf(out, "Migrations completed. Applied: %d\n", len(applied))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
