package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage trackboard configuration file values.",
	Long: `Create, edit, display, and delete the trackboard configuration file.

The configuration stores:
- server.port / server.public_url
- database.driver (sqlite|postgres) with path or dsn
- files.dir
- llm.api_key / llm.model / llm.base_url / llm.max_tokens
- transcript.allowed_prefixes / transcript.timeout
- log.level / log.format

Every key can be overridden by an environment variable, e.g.
TRACKBOARD_LLM_API_KEY or TRACKBOARD_DATABASE_DRIVER.`,
	Example: `
  # Create default config in $HOME/.trackboard.yaml
  trackboard config create

  # Show active config and source file
  trackboard config show

  # Open active config in editor (creates example if missing)
  trackboard config edit

  # Delete active config file
  trackboard config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
