package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackboard/web"
)

var syncFocus string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ask the model for new project ideas and import them",
	Long: `Send the names of existing projects to the configured model, ask for
projects that are not tracked yet, and import the suggestions.

Requires llm.api_key (or TRACKBOARD_LLM_API_KEY).`,
	Example: `
  trackboard sync
  trackboard sync --focus "home automation"
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireModel(); err != nil {
			return err
		}
		imported, suggestions, err := web.SyncProjects(cmd.Context(), a.store, a.suggester, syncFocus)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, item := range suggestions {
			fmt.Fprintf(out, "  %s: %s\n", item.Name, item.Summary)
		}
		fmt.Fprintf(out, "Sync completed. Suggested: %d, Imported: %d\n", len(suggestions), imported)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncFocus, "focus", "", "Topic the suggestions should focus on")
}
