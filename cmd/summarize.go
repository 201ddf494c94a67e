package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <projectId> <link>",
	Short: "Summarize a shared conversation into a project activity",
	Long: `Fetch a shared conversation page, extract the conversation, ask the
configured model for a markdown summary, and store it as an activity.

Only links starting with one of transcript.allowed_prefixes are fetched.
Requires llm.api_key (or TRACKBOARD_LLM_API_KEY).`,
	Example: `
  trackboard summarize 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 https://chatgpt.com/share/6790c0de-1234
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireModel(); err != nil {
			return err
		}
		activity, err := a.transcripts.SummarizeInto(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Activity recorded: %s\n\n", activity.ID)
		fmt.Fprintln(out, activity.Summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}
