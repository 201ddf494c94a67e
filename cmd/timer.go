package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackboard/tui"
)

var timerNoAutoStart bool

var timerCmd = &cobra.Command{
	Use:   "timer <projectId>",
	Short: "Run a terminal stopwatch and log the session",
	Long: `Open a terminal stopwatch for a project.

Keys: s start, space/p pause or resume, x stop, q quit.
Stopping asks for an optional summary; enter logs the elapsed time to
today's (UTC) time log, esc returns to the stopwatch. Quitting never logs.`,
	Example: `
  trackboard timer 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23

  # Wait for "s" before counting
  trackboard timer 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 --no-start
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		found, err := a.store.GetProject(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load project %s: %w", args[0], err)
		}

		result, err := tui.Run(cmd.Context(), a.timeLogs, tui.Options{
			ProjectID:   found.ID,
			ProjectName: found.Name,
			AutoStart:   !timerNoAutoStart,
		})
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Timer closed without logging.")
			return nil
		}
		printLogResult(cmd, *result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timerCmd)

	timerCmd.Flags().BoolVar(&timerNoAutoStart, "no-start", false, "Do not start the stopwatch immediately")
}
