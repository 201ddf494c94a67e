package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trackboard/internal/timeutil"
	"trackboard/timelog"
)

var logSummary string

var logCmd = &cobra.Command{
	Use:   "log <projectId> <duration>",
	Short: "Add time to today's log of a project",
	Long: `Add a duration to the project's time log for the current UTC day.

The duration is either a number of seconds ("1500") or a Go duration ("25m",
"1h30m"). Repeated calls on the same day add up. A non-empty --summary is
stored as an activity in the same transaction.`,
	Example: `
  # Log 25 minutes
  trackboard log 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 25m

  # Log 90 seconds with a note
  trackboard log 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 90 --summary "fixed flaky test"
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := parseLogDuration(args[1])
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.timeLogs.LogTime(cmd.Context(), timelog.LogTimeInput{
			ProjectID:       args[0],
			DurationSeconds: seconds,
			Summary:         logSummary,
		})
		if err != nil {
			return err
		}
		printLogResult(cmd, result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().StringVarP(&logSummary, "summary", "s", "", "Activity summary stored with this log")
}

// parseLogDuration accepts whole seconds or a Go duration string. Fractions of
// a second are dropped.
func parseLogDuration(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("duration is required")
	}

	var seconds int64
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		seconds = n
	} else {
		d, parseErr := time.ParseDuration(value)
		if parseErr != nil {
			return 0, fmt.Errorf("invalid duration %q (use seconds or e.g. 25m, 1h30m)", value)
		}
		seconds = int64(d / time.Second)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("duration must be at least one second, got %q", value)
	}
	return seconds, nil
}

func printLogResult(cmd *cobra.Command, result timelog.LogTimeResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged %s on %s. Day total: %s (was %s)\n",
		timeutil.FormatClock(result.TotalSeconds-result.PriorSeconds),
		result.Date,
		timeutil.FormatClock(result.TotalSeconds),
		timeutil.FormatClock(result.PriorSeconds),
	)
	if result.Activity != nil {
		fmt.Fprintf(out, "Activity recorded: %s\n", result.Activity.ID)
	}
}
