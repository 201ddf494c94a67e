package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var projectDeleteYes bool

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <projectId>",
	Short: "Delete a project with all its activities, time logs, links, and files",
	Long: `Destructive project cleanup command.

Removes the project row, its activities, time logs, and links, then every
uploaded file of the project. Before deletion, an interactive security prompt
requires typing exactly "Y" unless --yes is given.`,
	Example: `
  trackboard project delete 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		found, err := a.store.GetProject(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load project %s: %w", args[0], err)
		}

		if !projectDeleteYes {
			confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, fmt.Sprintf("project %q and everything attached to it", found.Name))
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("delete aborted: confirmation was not 'Y'")
			}
		}

		if err := a.deleteProject(ctx, found.ID); err != nil {
			return fmt.Errorf("delete project %s: %w", found.ID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted project: %s (%s)\n", found.Name, found.ID)
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectDeleteCmd)

	projectDeleteCmd.Flags().BoolVarP(&projectDeleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

// confirmDeletePrompt asks whether subject should be deleted; only an exact "Y" confirms.
func confirmDeletePrompt(input io.Reader, output io.Writer, subject string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete %s? Type Y to confirm: ", subject); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}
