package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trackboard/importer"
	"trackboard/storage"
)

var (
	importInputs []string
	importFormat string
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import projects from CSV, Excel, or JSON files",
	Long: `Read source files, map each row to a project, and insert all projects in one
transaction.

Recognized columns (case and spacing are ignored):
- project_name / name / project: required, rows without a name are skipped
- summary / description: optional
- in_progress / active / status: optional flag (yes/no, true/false, 1/0, x)

JSON input is either an array of objects or {"projects": [...]}.
When --format is omitted, format is inferred from each input file extension.`,
	Example: `
  # Import one spreadsheet
  trackboard import -i ./projects.xlsx

  # Import several files, forcing CSV parsing
  trackboard import -i ./a.txt -i ./b.txt --format csv

  # Only report what would be imported
  trackboard import -i ./projects.json --dry-run
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := importer.Run(importInputs, importFormat)
		if err != nil {
			return err
		}

		if importDryRun {
			fmt.Fprintln(cmd.OutOrStdout(), formatImportSummary(result, 0, true))
			for _, item := range result.Projects {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", item.Name, projectState(item.InProgress))
			}
			return nil
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		inserted, err := persistImport(cmd.Context(), a.store, result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatImportSummary(result, inserted, false))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringArrayVarP(&importInputs, "input", "i", nil, "Input file path (repeatable)")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: "+strings.Join(importer.SupportedFormats(), "|")+" (optional, inferred from extension when omitted)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and map only, do not write to the database")

	_ = importCmd.MarkFlagRequired("input")
}

func persistImport(ctx context.Context, store storage.Store, result *importer.Result) (int, error) {
	if len(result.Projects) == 0 {
		return 0, nil
	}
	inserted, err := store.ImportProjects(ctx, result.Projects)
	if err != nil {
		return 0, fmt.Errorf("insert projects: %w", err)
	}
	return inserted, nil
}

func formatImportSummary(result *importer.Result, persisted int, dryRun bool) string {
	prefix := "Import completed."
	if dryRun {
		prefix = "Dry run."
	}
	return fmt.Sprintf("%s Files: %d, Rows read: %d, Rows mapped: %d, Rows skipped: %d, Projects persisted: %d",
		prefix,
		result.FilesProcessed,
		result.RowsRead,
		result.RowsMapped,
		result.RowsSkipped,
		persisted,
	)
}
