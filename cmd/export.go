package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trackboard/internal/timeutil"
	"trackboard/output"
	"trackboard/storage"
)

var (
	exportFormat  string
	exportMode    string
	exportOutput  string
	exportProject string
	exportFrom    string
	exportTo      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export time logs to CSV/Excel",
	Long: `Export time logs from the database.

Modes:
- raw: one row per project and UTC day
- daily: per-day totals across all projects
- totals: per-project totals with first and last logged day

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export raw rows to CSV
  trackboard export --mode raw --output ./timelogs.csv

  # Export per-project totals to Excel
  trackboard export --mode totals --output ./totals.xlsx

  # Export March for one project
  trackboard export --project 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 --from 2026-03-01 --to 2026-03-31 --output ./march.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := exportFilter(exportProject, exportFrom, exportTo)
		if err != nil {
			return err
		}

		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = output.DetectFormat(exportOutput)
		}
		writer, err := output.WriterForFormat(format)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		table, err := buildExportTable(cmd.Context(), a.store, exportMode, filter)
		if err != nil {
			return err
		}
		if err := writer.Write(exportOutput, table); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Export completed. Rows: %d, Mode: %s, Format: %s, File: %s\n", len(table.Rows), exportMode, format, exportOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", output.ModeRaw, "Export mode: "+strings.Join(output.SupportedModes(), "|"))
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportProject, "project", "", "Only export this project ID")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day to include, YYYY-MM-DD (UTC)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day to include, YYYY-MM-DD (UTC)")

	_ = exportCmd.MarkFlagRequired("output")
}

func exportFilter(projectID, from, to string) (storage.TimeLogFilter, error) {
	filter := storage.TimeLogFilter{
		ProjectID: strings.TrimSpace(projectID),
		From:      strings.TrimSpace(from),
		To:        strings.TrimSpace(to),
	}
	for flag, value := range map[string]string{"--from": filter.From, "--to": filter.To} {
		if value == "" {
			continue
		}
		if _, err := timeutil.ParseDayKey(value); err != nil {
			return storage.TimeLogFilter{}, fmt.Errorf("invalid %s value %q (expected YYYY-MM-DD)", flag, value)
		}
	}
	if filter.From != "" && filter.To != "" && filter.From > filter.To {
		return storage.TimeLogFilter{}, fmt.Errorf("invalid range: --from must be <= --to")
	}
	return filter, nil
}

func buildExportTable(ctx context.Context, store storage.Store, mode string, filter storage.TimeLogFilter) (output.Table, error) {
	logs, err := store.ListTimeLogs(ctx, filter)
	if err != nil {
		return output.Table{}, fmt.Errorf("list time logs: %w", err)
	}
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return output.Table{}, fmt.Errorf("list projects: %w", err)
	}
	names := make(map[string]string, len(projects))
	for _, item := range projects {
		names[item.ID] = item.Name
	}
	return output.BuildTable(mode, logs, names)
}
