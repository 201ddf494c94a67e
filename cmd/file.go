package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var fileUploadName string

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Upload, list, and delete files stored under a project",
	Long: `Files are stored under files.dir in one folder per project and are served
by the web dashboard at <public_url>/files/<projectId>/<name>.`,
	Example: `
  trackboard file upload 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 ./notes.pdf
  trackboard file upload 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 ./export.csv --name march.csv
  trackboard file list 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23
  trackboard file delete 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 march.csv
`,
}

var fileUploadCmd = &cobra.Command{
	Use:   "upload <projectId> <path>",
	Short: "Upload a local file to a project (replaces a file with the same name)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := strings.TrimSpace(fileUploadName)
		if name == "" {
			name = filepath.Base(args[1])
		}

		source, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[1], err)
		}
		defer source.Close()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.store.GetProject(ctx, args[0]); err != nil {
			return fmt.Errorf("load project %s: %w", args[0], err)
		}
		stored, err := a.files.Upload(ctx, args[0], name, source)
		if err != nil {
			return fmt.Errorf("upload %s: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d bytes): %s\n", stored.Name, stored.Size, stored.URL)
		return nil
	},
}

var fileListCmd = &cobra.Command{
	Use:   "list <projectId>",
	Short: "List files of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.files.List(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(files) == 0 {
			fmt.Fprintln(out, "No files.")
			return nil
		}
		for _, file := range files {
			fmt.Fprintf(out, "%s  %d bytes  %s  %s\n", file.Name, file.Size, file.UpdatedAt.UTC().Format("2006-01-02 15:04"), file.URL)
		}
		return nil
	},
}

var fileDeleteCmd = &cobra.Command{
	Use:   "delete <projectId> <name>",
	Short: "Delete a file from a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.files.Delete(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("delete %s: %w", args[1], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "File deleted.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
	fileCmd.AddCommand(fileUploadCmd, fileListCmd, fileDeleteCmd)

	fileUploadCmd.Flags().StringVar(&fileUploadName, "name", "", "Stored file name (default: base name of the path)")
}
