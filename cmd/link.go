package cmd

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"trackboard/project"
)

var linkDescription string

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage links attached to a project",
	Example: `
  trackboard link add 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 https://github.com/me/dashboard --description repo
  trackboard link list 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23
  trackboard link delete 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 b7e4a9d2-5c3f-4a1e-8d6b-2f9c0e1a7b54
`,
}

var linkAddCmd = &cobra.Command{
	Use:   "add <projectId> <url>",
	Short: "Attach a URL to a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := newLinkInput(args[1], linkDescription)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.store.CreateLink(cmd.Context(), args[0], input.URL, input.Description)
		if err != nil {
			return fmt.Errorf("add link: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Link added: %s (%s)\n", created.URL, created.ID)
		return nil
	},
}

var linkListCmd = &cobra.Command{
	Use:   "list <projectId>",
	Short: "List links of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		links, err := a.store.ListLinks(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("list links: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(links) == 0 {
			fmt.Fprintln(out, "No links.")
			return nil
		}
		for _, link := range links {
			fmt.Fprintf(out, "%s  %s  %s\n", link.ID, link.URL, link.Description)
		}
		return nil
	},
}

var linkDeleteCmd = &cobra.Command{
	Use:   "delete <projectId> <linkId>",
	Short: "Remove a link from a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.DeleteLink(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("delete link %s: %w", args[1], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Link deleted.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.AddCommand(linkAddCmd, linkListCmd, linkDeleteCmd)

	linkAddCmd.Flags().StringVarP(&linkDescription, "description", "d", "", "Short description shown next to the link")
}

func newLinkInput(rawURL, description string) (project.NewLink, error) {
	input := project.NewLink{
		URL:         strings.TrimSpace(rawURL),
		Description: strings.TrimSpace(description),
	}
	if err := validator.New().Struct(input); err != nil {
		return project.NewLink{}, fmt.Errorf("invalid link %q: must be an absolute URL", rawURL)
	}
	return input, nil
}
