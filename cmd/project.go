package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"trackboard/internal/timeutil"
	"trackboard/project"
	"trackboard/storage"
)

var (
	projectAddName       string
	projectAddSummary    string
	projectAddInProgress bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create, inspect, rename, and delete projects",
	Example: `
  trackboard project add --name "Dashboard" --summary "personal tracker"
  trackboard project list
  trackboard project show 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23
  trackboard project rename 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 "Trackboard"
  trackboard project state 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23 done
  trackboard project delete 3f1c2b9e-7a4d-4e21-9b6a-0c5d8e7f1a23
`,
}

var projectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a project",
	Long: `Create a project. Without --name an interactive form asks for the
name, summary, and whether the project is in progress.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := project.NewProject{
			Name:       strings.TrimSpace(projectAddName),
			Summary:    strings.TrimSpace(projectAddSummary),
			InProgress: projectAddInProgress,
		}
		if input.Name == "" {
			if err := promptNewProject(cmd.Context(), &input); err != nil {
				return err
			}
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.store.CreateProject(cmd.Context(), input)
		if err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Project created: %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects with their latest activity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		projects, err := a.store.ListProjects(cmd.Context())
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		printProjects(cmd.OutOrStdout(), projects)
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <projectId>",
	Short: "Show one project with activities, time logs, links, and files",
	Args:  cobra.ExactArgs(1),
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
		logs, err := a.store.ListTimeLogs(ctx, storage.TimeLogFilter{ProjectID: found.ID})
		if err != nil {
			return fmt.Errorf("list time logs: %w", err)
		}
		links, err := a.store.ListLinks(ctx, found.ID)
		if err != nil {
			return fmt.Errorf("list links: %w", err)
		}
		files, err := a.files.List(ctx, found.ID)
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", found.Name, found.ID)
		fmt.Fprintf(out, "state: %s\n", projectState(found.InProgress))
		if found.Summary != "" {
			fmt.Fprintf(out, "summary: %s\n", found.Summary)
		}

		var total int64
		fmt.Fprintf(out, "\ntime logs: %d\n", len(logs))
		for _, entry := range logs {
			total += entry.DurationSeconds
			fmt.Fprintf(out, "  %s  %s\n", entry.Date, timeutil.FormatClock(entry.DurationSeconds))
		}
		fmt.Fprintf(out, "  total       %s\n", timeutil.FormatClock(total))

		fmt.Fprintf(out, "\nactivities: %d\n", len(found.Activities))
		for _, activity := range found.Activities {
			fmt.Fprintf(out, "  %s  %s\n", activity.CreatedAt.UTC().Format("2006-01-02 15:04"), firstLine(activity.Summary))
		}

		fmt.Fprintf(out, "\nlinks: %d\n", len(links))
		for _, link := range links {
			fmt.Fprintf(out, "  %s  %s %s\n", link.ID, link.URL, link.Description)
		}

		fmt.Fprintf(out, "\nfiles: %d\n", len(files))
		for _, file := range files {
			fmt.Fprintf(out, "  %s  %d bytes  %s\n", file.Name, file.Size, file.URL)
		}
		return nil
	},
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename <projectId> <name>",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[1])
		if name == "" {
			return errors.New("project name is required")
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.RenameProject(cmd.Context(), args[0], name); err != nil {
			return fmt.Errorf("rename project %s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Project name updated.")
		return nil
	},
}

var projectStateCmd = &cobra.Command{
	Use:   "state <projectId> <active|done>",
	Short: "Mark a project as in progress or done",
	Long: `Set the in-progress flag. Accepted values: active, done, or any boolean
spelling (true/false, yes/no, on/off, 1/0).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inProgress, err := parseProjectState(args[1])
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.SetProjectInProgress(cmd.Context(), args[0], inProgress); err != nil {
			return fmt.Errorf("update project %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Project state: %s\n", projectState(inProgress))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectShowCmd, projectRenameCmd, projectStateCmd)

	projectAddCmd.Flags().StringVarP(&projectAddName, "name", "n", "", "Project name (prompted when omitted)")
	projectAddCmd.Flags().StringVar(&projectAddSummary, "summary", "", "Short project description")
	projectAddCmd.Flags().BoolVar(&projectAddInProgress, "active", false, "Mark the project as in progress")
}

func promptNewProject(ctx context.Context, input *project.NewProject) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project name").Value(&input.Name).Validate(func(value string) error {
				if strings.TrimSpace(value) == "" {
					return errors.New("name is required")
				}
				return nil
			}),
			huh.NewText().Title("Summary").Value(&input.Summary),
			huh.NewConfirm().Title("In progress?").Value(&input.InProgress),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("project add aborted")
		}
		return fmt.Errorf("project form: %w", err)
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Summary = strings.TrimSpace(input.Summary)
	return nil
}

func printProjects(out io.Writer, projects []project.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects yet. Create one with: trackboard project add")
		return
	}
	for _, item := range projects {
		fmt.Fprintf(out, "%s  %-6s  %s\n", item.ID, projectState(item.InProgress), item.Name)
		if len(item.Activities) > 0 {
			fmt.Fprintf(out, "    latest: %s\n", firstLine(item.Activities[0].Summary))
		}
	}
}

func parseProjectState(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "active", "in-progress", "in_progress", "progress":
		return true, nil
	case "done", "finished", "closed":
		return false, nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err == nil {
		return parsed, nil
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid project state %q (supported: active|done)", value)
}

func projectState(inProgress bool) string {
	if inProgress {
		return "active"
	}
	return "done"
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx] + " …"
	}
	return text
}
