package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trackboard/config"
)

var configEditEditor string

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active trackboard config file in an editor and validate the result.

The editor is taken from --editor, then $TRACKBOARD_EDITOR, $VISUAL and $EDITOR,
and finally vi. A missing config file is first created from the example template.

If the edited file does not validate, the previous content is put back and the
rejected edit is kept next to it with a .rejected suffix.`,
	Example: `
  # Edit active config
  trackboard config edit

  # Edit a specific file with a blocking GUI editor
  trackboard --configFile ./dev.yaml config edit --editor "code --wait"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		created, err := ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", configPath)
		}

		previous, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading config before edit: %w", err)
		}

		editor := resolveEditorValue(configEditEditor, os.Getenv(config.EnvPrefix+"_EDITOR"), os.Getenv("VISUAL"), os.Getenv("EDITOR"))
		editorCommand, err := buildEditorCommand(editor, configPath)
		if err != nil {
			return err
		}
		editorCommand.Stdin = os.Stdin
		editorCommand.Stdout = os.Stdout
		editorCommand.Stderr = os.Stderr
		if err := editorCommand.Run(); err != nil {
			return fmt.Errorf("editor %q failed: %w", editor, err)
		}

		cfg, err := acceptEditedConfig(configPath, previous)
		if err != nil {
			return err
		}

		fmt.Printf("Configuration saved and validated: %s\n", configPath)
		fmt.Printf("database: %s, llm: %s\n", cfg.Database.Driver, llmStatus(cfg.LLM))
		return nil
	},
}

// resolveConfigEditPath picks --configFile, then the file viper loaded, then
// $HOME/.trackboard.yaml.
func resolveConfigEditPath(configFileFlag, configFileUsed string) (string, error) {
	if path := firstNonBlank(configFileFlag, configFileUsed); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// ensureConfigFileWithTemplate writes the example config to path unless a
// file is already there. It reports whether it wrote one.
func ensureConfigFileWithTemplate(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating config file: %w", err)
	}
	if _, err := file.WriteString(config.ExampleYAML()); err != nil {
		file.Close()
		return false, fmt.Errorf("writing example config: %w", err)
	}
	if err := file.Close(); err != nil {
		return false, fmt.Errorf("writing example config: %w", err)
	}
	return true, nil
}

// acceptEditedConfig validates the file at path. On failure the edit is moved
// to <path>.rejected and previous is written back.
func acceptEditedConfig(path string, previous []byte) (*config.Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading edited config: %w", err)
	}

	cfg, validateErr := config.ValidateYAMLContent(content)
	if validateErr == nil {
		return cfg, nil
	}

	rejected := path + ".rejected"
	if err := os.WriteFile(rejected, content, 0o600); err != nil {
		return nil, fmt.Errorf("config validation failed (%v) and saving the edit failed: %w", validateErr, err)
	}
	if err := os.WriteFile(path, previous, 0o600); err != nil {
		return nil, fmt.Errorf("config validation failed (%v) and restoring %s failed: %w", validateErr, path, err)
	}
	return nil, fmt.Errorf("config validation failed, previous config restored and edit kept at %s: %w", rejected, validateErr)
}

// resolveEditorValue returns the first non-blank candidate, falling back to vi.
func resolveEditorValue(candidates ...string) string {
	if editor := firstNonBlank(candidates...); editor != "" {
		return editor
	}
	return "vi"
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// buildEditorCommand splits an editor value such as "code --wait" on spaces
// and appends the config path. Quoted arguments are not supported.
func buildEditorCommand(editorValue, configPath string) (*exec.Cmd, error) {
	fields := strings.Fields(editorValue)
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}
	return exec.Command(fields[0], append(fields[1:], configPath)...), nil
}

func init() {
	configCmd.AddCommand(configEditCmd)

	configEditCmd.Flags().StringVar(&configEditEditor, "editor", "", "Editor command to use instead of $TRACKBOARD_EDITOR, $VISUAL or $EDITOR")
}
