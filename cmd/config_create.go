package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCreateForce bool

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the same example template used by "config edit".

If a configuration file is already in use, no new file is written unless --force
is given; the previous file is then kept next to it with a .bak suffix.`,
	Example: `
  # Create default config at $HOME/.trackboard.yaml
  trackboard config create

  # Reset the active config to the template
  trackboard config create --force
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveDefaultConfig(configCreateForce)
	},
}

func saveDefaultConfig(force bool) error {
	configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
	if err != nil {
		return err
	}

	if force {
		backup, err := resetConfigFile(configPath)
		if err != nil {
			return err
		}
		if backup != "" {
			fmt.Printf("Previous config saved as: %s\n", backup)
		}
	}

	created, err := ensureConfigFileWithTemplate(configPath)
	if err != nil {
		return err
	}

	if created {
		fmt.Printf("New config file created at: %s\n", configPath)
		return nil
	}

	fmt.Printf("Config file already exists at: %s (use --force to replace it)\n", configPath)
	return nil
}

// resetConfigFile moves an existing config to <path>.bak and returns the
// backup path, or "" when there was nothing to move.
func resetConfigFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("checking config file failed: %w", err)
	}
	backup := path + ".bak"
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("backing up config file failed: %w", err)
	}
	return backup, nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)

	configCreateCmd.Flags().BoolVar(&configCreateForce, "force", false, "Replace an existing config file with the example template")
}
