package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trackboard/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. The API key
is masked; environment overrides are already applied.`,
	Example: `
  # Show active configuration
  trackboard config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		out := cmd.OutOrStdout()
		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Fprintln(out, "Config file loaded from:", configPath)
		} else {
			fmt.Fprintln(out, "No config file loaded, showing defaults and environment overrides.")
		}
		fmt.Fprintln(out, "Configuration:")
		printConfig(out, cfg)
		return nil
	},
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "server.port: %d\n", cfg.Server.Port)
	fmt.Fprintf(out, "server.public_url: %s\n", cfg.PublicBaseURL())
	fmt.Fprintf(out, "database.driver: %s\n", cfg.Database.Driver)
	if cfg.Database.Driver == config.DriverPostgres {
		fmt.Fprintf(out, "database.dsn: %s\n", maskDSN(cfg.Database.DSN))
		fmt.Fprintf(out, "database.max_conns: %d\n", cfg.Database.MaxConns)
		fmt.Fprintf(out, "database.min_conns: %d\n", cfg.Database.MinConns)
	} else {
		fmt.Fprintf(out, "database.path: %s\n", cfg.Database.Path)
	}
	fmt.Fprintf(out, "files.dir: %s\n", cfg.Files.Dir)
	fmt.Fprintf(out, "llm: %s\n", llmStatus(cfg.LLM))
	fmt.Fprintf(out, "llm.api_key: %s\n", maskSecret(cfg.LLM.APIKey))
	fmt.Fprintf(out, "llm.model: %s\n", cfg.LLM.Model)
	if cfg.LLM.BaseURL != "" {
		fmt.Fprintf(out, "llm.base_url: %s\n", cfg.LLM.BaseURL)
	}
	fmt.Fprintf(out, "llm.max_tokens: %d\n", cfg.LLM.MaxTokens)
	for i, prefix := range cfg.Transcript.AllowedPrefixes {
		fmt.Fprintf(out, "transcript.allowed_prefixes[%d]: %s\n", i, prefix)
	}
	fmt.Fprintf(out, "transcript.timeout: %s\n", cfg.Transcript.Timeout)
	fmt.Fprintf(out, "log.level: %s\n", cfg.Log.Level)
	fmt.Fprintf(out, "log.format: %s\n", cfg.Log.Format)
}

func llmStatus(cfg config.LLMConfig) string {
	if cfg.Enabled() {
		return "enabled"
	}
	return "disabled (no api key)"
}

// maskSecret keeps the last four characters of longer secrets.
func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "(not set)"
	case len(value) <= 8:
		return "****"
	default:
		return "****" + value[len(value)-4:]
	}
}

// maskDSN hides the password of a URL-style DSN.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	credentials := dsn[scheme+3 : at]
	colon := strings.Index(credentials, ":")
	if colon < 0 {
		return dsn
	}
	return dsn[:scheme+3] + credentials[:colon] + ":****" + dsn[at:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
