package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TRACKBOARD"

	KeyServerPort               = "server.port"
	KeyServerPublicURL          = "server.public_url"
	KeyDatabaseDriver           = "database.driver"
	KeyDatabasePath             = "database.path"
	KeyDatabaseDSN              = "database.dsn"
	KeyDatabaseMaxConns         = "database.max_conns"
	KeyDatabaseMinConns         = "database.min_conns"
	KeyFilesDir                 = "files.dir"
	KeyLLMAPIKey                = "llm.api_key"
	KeyLLMModel                 = "llm.model"
	KeyLLMBaseURL               = "llm.base_url"
	KeyLLMMaxTokens             = "llm.max_tokens"
	KeyTranscriptAllowedPrefix  = "transcript.allowed_prefixes"
	KeyTranscriptTimeout        = "transcript.timeout"
	KeyLogLevel                 = "log.level"
	KeyLogFormat                = "log.format"
	DriverSQLite                = "sqlite"
	DriverPostgres              = "postgres"
	DefaultTranscriptLinkPrefix = "https://chatgpt.com/share/"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Files      FilesConfig      `mapstructure:"files"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Transcript TranscriptConfig `mapstructure:"transcript"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
	// PublicURL prefixes blob URLs; empty means http://localhost:<port>.
	PublicURL string `mapstructure:"public_url" validate:"omitempty,url"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	Path     string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	DSN      string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	MaxConns int32  `mapstructure:"max_conns" validate:"min=1"`
	MinConns int32  `mapstructure:"min_conns" validate:"min=0,ltefield=MaxConns"`
}

type FilesConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type LLMConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model" validate:"required"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
	MaxTokens int64  `mapstructure:"max_tokens" validate:"min=1,max=64000"`
}

// Enabled reports whether an API key is configured.
func (c LLMConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type TranscriptConfig struct {
	AllowedPrefixes []string      `mapstructure:"allowed_prefixes" validate:"required,min=1,dive,url"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"min=1s"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// PublicBaseURL resolves the base URL used when handing out blob links.
func (c Config) PublicBaseURL() string {
	if value := strings.TrimRight(strings.TrimSpace(c.Server.PublicURL), "/"); value != "" {
		return value
	}
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// BindEnv enables TRACKBOARD_* environment overrides, e.g. TRACKBOARD_LLM_API_KEY.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# trackboard configuration
server:
  port: 8080
  public_url: ""

database:
  # sqlite (local file) or postgres
  driver: "sqlite"
  path: "./trackboard.db"
  dsn: ""
  max_conns: 10
  min_conns: 0

files:
  dir: "./trackboard-files"

llm:
  # or set TRACKBOARD_LLM_API_KEY
  api_key: ""
  model: "claude-sonnet-4-5"
  base_url: ""
  max_tokens: 1024

transcript:
  allowed_prefixes:
    - "https://chatgpt.com/share/"
  timeout: 30s

log:
  level: "info"
  format: "text"
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerPort, 8080)
	v.SetDefault(KeyServerPublicURL, "")
	v.SetDefault(KeyDatabaseDriver, DriverSQLite)
	v.SetDefault(KeyDatabasePath, "./trackboard.db")
	v.SetDefault(KeyDatabaseDSN, "")
	v.SetDefault(KeyDatabaseMaxConns, 10)
	v.SetDefault(KeyDatabaseMinConns, 0)
	v.SetDefault(KeyFilesDir, "./trackboard-files")
	v.SetDefault(KeyLLMAPIKey, "")
	v.SetDefault(KeyLLMModel, "claude-sonnet-4-5")
	v.SetDefault(KeyLLMBaseURL, "")
	v.SetDefault(KeyLLMMaxTokens, 1024)
	v.SetDefault(KeyTranscriptAllowedPrefix, []string{DefaultTranscriptLinkPrefix})
	v.SetDefault(KeyTranscriptTimeout, "30s")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}
