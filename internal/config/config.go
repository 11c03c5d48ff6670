// Package config provides configuration management for the insights dashboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // display zone must resolve on hosts without a zoneinfo database

	"github.com/spf13/viper"

	apperrors "insights-dashboard/internal/errors"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

// Config holds all application configuration.
type Config struct {
	Environment string          `mapstructure:"environment"`
	Store       StoreConfig     `mapstructure:"store"`
	Feed        FeedConfig      `mapstructure:"feed"`
	Server      ServerConfig    `mapstructure:"server"`
	UI          UIConfig        `mapstructure:"ui"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Assistant   AssistantConfig `mapstructure:"assistant"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend         string        `mapstructure:"backend"` // firestore, sqlite, memory
	ProjectID       string        `mapstructure:"project_id"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	EmulatorHost    string        `mapstructure:"emulator_host"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	WatchFile       bool          `mapstructure:"watch_file"`
}

// FeedConfig holds the live query parameters.
type FeedConfig struct {
	Collection string `mapstructure:"collection"`
	Limit      int    `mapstructure:"limit"`
}

// ServerConfig holds web dashboard configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// Heartbeat is the interval of SSE keep-alive comments.
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Locale       string `mapstructure:"locale"`
	Timezone     string `mapstructure:"timezone"`
	ColorEnabled bool   `mapstructure:"color_enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// AssistantConfig configures the "ask the assistant" side channel.
type AssistantConfig struct {
	ChatURL string `mapstructure:"chat_url"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/insights-dashboard"
	}
	return filepath.Join(home, ".config", "insights-dashboard")
}

// Load loads configuration from the specified directory for the given
// environment. If configDir is empty, uses the default config directory.
// If env is empty, INSIGHTS_ENV or the file's environment key is used.
func Load(configDir, env string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	setDefaults(v, configDir)

	if err := readConfigFile(v, configDir, "config"); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if env == "" {
		env = os.Getenv("INSIGHTS_ENV")
	}
	if env == "" {
		env = v.GetString("environment")
	}
	v.Set("environment", env)
	applyEnvironment(v, env)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("environment", EnvDevelopment)

	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.project_id", "")
	v.SetDefault("store.sqlite_path", filepath.Join(configDir, "insights.db"))
	v.SetDefault("store.poll_interval", 5*time.Second)
	v.SetDefault("store.watch_file", true)

	v.SetDefault("feed.collection", "daily_insights")
	v.SetDefault("feed.limit", 20)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.heartbeat", 25*time.Second)

	v.SetDefault("ui.locale", "he-IL")
	v.SetDefault("ui.timezone", "Asia/Jerusalem")
	v.SetDefault("ui.color_enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "insights.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("assistant.chat_url", "https://chat.openai.com")
}

func readConfigFile(v *viper.Viper, configDir, name string) error {
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template and read it back
			if err := createTemplateConfig(configDir, name); err != nil {
				return err
			}
			return v.ReadInConfig()
		}
		return err
	}
	return nil
}

// applyEnvironment overlays the [environments.<env>] table onto the base
// settings.
func applyEnvironment(v *viper.Viper, env string) {
	sub := v.Sub("environments." + env)
	if sub == nil {
		return
	}
	for _, key := range sub.AllKeys() {
		v.Set(key, sub.Get(key))
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INSIGHTS_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("INSIGHTS_PROJECT_ID"); v != "" {
		cfg.Store.ProjectID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Store.CredentialsFile == "" {
		cfg.Store.CredentialsFile = v
	}
	if v := os.Getenv("FIRESTORE_EMULATOR_HOST"); v != "" {
		cfg.Store.EmulatorHost = v
	}
	if v := os.Getenv("INSIGHTS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("%w: environment %q (must be 'development' or 'production')", apperrors.ErrConfigInvalid, c.Environment)
	}

	switch c.Store.Backend {
	case BackendFirestore:
		if c.Store.ProjectID == "" {
			return fmt.Errorf("%w: store.project_id is required for the firestore backend", apperrors.ErrConfigInvalid)
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("%w: store.sqlite_path is required for the sqlite backend", apperrors.ErrConfigInvalid)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: store.backend %q (must be firestore, sqlite or memory)", apperrors.ErrConfigInvalid, c.Store.Backend)
	}

	if c.Store.PollInterval < 0 {
		return fmt.Errorf("%w: store.poll_interval must be non-negative", apperrors.ErrConfigInvalid)
	}
	if strings.TrimSpace(c.Feed.Collection) == "" {
		return fmt.Errorf("%w: feed.collection must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Feed.Limit <= 0 || c.Feed.Limit > 100 {
		return fmt.Errorf("%w: feed.limit must be between 1 and 100", apperrors.ErrConfigInvalid)
	}
	if _, err := time.LoadLocation(c.UI.Timezone); err != nil {
		return fmt.Errorf("%w: ui.timezone %q: %v", apperrors.ErrConfigInvalid, c.UI.Timezone, err)
	}

	return nil
}

// IsProduction returns true for the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Location returns the configured display time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.UI.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
