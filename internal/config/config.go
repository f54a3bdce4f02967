package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/NeverVane/histskim/internal/apperr"
)

// EnvDatabasePath overrides database.path when set.
const EnvDatabasePath = "HISTSKIM_DB"

// Config represents the complete configuration for histskim
type Config struct {
	// Database configuration
	Database DatabaseConfig `toml:"database"`

	// Search scope defaults
	Search SearchConfig `toml:"search"`

	// TUI configuration
	TUI TUIConfig `toml:"tui"`

	// Output configuration
	Output OutputConfig `toml:"output"`

	// Logging configuration
	Log LogConfig `toml:"log"`

	// Sentry configuration
	Sentry SentryConfig `toml:"sentry"`

	// Directory holding config.toml (computed, not stored in TOML)
	ConfigDir string `toml:"-"`
}

// DatabaseConfig contains history store settings
type DatabaseConfig struct {
	// Path to the reedline history.sqlite3 file
	Path string `toml:"path"`

	// How long a read waits on a locked database, in milliseconds
	BusyTimeoutMS int `toml:"busy_timeout_ms"`
}

// SearchConfig contains the initial query scope
type SearchConfig struct {
	// Start with the current-directory filter enabled
	RestrictToCwd bool `toml:"restrict_to_cwd"`

	// Initial location preset (session, directory, machine, everywhere).
	// Empty means derive it from restrict_to_cwd.
	Location string `toml:"location"`

	// Maximum number of rows loaded per query (0 = unlimited)
	Limit int `toml:"limit"`
}

// TUIConfig contains TUI interface settings
type TUIConfig struct {
	// Prompt shown in front of the query box
	Prompt string `toml:"prompt"`

	// Allow marking several entries before accepting
	MultiSelect bool `toml:"multi_select"`

	// Open with the detail pane expanded
	ShowDetails bool `toml:"show_details"`

	// Use the terminal's alternate screen
	AltScreen bool `toml:"alt_screen"`
}

// OutputConfig contains result and diagnostic output settings
type OutputConfig struct {
	// Result format: "plain" or "json"
	Format string `toml:"format"`

	// Separate results with NUL instead of newline
	Print0 bool `toml:"print0"`

	// Enable colored diagnostics and UI
	ColorsEnabled bool `toml:"colors_enabled"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level     string `toml:"level"`
	Output    string `toml:"output"`
	Timestamp bool   `toml:"timestamp"`
	Caller    bool   `toml:"caller"`
}

// SentryConfig contains Sentry error monitoring settings
type SentryConfig struct {
	// Enable Sentry error monitoring
	Enabled bool `toml:"enabled"`

	// Sentry DSN for error reporting
	DSN string `toml:"dsn"`

	// Environment name (development, staging, production)
	Environment string `toml:"environment"`

	// Sample rate for error reporting (0.0 to 1.0)
	SampleRate float64 `toml:"sample_rate"`

	// Debug mode for Sentry SDK
	Debug bool `toml:"debug"`
}

var (
	validFormats   = map[string]bool{"plain": true, "json": true}
	validLocations = map[string]bool{"": true, "session": true, "directory": true, "machine": true, "everywhere": true}
	validLevels    = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true, "disabled": true}
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:          DefaultDatabasePath(),
			BusyTimeoutMS: 5000,
		},
		Search: SearchConfig{
			RestrictToCwd: true,
			Location:      "",
			Limit:         0,
		},
		TUI: TUIConfig{
			Prompt:      "history〉",
			MultiSelect: false,
			ShowDetails: false,
			AltScreen:   true,
		},
		Output: OutputConfig{
			Format:        "plain",
			Print0:        false,
			ColorsEnabled: true,
		},
		Log: LogConfig{
			Level:     "error",
			Output:    "stderr",
			Timestamp: true,
			Caller:    false,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			DSN:         "",
			Environment: "production",
			SampleRate:  1.0,
		},
		ConfigDir: DefaultConfigDir(),
	}
}

// DefaultConfigDir returns the directory holding config.toml
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, "histskim")
}

// DefaultDatabasePath returns the location nushell keeps its sqlite history in
func DefaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, "nushell", "history.sqlite3")
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	// If no config path specified, use the default location
	if configPath == "" {
		configPath = filepath.Join(config.ConfigDir, "config.toml")
	} else {
		config.ConfigDir = filepath.Dir(configPath)
	}

	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, apperr.ConfigInvalid(err, "failed to parse config file %s", configPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, apperr.ConfigInvalid(err, "failed to read config file %s", configPath)
	}

	config.ApplyEnv()
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv applies environment variable overrides
func (c *Config) ApplyEnv() {
	if path := os.Getenv(EnvDatabasePath); path != "" {
		c.Database.Path = path
	}
}

// ApplyDefaults fills values a partial TOML file left empty
func (c *Config) ApplyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath()
	}
	c.Database.Path = ExpandHome(c.Database.Path)
	if c.Database.BusyTimeoutMS <= 0 {
		c.Database.BusyTimeoutMS = 5000
	}

	c.Search.Location = strings.ToLower(strings.TrimSpace(c.Search.Location))

	if c.TUI.Prompt == "" {
		c.TUI.Prompt = "history〉"
	}

	if c.Output.Format == "" {
		c.Output.Format = "plain"
	}

	if c.Log.Level == "" {
		c.Log.Level = "error"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stderr"
	}

	if c.Sentry.Environment == "" {
		c.Sentry.Environment = "production"
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Search.Limit < 0 {
		return apperr.ConfigInvalid(nil, "search.limit must be non-negative")
	}
	if !validLocations[c.Search.Location] {
		return apperr.ConfigInvalid(nil, "search.location must be one of: session, directory, machine, everywhere")
	}
	if !validFormats[c.Output.Format] {
		return apperr.ConfigInvalid(nil, "output.format must be one of: plain, json")
	}
	if !validLevels[c.Log.Level] {
		return apperr.ConfigInvalid(nil, "log.level %q is not a valid level", c.Log.Level)
	}
	if c.Log.Output == "stdout" {
		return apperr.ConfigInvalid(nil, "log.output cannot be stdout, it carries the selected command")
	}
	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		return apperr.ConfigInvalid(nil, "sentry.sample_rate must be between 0.0 and 1.0")
	}
	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		return apperr.ConfigInvalid(nil, "sentry.dsn is required when sentry is enabled")
	}
	return nil
}

// GetBusyTimeout returns the store busy timeout as a time.Duration
func (c *Config) GetBusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
