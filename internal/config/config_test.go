package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/histskim/internal/apperr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Search.RestrictToCwd)
	assert.Equal(t, "", cfg.Search.Location)
	assert.Equal(t, "plain", cfg.Output.Format)
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMS)
	assert.Equal(t, "history.sqlite3", filepath.Base(cfg.Database.Path))
	assert.Equal(t, "nushell", filepath.Base(filepath.Dir(cfg.Database.Path)))
	assert.False(t, cfg.Sentry.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvDatabasePath, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabasePath(), cfg.Database.Path)
	assert.True(t, cfg.Search.RestrictToCwd)
}

func TestLoad_PartialFile(t *testing.T) {
	t.Setenv(EnvDatabasePath, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[database]
path = "/var/tmp/h.sqlite3"

[search]
restrict_to_cwd = false
location = "Machine"
limit = 500

[tui]
multi_select = true

[output]
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/tmp/h.sqlite3", cfg.Database.Path)
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMS)
	assert.False(t, cfg.Search.RestrictToCwd)
	assert.Equal(t, "machine", cfg.Search.Location)
	assert.Equal(t, 500, cfg.Search.Limit)
	assert.True(t, cfg.TUI.MultiSelect)
	assert.Equal(t, "history〉", cfg.TUI.Prompt)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, dir, cfg.ConfigDir)
}

func TestLoad_EnvOverridesDatabasePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[database]\npath = \"/from/file\"\n"), 0644))

	t.Setenv(EnvDatabasePath, "/from/env.sqlite3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env.sqlite3", cfg.Database.Path)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[database\npath = "), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConfigInvalid))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"negative limit", func(c *Config) { c.Search.Limit = -1 }, "search.limit"},
		{"unknown location", func(c *Config) { c.Search.Location = "galaxy" }, "search.location"},
		{"unknown format", func(c *Config) { c.Output.Format = "yaml" }, "output.format"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log to stdout", func(c *Config) { c.Log.Output = "stdout" }, "log.output"},
		{"sample rate", func(c *Config) { c.Sentry.SampleRate = 1.5 }, "sentry.sample_rate"},
		{"sentry without dsn", func(c *Config) { c.Sentry.Enabled = true }, "sentry.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, errors.Is(err, apperr.ErrConfigInvalid))
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "h.db"), ExpandHome("~/h.db"))
	assert.Equal(t, "/abs/h.db", ExpandHome("/abs/h.db"))
	assert.Equal(t, "~user/h.db", ExpandHome("~user/h.db"))
}
