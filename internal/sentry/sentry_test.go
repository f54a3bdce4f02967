package sentry

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/histskim/internal/apperr"
	"github.com/NeverVane/histskim/internal/config"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		config      config.SentryConfig
		expectError bool
		expectInit  bool
	}{
		{
			name: "successful initialization",
			config: config.SentryConfig{
				Enabled:     true,
				DSN:         "https://test@example.com/1",
				Environment: "test",
				SampleRate:  1.0,
			},
			expectInit: true,
		},
		{
			name:   "disabled sentry",
			config: config.SentryConfig{Enabled: false, DSN: "https://test@example.com/1"},
		},
		{
			name:   "empty DSN",
			config: config.SentryConfig{Enabled: true},
		},
		{
			name:        "malformed DSN",
			config:      config.SentryConfig{Enabled: true, DSN: "not a dsn"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config, "1.0.0")

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectInit, client.IsEnabled())

			client.Close()
			assert.False(t, client.IsEnabled())
		})
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(config.SentryConfig{}, "dev")
	require.NoError(t, err)

	client.CaptureError(errors.New("boom"), "fetch")
	client.CaptureError(apperr.ErrNoSelection, "emit")
	assert.True(t, client.Flush(0))
}

func TestSanitizeValue(t *testing.T) {
	c := &Client{}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"open /home/alice/.config/nushell/history.sqlite3: denied", "open /home/[USER]/.config/nushell/history.sqlite3: denied"},
		{`query "git push origin main" failed`, `query "[REDACTED]" failed`},
		{"mail bob@example.com", "mail [EMAIL_REDACTED]"},
		{"token=abc123 rest", "token=[REDACTED] rest"},
		{"history query failed", "history query failed"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, c.sanitizeValue(tt.in))
		})
	}
}

func TestSanitizeEvent(t *testing.T) {
	c := &Client{}
	event := &sentry.Event{
		Message:    "copy /Users/bob/x",
		ServerName: "laptop.local",
		User:       sentry.User{Username: "bob"},
		Tags:       map[string]string{"kind": "query failed"},
		Extra: map[string]interface{}{
			"command": "rm -rf secret",
			"records": 3,
		},
		Exception: []sentry.Exception{{Value: `scan "ls -la"`}},
	}

	got := c.sanitizeEvent(event)

	assert.Equal(t, "copy /Users/[USER]/x", got.Message)
	assert.Empty(t, got.ServerName)
	assert.Equal(t, sentry.User{}, got.User)
	assert.Equal(t, "query failed", got.Tags["kind"])
	assert.Equal(t, "[REDACTED]", got.Extra["command"])
	assert.Equal(t, 3, got.Extra["records"])
	assert.Equal(t, `scan "[REDACTED]"`, got.Exception[0].Value)
	assert.Nil(t, c.sanitizeEvent(nil))
}

func TestSanitizeBreadcrumb(t *testing.T) {
	c := &Client{}

	got := c.sanitizeBreadcrumb(&sentry.Breadcrumb{
		Message: "opened /home/carol/h.db",
		Data:    map[string]interface{}{"cwd": "/srv", "count": 2},
	})

	assert.Equal(t, "opened /home/[USER]/h.db", got.Message)
	assert.Equal(t, "[REDACTED]", got.Data["cwd"])
	assert.Equal(t, 2, got.Data["count"])
}
