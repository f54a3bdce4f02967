package sentry

import (
	"fmt"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/NeverVane/histskim/internal/apperr"
	"github.com/NeverVane/histskim/internal/config"
	"github.com/NeverVane/histskim/internal/logger"
)

// Client wraps the Sentry client for fatal error reporting
type Client struct {
	hub         *sentry.Hub
	config      config.SentryConfig
	logger      *logger.Logger
	initialized bool
	version     string
}

// NewClient creates a Sentry client. Reporting stays off unless enabled
// with a DSN, in which case every call on the client is a no-op.
func NewClient(cfg config.SentryConfig, version string) (*Client, error) {
	client := &Client{
		config:  cfg,
		logger:  logger.GetLogger().WithComponent("sentry"),
		version: version,
	}

	if err := client.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry client: %w", err)
	}

	return client, nil
}

func (c *Client) initialize() error {
	if !c.config.Enabled {
		c.logger.Debug().Msg("Sentry monitoring disabled")
		return nil
	}

	if c.config.DSN == "" {
		c.logger.Warn().Msg("Sentry DSN not configured, monitoring disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              c.config.DSN,
		Environment:      c.config.Environment,
		Release:          "histskim@" + c.version,
		SampleRate:       c.config.SampleRate,
		Debug:            c.config.Debug,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return c.sanitizeEvent(event)
		},
		BeforeBreadcrumb: func(breadcrumb *sentry.Breadcrumb, hint *sentry.BreadcrumbHint) *sentry.Breadcrumb {
			return c.sanitizeBreadcrumb(breadcrumb)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry SDK: %w", err)
	}

	c.hub = sentry.CurrentHub().Clone()
	c.initialized = true
	c.configureContext()

	c.logger.Debug().
		Str("environment", c.config.Environment).
		Float64("sample_rate", c.config.SampleRate).
		Msg("Sentry monitoring initialized")

	return nil
}

func (c *Client) configureContext() {
	c.hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("app.name", "histskim")
		scope.SetTag("app.version", c.version)
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("go_version", runtime.Version())
	})
}

// CaptureError reports err tagged with its kind. Cancellation is never reported.
func (c *Client) CaptureError(err error, operation string) {
	if !c.initialized || err == nil || apperr.IsCancelled(err) {
		return
	}

	c.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("operation", operation)
		scope.SetTag("kind", apperr.KindName(err))
		scope.SetLevel(sentry.LevelError)
		c.hub.CaptureException(err)
	})

	c.logger.Debug().
		Str("operation", operation).
		Err(err).
		Msg("Error captured by Sentry")
}

// Flush flushes pending events
func (c *Client) Flush(timeout time.Duration) bool {
	if !c.initialized {
		return true
	}
	return c.hub.Flush(timeout)
}

// Close flushes and disables the client
func (c *Client) Close() {
	if c.initialized {
		c.Flush(2 * time.Second)
		c.initialized = false
	}
}

// IsEnabled returns whether Sentry monitoring is enabled
func (c *Client) IsEnabled() bool {
	return c.initialized
}
