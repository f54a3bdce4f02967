package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger wraps zerolog.Logger with additional functionality
type Logger struct {
	zerolog.Logger
	level  zerolog.Level
	output io.Writer
}

// Config represents logger configuration
type Config struct {
	// Log level (trace, debug, info, warn, error, disabled)
	Level string

	// Output destination (stderr or file path). Stdout is reserved for results.
	Output string

	// Enable colored console output
	Color bool

	// Enable timestamp in logs
	Timestamp bool

	// Enable caller information (file:line)
	Caller bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:     "error",
		Output:    "stderr",
		Color:     true,
		Timestamp: true,
		Caller:    false,
	}
}

var globalLogger *Logger

// Init initializes the global logger with the provided configuration
func Init(config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}

	output, console, err := openOutput(config.Output)
	if err != nil {
		return err
	}

	if console {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    !config.Color,
		}
	}

	globalLogger = build(output, level, config.Timestamp, config.Caller)
	log.Logger = globalLogger.Logger

	return nil
}

// New creates a logger writing JSON lines to w. Intended for tests.
func New(w io.Writer, level zerolog.Level) *Logger {
	return build(w, level, false, false)
}

func build(output io.Writer, level zerolog.Level, timestamp, caller bool) *Logger {
	logger := zerolog.New(output).Level(level)

	if timestamp {
		logger = logger.With().Timestamp().Logger()
	}

	if caller {
		logger = logger.With().Caller().Logger()
	}

	return &Logger{
		Logger: logger,
		level:  level,
		output: output,
	}
}

func openOutput(dest string) (io.Writer, bool, error) {
	switch dest {
	case "", "stderr":
		return os.Stderr, true, nil
	case "stdout":
		return nil, false, fmt.Errorf("log output cannot be stdout")
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, false, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, false, nil
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	if globalLogger == nil {
		_ = Init(DefaultConfig())
	}
	return globalLogger
}

// Level returns the minimum level the logger emits
func (l *Logger) MinLevel() zerolog.Level {
	return l.level
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With().Interface(key, value).Logger(),
		level:  l.level,
		output: l.output,
	}
}

// WithError adds an error field to the logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With().Err(err).Logger(),
		level:  l.level,
		output: l.output,
	}
}

// WithComponent adds a component field for structured logging
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// Storage creates a logger with history store context
func (l *Logger) Storage() *Logger {
	return l.WithComponent("storage")
}

// TUI creates a logger with selector context
func (l *Logger) TUI() *Logger {
	return l.WithComponent("tui")
}

// Output creates a logger with emitter context
func (l *Logger) Output() *Logger {
	return l.WithComponent("output")
}

// Config creates a logger with configuration context
func (l *Logger) Config() *Logger {
	return l.WithComponent("config")
}

// Performance logs how long an operation took
func (l *Logger) Performance(operation string, duration time.Duration, fields map[string]interface{}) {
	evt := l.Debug().
		Str("perf_operation", operation).
		Dur("duration", duration)

	for key, value := range fields {
		evt = evt.Interface(key, value)
	}
	evt.Msg("performance metric")
}

// Global convenience functions
func Debug() *zerolog.Event {
	return GetLogger().Debug()
}

func Info() *zerolog.Event {
	return GetLogger().Info()
}

func Warn() *zerolog.Event {
	return GetLogger().Warn()
}

func Error() *zerolog.Event {
	return GetLogger().Error()
}

func WithComponent(component string) *Logger {
	return GetLogger().WithComponent(component)
}

func Performance(operation string, duration time.Duration, fields map[string]interface{}) {
	GetLogger().Performance(operation, duration, fields)
}
