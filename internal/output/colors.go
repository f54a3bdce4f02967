package output

import (
	"os"

	"golang.org/x/term"
)

// ColorFormatter handles colored diagnostics based on configuration
type ColorFormatter struct {
	enabled bool
	colors  map[StatusType]string
}

// StatusType represents different types of CLI output status
type StatusType string

const (
	StatusSuccess StatusType = "success"
	StatusError   StatusType = "error"
	StatusWarning StatusType = "warning"
	StatusInfo    StatusType = "info"
	StatusStats   StatusType = "stats"
)

// ANSI escape codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
)

// NewColorFormatter creates a color formatter for the given stream.
// Colors are used only when enabled, the stream is a terminal and NO_COLOR is unset.
func NewColorFormatter(enabled bool, stream *os.File) *ColorFormatter {
	cf := &ColorFormatter{
		enabled: enabled && stream != nil && term.IsTerminal(int(stream.Fd())),
		colors:  defaultColors(),
	}

	if os.Getenv("NO_COLOR") != "" {
		cf.enabled = false
	}
	return cf
}

// SetNoColor disables color output (for --no-color flag)
func (cf *ColorFormatter) SetNoColor(noColor bool) {
	if noColor {
		cf.enabled = false
	}
}

// IsEnabled returns whether colors are currently enabled
func (cf *ColorFormatter) IsEnabled() bool {
	return cf.enabled
}

func defaultColors() map[StatusType]string {
	return map[StatusType]string{
		StatusSuccess: "\033[32m", // Green
		StatusError:   "\033[31m", // Red
		StatusWarning: "\033[33m", // Yellow
		StatusInfo:    "\033[34m", // Blue
		StatusStats:   "\033[36m", // Cyan
	}
}

func (cf *ColorFormatter) Error(message string) string {
	return cf.formatStatus("[FAIL]", message, StatusError)
}

func (cf *ColorFormatter) Warning(message string) string {
	return cf.formatStatus("[WARN]", message, StatusWarning)
}

func (cf *ColorFormatter) Info(message string) string {
	return cf.formatStatus("[INFO]", message, StatusInfo)
}

// formatStatus formats a status message with colored indicator
func (cf *ColorFormatter) formatStatus(indicator, message string, statusType StatusType) string {
	if !cf.enabled {
		return indicator + " " + message
	}

	colorCode := cf.colors[statusType]
	if colorCode == "" {
		return indicator + " " + message
	}

	return colorCode + indicator + Reset + " " + message
}

// Colorize applies color to text based on status type
func (cf *ColorFormatter) Colorize(text string, statusType StatusType) string {
	if !cf.enabled {
		return text
	}

	colorCode := cf.colors[statusType]
	if colorCode == "" {
		return text
	}

	return colorCode + text + Reset
}

// Bold makes text bold (if colors are enabled)
func (cf *ColorFormatter) Bold(text string) string {
	if !cf.enabled {
		return text
	}
	return Bold + text + Reset
}
