// Package apperr defines the error kinds surfaced by histskim and the exit
// codes they map to.
//
// Producers wrap the underlying cause and mark it with one of the sentinel
// kinds below. Consumers test kinds with errors.Is, which works through any
// amount of additional wrapping.
package apperr

import (
	"github.com/cockroachdb/errors"
)

// Exit codes returned by the histskim binary.
const (
	ExitOK        = 0
	ExitError     = 2
	ExitCancelled = 130
)

var (
	// ErrStoreUnavailable means the history store could not be opened or
	// does not have the expected layout.
	ErrStoreUnavailable = errors.New("history store unavailable")

	// ErrQueryFailed means a fetch against an open store failed.
	ErrQueryFailed = errors.New("history query failed")

	// ErrTerminalUnavailable means no interactive terminal could be acquired.
	ErrTerminalUnavailable = errors.New("interactive terminal unavailable")

	// ErrConfigInvalid means the configuration file or flags are invalid.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrNoSelection means the user cancelled the session. It is not a failure.
	ErrNoSelection = errors.New("no selection")
)

// StoreUnavailable wraps cause and marks it as ErrStoreUnavailable.
func StoreUnavailable(cause error, format string, args ...interface{}) error {
	return mark(cause, ErrStoreUnavailable, format, args...)
}

// QueryFailed wraps cause and marks it as ErrQueryFailed.
func QueryFailed(cause error, format string, args ...interface{}) error {
	return mark(cause, ErrQueryFailed, format, args...)
}

// TerminalUnavailable wraps cause and marks it as ErrTerminalUnavailable.
func TerminalUnavailable(cause error, format string, args ...interface{}) error {
	return mark(cause, ErrTerminalUnavailable, format, args...)
}

// ConfigInvalid wraps cause and marks it as ErrConfigInvalid.
func ConfigInvalid(cause error, format string, args ...interface{}) error {
	return mark(cause, ErrConfigInvalid, format, args...)
}

func mark(cause, kind error, format string, args ...interface{}) error {
	if cause == nil {
		cause = errors.Newf(format, args...)
	} else {
		cause = errors.Wrapf(cause, format, args...)
	}
	return errors.Mark(cause, kind)
}

// IsCancelled reports whether err represents a user cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrNoSelection)
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsCancelled(err):
		return ExitCancelled
	default:
		return ExitError
	}
}

// KindName returns a short label for the kind of err, used as the prefix of
// diagnostics printed to stderr.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStoreUnavailable):
		return "store unavailable"
	case errors.Is(err, ErrQueryFailed):
		return "query failed"
	case errors.Is(err, ErrTerminalUnavailable):
		return "terminal unavailable"
	case errors.Is(err, ErrConfigInvalid):
		return "invalid configuration"
	case errors.Is(err, ErrNoSelection):
		return "cancelled"
	default:
		return "error"
	}
}
