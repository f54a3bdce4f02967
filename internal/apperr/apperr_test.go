package apperr

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindsSurviveWrapping(t *testing.T) {
	cause := fmt.Errorf("disk I/O error")

	tests := []struct {
		name string
		err  error
		kind error
		code int
		tag  string
	}{
		{"store", StoreUnavailable(cause, "open %s", "/tmp/h.db"), ErrStoreUnavailable, ExitError, "store unavailable"},
		{"query", QueryFailed(cause, "fetch"), ErrQueryFailed, ExitError, "query failed"},
		{"terminal", TerminalUnavailable(nil, "no tty"), ErrTerminalUnavailable, ExitError, "terminal unavailable"},
		{"config", ConfigInvalid(nil, "bad level %q", "loud"), ErrConfigInvalid, ExitError, "invalid configuration"},
		{"cancel", ErrNoSelection, ErrNoSelection, ExitCancelled, "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := errors.Wrap(tt.err, "session")

			assert.True(t, errors.Is(wrapped, tt.kind))
			assert.Equal(t, tt.code, ExitCode(wrapped))
			assert.Equal(t, tt.tag, KindName(wrapped))
		})
	}
}

func TestKindsAreDistinct(t *testing.T) {
	err := QueryFailed(nil, "boom")

	assert.False(t, errors.Is(err, ErrStoreUnavailable))
	assert.False(t, IsCancelled(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestExitCodeNil(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, "", KindName(nil))
	assert.Equal(t, "error", KindName(fmt.Errorf("plain")))
}
