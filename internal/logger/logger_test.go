package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_RejectsStdout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "stdout"

	err := Init(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdout")
}

func TestInit_InvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "chatty"

	require.Error(t, Init(cfg))
}

func TestInit_FileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.Output = filepath.Join(t.TempDir(), "logs", "histskim.log")

	require.NoError(t, Init(cfg))
	assert.Equal(t, zerolog.DebugLevel, GetLogger().MinLevel())
	assert.FileExists(t, cfg.Output)
}

func TestComponentFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.DebugLevel)

	l.Storage().Info().Str("path", "/tmp/h.db").Msg("opened history store")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "storage", entry["component"])
	assert.Equal(t, "/tmp/h.db", entry["path"])
	assert.Equal(t, "opened history store", entry["message"])
}

func TestPerformance_DebugOnly(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel)

	l.Performance("fetch", 3*time.Millisecond, map[string]interface{}{"rows": 4})
	assert.Zero(t, buf.Len())

	l = New(&buf, zerolog.DebugLevel)
	l.Performance("fetch", 3*time.Millisecond, map[string]interface{}{"rows": 4})
	assert.Contains(t, buf.String(), `"perf_operation":"fetch"`)
	assert.Contains(t, buf.String(), `"rows":4`)
}
