package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/NeverVane/histskim/internal/apperr"
	"github.com/NeverVane/histskim/internal/logger"
	"github.com/NeverVane/histskim/internal/tui"
)

// Result formats
const (
	FormatPlain = "plain"
	FormatJSON  = "json"
)

// Emitter writes the outcome of a picker session to its output stream
type Emitter struct {
	w         io.Writer
	format    string
	separator byte
}

// NewEmitter creates an emitter. print0 separates results with NUL.
func NewEmitter(w io.Writer, format string, print0 bool) (*Emitter, error) {
	switch format {
	case "":
		format = FormatPlain
	case FormatPlain, FormatJSON:
	default:
		return nil, apperr.ConfigInvalid(nil, "unknown output format %q", format)
	}

	sep := byte('\n')
	if print0 {
		sep = 0
	}
	return &Emitter{w: w, format: format, separator: sep}, nil
}

// Emit writes each selected command exactly as stored, followed by the
// separator. A cancelled session writes nothing and returns apperr.ErrNoSelection.
func (e *Emitter) Emit(outcome tui.Outcome) error {
	if !outcome.Accepted() {
		return apperr.ErrNoSelection
	}

	var buf bytes.Buffer
	for i := range outcome.Selected {
		rec := &outcome.Selected[i]
		switch e.format {
		case FormatJSON:
			var line bytes.Buffer
			enc := json.NewEncoder(&line)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("failed to encode record %d: %w", rec.ID, err)
			}
			buf.Write(bytes.TrimSuffix(line.Bytes(), []byte("\n")))
		default:
			buf.WriteString(rec.CommandLine)
		}
		buf.WriteByte(e.separator)
	}

	if _, err := e.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write selection: %w", err)
	}

	logger.GetLogger().Output().Debug().
		Int("records", len(outcome.Selected)).
		Str("format", e.format).
		Msg("Selection written")
	return nil
}
