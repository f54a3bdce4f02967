package tui

import (
	"context"
	"os"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"golang.org/x/term"

	"github.com/NeverVane/histskim/internal/apperr"
	"github.com/NeverVane/histskim/internal/candidate"
	"github.com/NeverVane/histskim/internal/logger"
	"github.com/NeverVane/histskim/internal/storage"
)

// DefaultTTYPath is the terminal the selector draws on and reads keys from
const DefaultTTYPath = "/dev/tty"

// Fetcher loads the records for a scope. *storage.Reader implements it.
type Fetcher interface {
	Fetch(ctx context.Context, scope storage.QueryScope) ([]storage.HistoryRecord, error)
}

// Options configures a picker session
type Options struct {
	Scope        storage.QueryScope
	InitialQuery string
	Prompt       string
	MultiSelect  bool
	ShowDetails  bool
	AltScreen    bool
	NoColor      bool

	// TTYPath overrides DefaultTTYPath
	TTYPath string

	// Clipboard overrides the system clipboard writer
	Clipboard func(string) error

	// Formatter overrides the default candidate formatter
	Formatter *candidate.Formatter
}

// Outcome is the result of a finished session
type Outcome struct {
	State State

	// Selected holds the accepted records; empty unless State is StateAccepted
	Selected []storage.HistoryRecord

	// Scope and Query as they were when the session ended
	Scope storage.QueryScope
	Query string
}

// Accepted reports whether the user made a selection
func (o Outcome) Accepted() bool {
	return o.State == StateAccepted && len(o.Selected) > 0
}

func writeClipboard(s string) error {
	return clipboard.WriteAll(s)
}

// openTerminal opens the controlling terminal for reading and drawing
func openTerminal(path string) (*os.File, error) {
	tty, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, apperr.TerminalUnavailable(err, "cannot open %s", path)
	}
	if !term.IsTerminal(int(tty.Fd())) {
		tty.Close()
		return nil, apperr.TerminalUnavailable(nil, "%s is not a terminal", path)
	}
	return tty, nil
}

// Launch runs one interactive session against fetcher. The UI is drawn on
// the terminal so stdout stays free for the result.
func Launch(ctx context.Context, fetcher Fetcher, opts Options) (Outcome, error) {
	log := logger.GetLogger().TUI()

	ttyPath := opts.TTYPath
	if ttyPath == "" {
		ttyPath = DefaultTTYPath
	}

	tty, err := openTerminal(ttyPath)
	if err != nil {
		return Outcome{}, err
	}
	defer tty.Close()

	renderer := lipgloss.NewRenderer(tty)
	lipgloss.SetDefaultRenderer(renderer)
	st := newStyles(renderer, opts.NoColor)

	m, err := newModel(ctx, fetcher, opts, &st)
	if err != nil {
		return Outcome{}, err
	}

	programOpts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	log.Debug().
		Str("tty", ttyPath).
		Int("candidates", len(m.candidates)).
		Str("location", m.scope.Location().String()).
		Msg("Launching selector")

	final, err := tea.NewProgram(m, programOpts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil {
			log.Debug().Msg("Selector interrupted")
			return Outcome{State: StateCancelled, Scope: m.scope}, nil
		}
		return Outcome{}, apperr.TerminalUnavailable(err, "selector failed")
	}

	fm, ok := final.(model)
	if !ok {
		return Outcome{}, errors.AssertionFailedf("unexpected model type %T", final)
	}
	if fm.err != nil {
		return Outcome{}, fm.err
	}

	out := fm.outcome()
	log.Debug().Str("state", out.State.String()).Int("selected", len(out.Selected)).Msg("Selector finished")
	return out, nil
}
