package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/NeverVane/histskim/internal/apperr"
	"github.com/NeverVane/histskim/internal/stats"
	"github.com/NeverVane/histskim/internal/storage"
)

// Formatter prints diagnostics to stderr and reports to stdout.
// It never writes diagnostics to stdout, which carries the selection.
type Formatter struct {
	colorFormatter *ColorFormatter
	out            io.Writer
	errOut         io.Writer
	verboseMode    bool
}

// NewFormatter creates a formatter bound to the process streams
func NewFormatter(colorsEnabled bool) *Formatter {
	return &Formatter{
		colorFormatter: NewColorFormatter(colorsEnabled, os.Stderr),
		out:            os.Stdout,
		errOut:         os.Stderr,
	}
}

// NewFormatterWithWriters creates a plain formatter writing to the given streams
func NewFormatterWithWriters(out, errOut io.Writer) *Formatter {
	return &Formatter{
		colorFormatter: &ColorFormatter{colors: defaultColors()},
		out:            out,
		errOut:         errOut,
	}
}

// SetFlags configures the formatter based on command line flags
func (f *Formatter) SetFlags(verbose, noColor bool) {
	f.verboseMode = verbose
	f.colorFormatter.SetNoColor(noColor)
}

// Error prints a one-line diagnostic for err, prefixed with its kind.
// Cancellation prints nothing.
func (f *Formatter) Error(err error) {
	if err == nil || apperr.IsCancelled(err) {
		return
	}

	message := err.Error()
	if kind := apperr.KindName(err); kind != "" && kind != "error" {
		message = kind + ": " + message
	}
	fmt.Fprintln(f.errOut, f.colorFormatter.Error(firstLine(message)))
}

// Warning prints a warning to stderr
func (f *Formatter) Warning(format string, args ...interface{}) {
	fmt.Fprintln(f.errOut, f.colorFormatter.Warning(fmt.Sprintf(format, args...)))
}

// Verbose prints an informational message to stderr in verbose mode only
func (f *Formatter) Verbose(format string, args ...interface{}) {
	if f.verboseMode {
		fmt.Fprintln(f.errOut, f.colorFormatter.Info(fmt.Sprintf(format, args...)))
	}
}

// Stats prints store statistics for the info command
func (f *Formatter) Stats(stats storage.StoreStats, now time.Time) {
	cf := f.colorFormatter
	rows := [][2]string{
		{"Store", stats.Path},
		{"Size", humanize.Bytes(uint64(stats.SizeBytes))},
		{"Records", humanize.Comma(stats.Records)},
		{"Hosts", humanize.Comma(stats.Hosts)},
		{"Directories", humanize.Comma(stats.Directories)},
		{"Sessions", humanize.Comma(stats.Sessions)},
		{"Oldest", formatWhen(stats.Oldest, now)},
		{"Newest", formatWhen(stats.Newest, now)},
	}

	fmt.Fprintln(f.out, cf.Bold("History store"))
	fmt.Fprintln(f.out, strings.Repeat("=", len("History store")))
	for _, row := range rows {
		fmt.Fprintf(f.out, "%-12s %s\n", cf.Colorize(row[0]+":", StatusStats), row[1])
	}
}

// Usage prints the most used commands and directories
func (f *Formatter) Usage(result *stats.Result) {
	cf := f.colorFormatter

	fmt.Fprintf(f.out, "\n%s %s commands, %s distinct", cf.Bold("Usage:"),
		humanize.Comma(int64(result.Overall.TotalCommands)),
		humanize.Comma(int64(result.Overall.UniqueCommands)))
	if result.Overall.KnownExits > 0 {
		fmt.Fprintf(f.out, ", %.1f%% succeeded", result.Overall.SuccessRate)
	}
	fmt.Fprintln(f.out)

	if len(result.TopCommands) > 0 {
		fmt.Fprintln(f.out, "\n"+cf.Bold("Top commands"))
		for i, c := range result.TopCommands {
			fmt.Fprintf(f.out, "%3d. %-20s %s\n", i+1, c.Command, cf.Colorize(humanize.Comma(int64(c.Count)), StatusStats))
		}
	}

	if len(result.TopDirectories) > 0 {
		fmt.Fprintln(f.out, "\n"+cf.Bold("Top directories"))
		for i, d := range result.TopDirectories {
			fmt.Fprintf(f.out, "%3d. %s %s (%d distinct)\n", i+1, d.Directory,
				cf.Colorize(humanize.Comma(int64(d.Count)), StatusStats), d.UniqueCommands)
		}
	}
}

func formatWhen(t *time.Time, now time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Format("2006-01-02 15:04"), humanize.RelTime(*t, now, "ago", "from now"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
