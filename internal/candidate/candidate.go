// Package candidate turns history records into display-ready list entries.
//
// Every record, however sparse, yields a Candidate whose summary columns have
// the same widths, so the list never shifts when fields are missing.
package candidate

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/NeverVane/histskim/internal/storage"
)

// Column widths of the summary line, in terminal cells
const (
	AgeWidth      = 4
	DurationWidth = 5
	ExitWidth     = 4

	// MinWidth is the smallest width budget a Formatter accepts
	MinWidth = 30

	// DefaultWidth is used when the terminal size is not known yet
	DefaultWidth = 80
)

const (
	ColumnSeparator  = " │ "
	TruncationMarker = "…"
	NewlineMarker    = "↵"

	// Placeholder stands in for missing values in the detail view
	Placeholder = "<unknown>"

	agePlaceholder      = "?"
	durationPlaceholder = "-"
	exitPlaceholder     = "?"
	exitSuccess         = "✓"
	exitFailure         = "✗"
)

// Outcome classifies a record's exit status
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

// Columns holds the padded summary fields
type Columns struct {
	Age      string
	Duration string
	Exit     string
	Command  string
}

// Candidate is one record prepared for the interactive list
type Candidate struct {
	SummaryLine string
	DetailLines []string
	Record      *storage.HistoryRecord

	// MatchText is the command as a single line, aligned rune for rune
	// with the command column of SummaryLine.
	MatchText string

	// CommandOffset is the rune index in SummaryLine where the command starts
	CommandOffset int

	Columns Columns
}

// Outcome reports whether the record succeeded, failed or is unknown
func (c Candidate) Outcome() Outcome {
	return outcome(c.Record)
}

func outcome(rec *storage.HistoryRecord) Outcome {
	switch {
	case rec == nil || rec.ExitStatus == nil:
		return OutcomeUnknown
	case *rec.ExitStatus == 0:
		return OutcomeSuccess
	default:
		return OutcomeFailure
	}
}

// Formatter renders records against a fixed clock, zone and width budget
type Formatter struct {
	Now      func() time.Time
	Location *time.Location
	Width    int
}

// NewFormatter creates a formatter using the wall clock and local time zone
func NewFormatter(width int) *Formatter {
	return &Formatter{
		Now:      time.Now,
		Location: time.Local,
		Width:    width,
	}
}

// SetWidth changes the width budget, raising it to MinWidth when needed
func (f *Formatter) SetWidth(width int) {
	f.Width = width
}

func (f *Formatter) width() int {
	if f.Width < MinWidth {
		return MinWidth
	}
	return f.Width
}

func (f *Formatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

func (f *Formatter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

// FormatAll formats records, keeping their order
func (f *Formatter) FormatAll(records []storage.HistoryRecord) []Candidate {
	candidates := make([]Candidate, len(records))
	for i := range records {
		candidates[i] = f.Format(&records[i])
	}
	return candidates
}

// Format builds the candidate for rec. It never fails.
func (f *Formatter) Format(rec *storage.HistoryRecord) Candidate {
	if rec == nil {
		rec = &storage.HistoryRecord{}
	}
	now := f.now()

	cols := Columns{
		Age:      fit(ageLabel(rec, now), AgeWidth, true),
		Duration: fit(durationLabel(rec), DurationWidth, true),
		Exit:     fit(exitLabel(rec), ExitWidth, false),
	}

	prefix := cols.Age + ColumnSeparator + cols.Duration + ColumnSeparator + cols.Exit + ColumnSeparator
	matchText := SingleLine(rec.CommandLine)

	avail := f.width() - runewidth.StringWidth(prefix)
	cols.Command = runewidth.Truncate(matchText, avail, TruncationMarker)

	return Candidate{
		SummaryLine:   prefix + cols.Command,
		DetailLines:   f.details(rec, now),
		Record:        rec,
		MatchText:     matchText,
		CommandOffset: utf8.RuneCountInString(prefix),
		Columns:       cols,
	}
}

// SingleLine flattens a command onto one line without changing its rune count
func SingleLine(cmd string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return []rune(NewlineMarker)[0]
		case r == '\t' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return ' '
		}
		return r
	}, cmd)
}

// fit pads s to exactly width cells, clipping when it is too wide
func fit(s string, width int, right bool) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "")
	}
	if right {
		return runewidth.FillLeft(s, width)
	}
	return runewidth.FillRight(s, width)
}

func ageLabel(rec *storage.HistoryRecord, now time.Time) string {
	start, ok := rec.StartTime()
	if !ok {
		return agePlaceholder
	}
	return FormatAge(now.Sub(start))
}

// FormatAge renders an elapsed time as now, 12m, 3h, 5d, 7w or 2y
func FormatAge(elapsed time.Duration) string {
	const (
		day  = 24 * time.Hour
		week = 7 * day
		year = 365 * day
	)

	switch {
	case elapsed < time.Minute:
		return "now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm", int(elapsed/time.Minute))
	case elapsed < day:
		return fmt.Sprintf("%dh", int(elapsed/time.Hour))
	case elapsed < week:
		return fmt.Sprintf("%dd", int(elapsed/day))
	case elapsed < year:
		return fmt.Sprintf("%dw", int(elapsed/week))
	default:
		return fmt.Sprintf("%dy", int(elapsed/year))
	}
}

func durationLabel(rec *storage.HistoryRecord) string {
	d, ok := rec.Duration()
	if !ok {
		return durationPlaceholder
	}
	return FormatDuration(d)
}

// FormatDuration renders a run time as 0.3s, 12s, 5m or 3h
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	}
}

func exitLabel(rec *storage.HistoryRecord) string {
	switch outcome(rec) {
	case OutcomeSuccess:
		return exitSuccess
	case OutcomeFailure:
		return fmt.Sprintf("%s%d", exitFailure, *rec.ExitStatus)
	default:
		return exitPlaceholder
	}
}

func (f *Formatter) details(rec *storage.HistoryRecord, now time.Time) []string {
	lines := []string{
		fmt.Sprintf("Details for entry %d", rec.ID),
		"Host: " + orPlaceholder(rec.Hostname),
		"Directory: " + orPlaceholder(rec.Cwd),
		"Session: " + intOrPlaceholder(rec.SessionID),
	}

	if start, ok := rec.StartTime(); ok {
		lines = append(lines, fmt.Sprintf("Timestamp: %s (%s)",
			start.In(f.location()).Format("2006-01-02 15:04:05 MST"),
			humanize.RelTime(start, now, "ago", "from now")))
	} else {
		lines = append(lines, "Timestamp: "+Placeholder)
	}

	if d, ok := rec.Duration(); ok {
		lines = append(lines, "Duration: "+d.String())
	} else {
		lines = append(lines, "Duration: "+Placeholder)
	}

	switch outcome(rec) {
	case OutcomeSuccess:
		lines = append(lines, "Exit Status: 0 (success)")
	case OutcomeFailure:
		lines = append(lines, fmt.Sprintf("Exit Status: %d (failed)", *rec.ExitStatus))
	default:
		lines = append(lines, "Exit Status: "+Placeholder)
	}

	if keys := rec.MoreInfoKeys(); len(keys) > 0 {
		lines = append(lines, "Extra:")
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("  %s: %s", k, rec.MoreInfo[k]))
		}
	}

	lines = append(lines, "Command:", "")
	lines = append(lines, strings.Split(rec.CommandLine, "\n")...)

	return lines
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

func intOrPlaceholder(v *int64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%d", *v)
}
