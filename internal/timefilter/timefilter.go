// Package timefilter parses the --since and --until time bounds.
package timefilter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/NeverVane/histskim/internal/apperr"
)

var shorthand = regexp.MustCompile(`^(\d+)\s*([smhdwy])$`)

var layouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// Parser turns human time expressions into absolute times
type Parser struct {
	when     *when.Parser
	location *time.Location
}

// NewParser creates a parser with English and common rules
func NewParser() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &Parser{
		when:     w,
		location: time.Local,
	}
}

// Parse resolves expr relative to now. It accepts shorthand ages ("2d",
// "90m"), natural language ("yesterday", "last week") and dates.
func (p *Parser) Parse(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, apperr.ConfigInvalid(nil, "empty time expression")
	}

	if m := shorthand.FindStringSubmatch(strings.ToLower(expr)); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return now.Add(-time.Duration(n) * unit(m[2])), nil
		}
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, expr, p.location); err == nil {
			return t, nil
		}
	}

	result, err := p.when.Parse(expr, now)
	if err == nil && result != nil {
		return result.Time, nil
	}

	return time.Time{}, apperr.ConfigInvalid(err, "cannot understand time %q", expr)
}

func unit(s string) time.Duration {
	switch s {
	case "s":
		return time.Second
	case "m":
		return time.Minute
	case "h":
		return time.Hour
	case "d":
		return 24 * time.Hour
	case "w":
		return 7 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}

// Window is an optional start-time range
type Window struct {
	Since *time.Time
	Until *time.Time
}

// ParseWindow parses both bounds; empty strings leave a bound open
func (p *Parser) ParseWindow(since, until string, now time.Time) (Window, error) {
	var w Window

	if since != "" {
		t, err := p.Parse(since, now)
		if err != nil {
			return w, err
		}
		w.Since = &t
	}

	if until != "" {
		t, err := p.Parse(until, now)
		if err != nil {
			return w, err
		}
		w.Until = &t
	}

	if w.Since != nil && w.Until != nil && !w.Since.Before(*w.Until) {
		return Window{}, apperr.ConfigInvalid(nil, "--since (%s) must be before --until (%s)",
			w.Since.Format(time.RFC3339), w.Until.Format(time.RFC3339))
	}

	return w, nil
}
