package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NeverVane/histskim/internal/candidate"
)

// styles holds every style used by the selector. They are bound to the
// renderer of the terminal the UI is drawn on.
type styles struct {
	plain     lipgloss.Style
	cursor    lipgloss.Style
	mark      lipgloss.Style
	dim       lipgloss.Style
	selected  lipgloss.Style
	match     lipgloss.Style
	success   lipgloss.Style
	failure   lipgloss.Style
	unknown   lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	prompt    lipgloss.Style
	errorText lipgloss.Style
	detail    lipgloss.Style
	label     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, noColor bool) styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	fg := func(s lipgloss.Style, c string) lipgloss.Style {
		if noColor {
			return s
		}
		return s.Foreground(lipgloss.Color(c))
	}

	return styles{
		plain:     r.NewStyle(),
		cursor:    fg(r.NewStyle().Bold(true), "12"),
		mark:      fg(r.NewStyle().Bold(true), "11"),
		dim:       fg(r.NewStyle(), "8"),
		selected:  fg(r.NewStyle().Bold(true), "15"),
		match:     fg(r.NewStyle().Bold(true).Underline(noColor), "12"),
		success:   fg(r.NewStyle().Bold(true), "10"),
		failure:   fg(r.NewStyle().Bold(true), "9"),
		unknown:   fg(r.NewStyle(), "11"),
		tab:       fg(r.NewStyle().Padding(0, 1), "8"),
		activeTab: fg(r.NewStyle().Padding(0, 1).Bold(true).Underline(true), "12"),
		prompt:    fg(r.NewStyle().Bold(true), "12"),
		errorText: fg(r.NewStyle(), "9"),
		detail:    r.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(lipgloss.Color("8")),
		label:     fg(r.NewStyle().Bold(true), "11"),
	}
}

// historyItem is one row of the list
type historyItem struct {
	cand      *candidate.Candidate
	positions []int
	marked    bool
}

func (i historyItem) FilterValue() string {
	return i.cand.MatchText
}

// rowGutter is the width reserved left of the summary for cursor and mark
const rowGutter = 2

// itemDelegate renders candidates as single fixed-width rows
type itemDelegate struct {
	styles *styles
}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(historyItem)
	if !ok {
		return
	}
	s := d.styles
	c := item.cand
	isSelected := index == m.Index()

	cursor := " "
	if isSelected {
		cursor = s.cursor.Render(">")
	}
	mark := " "
	if item.marked {
		mark = s.mark.Render("•")
	}

	var exit lipgloss.Style
	switch c.Outcome() {
	case candidate.OutcomeSuccess:
		exit = s.success
	case candidate.OutcomeFailure:
		exit = s.failure
	default:
		exit = s.unknown
	}

	sep := s.dim.Render(candidate.ColumnSeparator)
	command := d.renderCommand(item, isSelected)

	fmt.Fprint(w, cursor+mark+
		s.dim.Render(c.Columns.Age)+sep+
		s.dim.Render(c.Columns.Duration)+sep+
		exit.Render(c.Columns.Exit)+sep+
		command)
}

// renderCommand highlights the matched runes of the visible command column
func (d itemDelegate) renderCommand(item historyItem, isSelected bool) string {
	s := d.styles
	base := s.plain
	if isSelected {
		base = s.selected
	}

	runes := []rune(item.cand.SummaryLine)
	offset := item.cand.CommandOffset
	if offset > len(runes) {
		offset = len(runes)
	}
	command := string(runes[offset:])

	if len(item.positions) == 0 {
		return base.Render(command)
	}

	visible := len(runes) - offset
	if len(item.cand.MatchText) > 0 && len([]rune(item.cand.MatchText)) > visible {
		// The last visible rune is the truncation marker
		visible--
	}

	var positions []int
	for _, p := range item.positions {
		if p < visible {
			positions = append(positions, p)
		}
	}
	if len(positions) == 0 {
		return base.Render(command)
	}

	return lipgloss.StyleRunes(command, positions, s.match.Inherit(base), base)
}
