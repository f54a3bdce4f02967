package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NeverVane/histskim/internal/apperr"
	"github.com/NeverVane/histskim/internal/candidate"
	"github.com/NeverVane/histskim/internal/logger"
	"github.com/NeverVane/histskim/internal/storage"
)

// State is the phase of a picker session
type State int

const (
	StateBrowsing State = iota
	StateDetailExpanded
	StateAccepted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateBrowsing:
		return "browsing"
	case StateDetailExpanded:
		return "detail"
	case StateAccepted:
		return "accepted"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the session has ended
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateCancelled
}

var locationOrder = []storage.Location{
	storage.LocationSession,
	storage.LocationDirectory,
	storage.LocationMachine,
	storage.LocationEverywhere,
}

var locationLabels = map[storage.Location]string{
	storage.LocationSession:    "Session",
	storage.LocationDirectory:  "Directory",
	storage.LocationMachine:    "Host",
	storage.LocationEverywhere: "Everywhere",
}

// model represents the selector state
type model struct {
	ctx       context.Context
	fetcher   Fetcher
	formatter *candidate.Formatter
	opts      Options
	logger    *logger.Logger
	copy      func(string) error

	scope      storage.QueryScope
	records    []storage.HistoryRecord
	candidates []candidate.Candidate
	matches    []match

	// Marked records in the order they were marked
	markOrder []int64
	marked    map[int64]storage.HistoryRecord
	selected  []storage.HistoryRecord

	state  State
	err    error
	notice string

	input  textinput.Model
	list   list.Model
	detail viewport.Model
	help   help.Model
	keys   keyMap
	styles *styles

	width  int
	height int
}

// newModel builds the selector and loads the initial candidates
func newModel(ctx context.Context, fetcher Fetcher, opts Options, st *styles) (model, error) {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "type to search"
	ti.CharLimit = 512
	ti.Width = candidate.DefaultWidth
	ti.Focus()
	ti.SetValue(opts.InitialQuery)

	l := list.New(nil, itemDelegate{styles: st}, candidate.DefaultWidth, 20)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.SetShowTitle(false)
	l.SetStatusBarItemName("command", "commands")
	l.DisableQuitKeybindings()

	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = writeClipboard
	}

	m := model{
		ctx:       ctx,
		fetcher:   fetcher,
		formatter: candidate.NewFormatter(candidate.DefaultWidth - rowGutter),
		opts:      opts,
		logger:    logger.GetLogger().TUI(),
		copy:      copyFn,
		scope:     opts.Scope,
		marked:    make(map[int64]storage.HistoryRecord),
		state:     StateBrowsing,
		input:     ti,
		list:      l,
		detail:    viewport.New(candidate.DefaultWidth, 0),
		help:      help.New(),
		keys:      newKeyMap(opts.MultiSelect),
		styles:    st,
	}
	if opts.Formatter != nil {
		m.formatter = opts.Formatter
	}
	if opts.ShowDetails {
		m.state = StateDetailExpanded
	}

	if err := m.reload(); err != nil {
		return m, err
	}
	return m, nil
}

// Init implements tea.Model
func (m model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model. Once the session reached a terminal state
// every message is ignored.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state.Terminal() {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.state = StateCancelled
		return m, tea.Quit

	case key.Matches(msg, m.keys.Accept):
		return m.accept()

	case key.Matches(msg, m.keys.Details):
		if m.state == StateDetailExpanded {
			m.state = StateBrowsing
		} else {
			m.state = StateDetailExpanded
		}
		m.syncDetail()
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.ToggleCwd):
		return m.requery(m.scope.ToggleCwd(), "cwd filter toggled")

	case key.Matches(msg, m.keys.Location):
		next := m.scope.Location().Next(m.scope.HasSession())
		return m.requery(m.scope.WithLocation(next), "location changed")

	case key.Matches(msg, m.keys.Refresh):
		return m.requery(m.scope, "reload")

	case key.Matches(msg, m.keys.Mark):
		m.toggleMark()
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.copyHighlighted()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.list.CursorUp()
		m.syncDetail()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.list.CursorDown()
		m.syncDetail()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.moveBy(-m.list.Paginator.PerPage)
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveBy(m.list.Paginator.PerPage)
		return m, nil
	}

	// Everything else edits the query
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refilter(0, false)
	}
	return m, cmd
}

// accept ends the session with the marked records, or the highlighted one
func (m model) accept() (tea.Model, tea.Cmd) {
	item, ok := m.highlighted()
	if !ok {
		return m, nil
	}

	m.selected = nil
	if len(m.markOrder) > 0 {
		for _, id := range m.markOrder {
			m.selected = append(m.selected, m.marked[id])
		}
	} else {
		m.selected = []storage.HistoryRecord{*item.cand.Record}
	}

	m.state = StateAccepted
	m.logger.Debug().
		Int("selected", len(m.selected)).
		Str("query", m.input.Value()).
		Msg("Selection accepted")
	return m, tea.Quit
}

// requery replaces the candidate list with the result of scope. A failure
// ends the session.
func (m model) requery(scope storage.QueryScope, reason string) (tea.Model, tea.Cmd) {
	m.scope = scope
	if err := m.reload(); err != nil {
		m.err = err
		m.state = StateCancelled
		m.logger.Debug().Err(err).Str("reason", reason).Msg("Re-query failed")
		return m, tea.Quit
	}

	m.logger.Debug().
		Str("reason", reason).
		Str("location", m.scope.Location().String()).
		Bool("restrict_to_cwd", m.scope.RestrictToCwd).
		Int("rows", len(m.records)).
		Msg("Re-queried history")

	m.layout()
	return m, nil
}

// reload fetches the scope and rebuilds candidates, keeping the highlighted
// record when it is still present.
func (m *model) reload() error {
	start := time.Now()
	keepID, keep := m.highlightedID()

	records, err := m.fetcher.Fetch(m.ctx, m.scope)
	if err != nil {
		return apperr.QueryFailed(err, "failed to load history")
	}

	m.records = records
	m.candidates = m.formatter.FormatAll(m.records)
	m.refilter(keepID, keep)

	m.logger.Performance("reload", time.Since(start), map[string]interface{}{
		"rows": len(records),
	})
	return nil
}

// refilter re-ranks candidates against the query
func (m *model) refilter(keepID int64, keep bool) {
	m.matches = rank(m.input.Value(), m.candidates)

	items := make([]list.Item, len(m.matches))
	selected := 0
	for i, mt := range m.matches {
		c := &m.candidates[mt.index]
		_, marked := m.marked[c.Record.ID]
		items[i] = historyItem{cand: c, positions: mt.positions, marked: marked}
		if keep && c.Record.ID == keepID {
			selected = i
		}
	}

	m.list.SetItems(items)
	m.list.Select(selected)
	m.syncDetail()
}

func (m *model) resize(width, height int) {
	m.width = width
	m.height = height

	keepID, keep := m.highlightedID()
	m.formatter.SetWidth(width - rowGutter)
	m.candidates = m.formatter.FormatAll(m.records)
	m.refilter(keepID, keep)

	m.input.Width = width - lipgloss.Width(m.opts.Prompt) - 2
	m.help.Width = width
	m.layout()
}

// layout divides the height between list, detail pane and footer
func (m *model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	detailHeight := 0
	if m.state == StateDetailExpanded {
		detailHeight = m.height / 2
		if item, ok := m.highlighted(); ok {
			if n := len(item.cand.DetailLines) + 1; n < detailHeight {
				detailHeight = n
			}
		}
	}

	footer := lipgloss.Height(m.renderFooter())
	listHeight := m.height - 2 - footer - detailHeight
	if listHeight < 1 {
		listHeight = 1
	}

	m.list.SetSize(m.width, listHeight)
	m.detail.Width = m.width
	m.detail.Height = detailHeight - 1
	if m.detail.Height < 0 {
		m.detail.Height = 0
	}
}

func (m *model) moveBy(delta int) {
	n := len(m.list.Items())
	if n == 0 {
		return
	}
	idx := m.list.Index() + delta
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	m.list.Select(idx)
	m.syncDetail()
}

func (m *model) syncDetail() {
	item, ok := m.highlighted()
	if !ok {
		m.detail.SetContent("")
		return
	}
	m.detail.SetContent(strings.Join(item.cand.DetailLines, "\n"))
	m.detail.GotoTop()
}

func (m *model) toggleMark() {
	item, ok := m.highlighted()
	if !ok {
		return
	}
	rec := *item.cand.Record

	if _, marked := m.marked[rec.ID]; marked {
		delete(m.marked, rec.ID)
		for i, id := range m.markOrder {
			if id == rec.ID {
				m.markOrder = append(m.markOrder[:i:i], m.markOrder[i+1:]...)
				break
			}
		}
		item.marked = false
	} else {
		m.marked[rec.ID] = rec
		m.markOrder = append(m.markOrder, rec.ID)
		item.marked = true
	}

	m.list.SetItem(m.list.Index(), item)
}

func (m *model) copyHighlighted() {
	item, ok := m.highlighted()
	if !ok {
		return
	}
	if err := m.copy(item.cand.Record.CommandLine); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to copy to clipboard")
		m.notice = "clipboard unavailable: " + err.Error()
		return
	}
	m.notice = "copied to clipboard"
}

func (m model) highlighted() (historyItem, bool) {
	item, ok := m.list.SelectedItem().(historyItem)
	return item, ok
}

func (m model) highlightedID() (int64, bool) {
	item, ok := m.highlighted()
	if !ok {
		return 0, false
	}
	return item.cand.Record.ID, true
}

// outcome reports the result of a finished session
func (m model) outcome() Outcome {
	return Outcome{
		State:    m.state,
		Selected: m.selected,
		Scope:    m.scope,
		Query:    m.input.Value(),
	}
}

// View implements tea.Model
func (m model) View() string {
	if m.state.Terminal() {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderInput(),
		m.list.View(),
	}
	if m.state == StateDetailExpanded {
		sections = append(sections, m.styles.detail.Width(m.width).Render(m.detail.View()))
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the location tabs, filter indicators and counter
func (m model) renderHeader() string {
	s := m.styles
	active := m.scope.Location()

	var tabs []string
	for _, loc := range locationOrder {
		if loc == storage.LocationSession && !m.scope.HasSession() {
			continue
		}
		style := s.tab
		if loc == active {
			style = s.activeTab
		}
		tabs = append(tabs, style.Render(locationLabels[loc]))
	}

	left := strings.Join(tabs, "")
	if info := m.locationInfo(active); info != "" {
		left += " " + s.dim.Render(info)
	}

	var indicators []string
	if m.scope.RestrictToCwd && active != storage.LocationDirectory {
		indicators = append(indicators, "[cwd]")
	}
	if m.scope.Contains != "" {
		indicators = append(indicators, fmt.Sprintf("[contains %q]", m.scope.Contains))
	}
	if m.scope.Since != nil || m.scope.Until != nil {
		indicators = append(indicators, "[time]")
	}
	if len(m.markOrder) > 0 {
		indicators = append(indicators, fmt.Sprintf("[%d marked]", len(m.markOrder)))
	}
	indicators = append(indicators, fmt.Sprintf("%d/%d", len(m.matches), len(m.candidates)))
	right := s.dim.Render(strings.Join(indicators, " "))

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}

func (m model) locationInfo(loc storage.Location) string {
	switch loc {
	case storage.LocationSession:
		return fmt.Sprintf("session %d", m.scope.SessionID)
	case storage.LocationDirectory:
		return m.scope.Cwd
	case storage.LocationMachine:
		return m.scope.Hostname
	default:
		return ""
	}
}

func (m model) renderInput() string {
	return m.styles.prompt.Render(m.opts.Prompt) + " " + m.input.View()
}

func (m model) renderFooter() string {
	if m.notice != "" {
		return m.styles.dim.Render(m.notice)
	}
	return m.help.View(m.keys)
}
