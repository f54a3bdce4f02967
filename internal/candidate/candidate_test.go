package candidate

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/histskim/internal/storage"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func int64p(v int64) *int64 { return &v }

func testFormatter(width int) *Formatter {
	return &Formatter{
		Now:      func() time.Time { return fixedNow },
		Location: time.UTC,
		Width:    width,
	}
}

func TestFormat_SparseRecordUsesPlaceholders(t *testing.T) {
	f := testFormatter(80)

	c := f.Format(&storage.HistoryRecord{ID: 9, CommandLine: "make"})

	assert.Equal(t, "   ? │     - │ ?    │ make", c.SummaryLine)
	assert.Equal(t, []string{
		"Details for entry 9",
		"Host: <unknown>",
		"Directory: <unknown>",
		"Session: <unknown>",
		"Timestamp: <unknown>",
		"Duration: <unknown>",
		"Exit Status: <unknown>",
		"Command:",
		"",
		"make",
	}, c.DetailLines)
	assert.Equal(t, OutcomeUnknown, c.Outcome())
}

func TestFormat_FullRecord(t *testing.T) {
	f := testFormatter(80)
	rec := &storage.HistoryRecord{
		ID:             42,
		CommandLine:    "cargo test",
		StartTimestamp: int64p(fixedNow.Add(-3 * time.Hour).UnixMilli()),
		DurationMS:     int64p(300),
		ExitStatus:     int64p(0),
		Cwd:            "/src/app",
		Hostname:       "box",
		SessionID:      int64p(17),
		MoreInfo:       map[string]string{"source": "bash", "imported": "true"},
	}

	c := f.Format(rec)

	assert.Equal(t, "  3h │  0.3s │ ✓    │ cargo test", c.SummaryLine)
	assert.Equal(t, []string{
		"Details for entry 42",
		"Host: box",
		"Directory: /src/app",
		"Session: 17",
		"Timestamp: 2024-03-10 09:00:00 UTC (3 hours ago)",
		"Duration: 300ms",
		"Exit Status: 0 (success)",
		"Extra:",
		"  imported: true",
		"  source: bash",
		"Command:",
		"",
		"cargo test",
	}, c.DetailLines)
	assert.Same(t, rec, c.Record)
	assert.Equal(t, OutcomeSuccess, c.Outcome())
}

func TestFormat_ExitStatusStates(t *testing.T) {
	f := testFormatter(80)

	tests := []struct {
		name    string
		exit    *int64
		column  string
		detail  string
		outcome Outcome
	}{
		{"success", int64p(0), "✓   ", "Exit Status: 0 (success)", OutcomeSuccess},
		{"failure", int64p(2), "✗2  ", "Exit Status: 2 (failed)", OutcomeFailure},
		{"wide code is clipped in summary only", int64p(12345), "✗123", "Exit Status: 12345 (failed)", OutcomeFailure},
		{"negative", int64p(-1), "✗-1 ", "Exit Status: -1 (failed)", OutcomeFailure},
		{"unknown", nil, "?   ", "Exit Status: <unknown>", OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := f.Format(&storage.HistoryRecord{ID: 1, CommandLine: "x", ExitStatus: tt.exit})
			assert.Equal(t, tt.column, c.Columns.Exit)
			assert.Contains(t, c.DetailLines, tt.detail)
			assert.Equal(t, tt.outcome, c.Outcome())
		})
	}
}

func TestFormat_ColumnsStayAligned(t *testing.T) {
	f := testFormatter(60)
	records := []storage.HistoryRecord{
		{ID: 1, CommandLine: "a"},
		{ID: 2, CommandLine: "b", StartTimestamp: int64p(fixedNow.Add(-400 * 24 * time.Hour).UnixMilli()), DurationMS: int64p(7_200_000), ExitStatus: int64p(127)},
		{ID: 3, CommandLine: "日本語のコマンド", StartTimestamp: int64p(fixedNow.UnixMilli()), DurationMS: int64p(59_000), ExitStatus: int64p(0)},
	}

	candidates := f.FormatAll(records)
	require.Len(t, candidates, 3)

	offset := candidates[0].CommandOffset
	prefixWidth := runewidth.StringWidth(string([]rune(candidates[0].SummaryLine)[:offset]))
	for i, c := range candidates {
		assert.Equal(t, records[i].ID, c.Record.ID, "order is kept")
		assert.Equal(t, offset, c.CommandOffset)

		prefix := string([]rune(c.SummaryLine)[:c.CommandOffset])
		assert.Equal(t, prefixWidth, runewidth.StringWidth(prefix))
		assert.True(t, strings.HasPrefix(string([]rune(c.SummaryLine)[c.CommandOffset:]), string([]rune(c.MatchText)[:1])))
	}
}

func TestFormat_TruncatesToWidth(t *testing.T) {
	long := strings.Repeat("kubectl get pods ", 20)

	for _, width := range []int{5, 30, 47, 120} {
		f := testFormatter(width)
		c := f.Format(&storage.HistoryRecord{ID: 1, CommandLine: long})

		budget := width
		if budget < MinWidth {
			budget = MinWidth
		}
		assert.LessOrEqual(t, runewidth.StringWidth(c.SummaryLine), budget)
		assert.True(t, strings.HasSuffix(c.SummaryLine, TruncationMarker))
		assert.Equal(t, SingleLine(long), c.MatchText, "match text is never truncated")
	}
}

func TestFormat_ShortCommandIsNotMarked(t *testing.T) {
	c := testFormatter(80).Format(&storage.HistoryRecord{ID: 1, CommandLine: "ls"})
	assert.False(t, strings.Contains(c.SummaryLine, TruncationMarker))
}

func TestFormat_MultilineCommand(t *testing.T) {
	f := testFormatter(80)
	cmd := "for x in a b {\n\techo $x\r\n}"

	c := f.Format(&storage.HistoryRecord{ID: 5, CommandLine: cmd})

	assert.Equal(t, "for x in a b {↵ echo $x ↵}", c.MatchText)
	assert.Equal(t, len([]rune(cmd)), len([]rune(c.MatchText)))
	assert.NotContains(t, c.SummaryLine, "\n")

	tail := c.DetailLines[len(c.DetailLines)-3:]
	assert.Equal(t, []string{"for x in a b {", "\techo $x\r", "}"}, tail)
}

func TestFormat_NilRecord(t *testing.T) {
	c := testFormatter(80).Format(nil)
	require.NotNil(t, c.Record)
	assert.Equal(t, "Details for entry 0", c.DetailLines[0])
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{-time.Hour, "now"},
		{30 * time.Second, "now"},
		{12 * time.Minute, "12m"},
		{3*time.Hour + 59*time.Minute, "3h"},
		{5 * 24 * time.Hour, "5d"},
		{7 * 7 * 24 * time.Hour, "7w"},
		{2 * 365 * 24 * time.Hour, "2y"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAge(tt.elapsed), tt.elapsed.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0.0s"},
		{300 * time.Millisecond, "0.3s"},
		{12 * time.Second, "12s"},
		{5*time.Minute + 30*time.Second, "5m"},
		{3 * time.Hour, "3h"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d), tt.d.String())
	}
}
