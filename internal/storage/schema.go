package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// HistoryRecord is one executed command as stored by reedline
type HistoryRecord struct {
	ID             int64             `json:"id"`
	CommandLine    string            `json:"command"`
	StartTimestamp *int64            `json:"start_timestamp_ms,omitempty"` // Unix timestamp in milliseconds
	DurationMS     *int64            `json:"duration_ms,omitempty"`
	ExitStatus     *int64            `json:"exit_status,omitempty"`
	Cwd            string            `json:"cwd,omitempty"`
	Hostname       string            `json:"hostname,omitempty"`
	SessionID      *int64            `json:"session_id,omitempty"`
	MoreInfo       map[string]string `json:"more_info,omitempty"`
}

// StartTime returns the start timestamp as a time.Time, or false when unknown
func (r *HistoryRecord) StartTime() (time.Time, bool) {
	if r.StartTimestamp == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*r.StartTimestamp), true
}

// Duration returns the recorded run time, or false when unknown
func (r *HistoryRecord) Duration() (time.Duration, bool) {
	if r.DurationMS == nil {
		return 0, false
	}
	return time.Duration(*r.DurationMS) * time.Millisecond, true
}

// MoreInfoKeys returns the metadata keys in sorted order
func (r *HistoryRecord) MoreInfoKeys() []string {
	keys := make([]string, 0, len(r.MoreInfo))
	for k := range r.MoreInfo {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// historyColumns lists the columns of the reedline history table, in select order
var historyColumns = []string{
	"id",
	"command_line",
	"start_timestamp",
	"session_id",
	"hostname",
	"cwd",
	"duration_ms",
	"exit_status",
	"more_info",
}

// validateSchema checks that the history table exists and carries every column we read
func validateSchema(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info('history')`)
	if err != nil {
		return fmt.Errorf("failed to inspect history table: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan column name: %w", err)
		}
		present[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read history columns: %w", err)
	}

	if len(present) == 0 {
		return fmt.Errorf("required table history does not exist")
	}

	var missing []string
	for _, col := range historyColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("history table is missing columns: %s", strings.Join(missing, ", "))
	}

	return nil
}

// decodeMoreInfo turns the more_info JSON blob into a flat string map.
// Malformed input is kept verbatim under "raw".
func decodeMoreInfo(raw string) map[string]string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return map[string]string{"raw": raw}
	}
	if len(fields) == 0 {
		return nil
	}

	info := make(map[string]string, len(fields))
	for key, value := range fields {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			info[key] = s
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, value); err != nil {
			info[key] = string(value)
			continue
		}
		info[key] = buf.String()
	}
	return info
}
