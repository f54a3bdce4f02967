package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NeverVane/histskim/internal/apperr"
	"github.com/NeverVane/histskim/internal/logger"
)

// DefaultBusyTimeout is how long a read waits on a database locked by the shell
const DefaultBusyTimeout = 5 * time.Second

// Reader is a read-only handle on a reedline history store
type Reader struct {
	db     *sql.DB
	logger *logger.Logger
	path   string
}

// Options contains options for opening a history store
type Options struct {
	// How long a read waits on a locked database
	BusyTimeout time.Duration
}

// StoreStats summarizes the contents of a history store
type StoreStats struct {
	Path        string
	SizeBytes   int64
	Records     int64
	Oldest      *time.Time
	Newest      *time.Time
	Hosts       int64
	Directories int64
	Sessions    int64
}

// Open opens the store at path read-only and checks its layout
func Open(ctx context.Context, path string, opts *Options) (*Reader, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultBusyTimeout
	}

	r := &Reader{
		logger: logger.GetLogger().Storage(),
		path:   path,
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, apperr.StoreUnavailable(err, "cannot open history store %s", path)
	}
	if info.IsDir() {
		return nil, apperr.StoreUnavailable(nil, "history store %s is a directory", path)
	}

	connStr, err := buildConnectionString(path, opts.BusyTimeout)
	if err != nil {
		return nil, apperr.StoreUnavailable(err, "invalid history store path %s", path)
	}

	r.logger.Debug().
		Str("path", path).
		Str("connection_string", connStr).
		Msg("Opening history store")

	sqlDB, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, apperr.StoreUnavailable(err, "cannot open history store %s", path)
	}
	sqlDB.SetMaxOpenConns(1)
	r.db = sqlDB

	if err := r.ping(ctx); err != nil {
		sqlDB.Close()
		return nil, apperr.StoreUnavailable(err, "cannot read history store %s", path)
	}

	if err := validateSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, apperr.StoreUnavailable(err, "unexpected history store layout in %s", path)
	}

	r.logger.Info().Str("path", path).Msg("History store opened")
	return r, nil
}

// buildConnectionString creates a read-only SQLite URI for path
func buildConnectionString(path string, busyTimeout time.Duration) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	params := []string{
		"mode=ro",
		"_pragma=query_only(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()),
	}

	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: strings.Join(params, "&"),
	}
	return u.String(), nil
}

// ping tests the connection with a trivial query
func (r *Reader) ping(ctx context.Context) error {
	var result int
	if err := r.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}
	return nil
}

// Path returns the store file path
func (r *Reader) Path() string {
	return r.path
}

// Close releases the connection
func (r *Reader) Close() error {
	if r.db == nil {
		return nil
	}

	r.logger.Debug().Msg("Closing history store")

	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close history store: %w", err)
	}

	r.db = nil
	return nil
}

// buildFetchQuery renders the single SELECT for scope. Every value is a bound parameter.
func buildFetchQuery(scope QueryScope) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	if scope.RestrictToCwd {
		conditions = append(conditions, "cwd = ?")
		args = append(args, scope.Cwd)
	}
	if scope.RestrictToHost {
		conditions = append(conditions, "hostname = ?")
		args = append(args, scope.Hostname)
	}
	if scope.RestrictToSession {
		conditions = append(conditions, "session_id = ?")
		args = append(args, scope.SessionID)
	}
	if scope.Contains != "" {
		conditions = append(conditions, "instr(command_line, ?) > 0")
		args = append(args, scope.Contains)
	}
	if scope.Since != nil {
		conditions = append(conditions, "start_timestamp >= ?")
		args = append(args, scope.Since.UnixMilli())
	}
	if scope.Until != nil {
		conditions = append(conditions, "start_timestamp < ?")
		args = append(args, scope.Until.UnixMilli())
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(historyColumns, ", "))
	b.WriteString(" FROM history")
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY start_timestamp IS NULL, start_timestamp DESC, id DESC")
	if scope.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, scope.Limit)
	}

	return b.String(), args
}

// Fetch returns the records matching scope, newest first.
// On error no partial result is returned.
func (r *Reader) Fetch(ctx context.Context, scope QueryScope) ([]HistoryRecord, error) {
	if r.db == nil {
		return nil, apperr.QueryFailed(nil, "history store is closed")
	}

	start := time.Now()
	query, args := buildFetchQuery(scope)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.QueryFailed(err, "failed to query history")
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperr.QueryFailed(err, "failed to scan history row")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.QueryFailed(err, "failed to read history rows")
	}

	r.logger.Performance("fetch", time.Since(start), map[string]interface{}{
		"rows":     len(records),
		"location": scope.Location().String(),
		"cwd":      scope.RestrictToCwd,
	})

	return records, nil
}

func scanRecord(rows *sql.Rows) (HistoryRecord, error) {
	var (
		rec      HistoryRecord
		cmdLine  sql.NullString
		start    sql.NullInt64
		session  sql.NullInt64
		hostname sql.NullString
		cwd      sql.NullString
		duration sql.NullInt64
		exit     sql.NullInt64
		moreInfo sql.NullString
	)

	if err := rows.Scan(&rec.ID, &cmdLine, &start, &session, &hostname, &cwd, &duration, &exit, &moreInfo); err != nil {
		return rec, err
	}

	rec.CommandLine = cmdLine.String
	rec.StartTimestamp = nullInt(start)
	rec.SessionID = nullInt(session)
	rec.Hostname = hostname.String
	rec.Cwd = cwd.String
	rec.DurationMS = nullInt(duration)
	rec.ExitStatus = nullInt(exit)
	if moreInfo.Valid {
		rec.MoreInfo = decodeMoreInfo(moreInfo.String)
	}

	return rec, nil
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// Stats returns summary statistics about the store
func (r *Reader) Stats(ctx context.Context) (StoreStats, error) {
	stats := StoreStats{Path: r.path}
	if r.db == nil {
		return stats, apperr.QueryFailed(nil, "history store is closed")
	}

	if info, err := os.Stat(r.path); err == nil {
		stats.SizeBytes = info.Size()
	}

	var oldest, newest sql.NullInt64
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       MIN(start_timestamp),
		       MAX(start_timestamp),
		       COUNT(DISTINCT hostname),
		       COUNT(DISTINCT cwd),
		       COUNT(DISTINCT session_id)
		FROM history`)
	if err := row.Scan(&stats.Records, &oldest, &newest, &stats.Hosts, &stats.Directories, &stats.Sessions); err != nil {
		return stats, apperr.QueryFailed(err, "failed to compute history statistics")
	}

	if oldest.Valid {
		t := time.UnixMilli(oldest.Int64)
		stats.Oldest = &t
	}
	if newest.Valid {
		t := time.UnixMilli(newest.Int64)
		stats.Newest = &t
	}

	return stats, nil
}
