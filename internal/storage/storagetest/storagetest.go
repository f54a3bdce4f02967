// Package storagetest builds throwaway reedline history stores for tests.
package storagetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Schema is the reedline history table layout
const Schema = `CREATE TABLE history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	command_line TEXT NOT NULL,
	start_timestamp INTEGER,
	session_id INTEGER,
	hostname TEXT,
	cwd TEXT,
	duration_ms INTEGER,
	exit_status INTEGER,
	more_info TEXT
)`

// Row is one history row. Nil pointers and empty strings are stored as NULL
type Row struct {
	ID          int64
	CommandLine string
	Start       *int64
	SessionID   *int64
	Hostname    string
	Cwd         string
	DurationMS  *int64
	ExitStatus  *int64
	MoreInfo    string
}

// Int returns a pointer to v
func Int(v int64) *int64 {
	return &v
}

// NewStore creates a history store holding rows in a temp dir and returns its path
func NewStore(t testing.TB, rows ...Row) string {
	t.Helper()
	return NewStoreWithSchema(t, Schema, rows...)
}

// NewStoreWithSchema is NewStore with a custom table definition
func NewStoreWithSchema(t testing.TB, schema string, rows ...Row) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.sqlite3")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(schema)
	require.NoError(t, err)

	if len(rows) > 0 {
		Insert(t, db, rows...)
	}
	return path
}

// Insert writes rows through db in a single transaction
func Insert(t testing.TB, db *sql.DB, rows ...Row) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err)

	stmt, err := tx.Prepare(`INSERT INTO history
		(id, command_line, start_timestamp, session_id, hostname, cwd, duration_ms, exit_status, more_info)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	require.NoError(t, err)
	defer stmt.Close()

	for _, r := range rows {
		var id interface{}
		if r.ID != 0 {
			id = r.ID
		}
		_, err := stmt.Exec(id, r.CommandLine, nullable(r.Start), nullable(r.SessionID),
			nullString(r.Hostname), nullString(r.Cwd), nullable(r.DurationMS), nullable(r.ExitStatus),
			nullString(r.MoreInfo))
		require.NoError(t, err)
	}

	require.NoError(t, tx.Commit())
}

// Append opens the store at path read-write and inserts rows
func Append(t testing.TB, path string, rows ...Row) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	Insert(t, db, rows...)
}

func nullable(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
