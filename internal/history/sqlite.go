package history

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists health records in a local SQLite database,
// giving durable appends without rewriting the whole history file and
// without needing a cloud table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS health_records (
		timestamp TEXT PRIMARY KEY,
		healthy   INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Load returns all records ordered ascending by timestamp.
func (s *SQLiteStore) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, healthy FROM health_records ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("history: sqlite query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var ts string
		var healthy int
		if err := rows.Scan(&ts, &healthy); err != nil {
			return nil, fmt.Errorf("history: sqlite scan: %w", err)
		}
		parsed, err := ParseTimestamp(ts)
		if err != nil {
			continue // skip rows written by hand with bad timestamps
		}
		records = append(records, Record{Timestamp: parsed, Healthy: healthy != 0})
	}
	return records, rows.Err()
}

// Append inserts one record. The timestamp is the primary key, so
// re-appending the same second replaces the row.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	healthy := 0
	if rec.Healthy {
		healthy = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO health_records (timestamp, healthy) VALUES (?, ?)`,
		rec.Timestamp.UTC().Format(timestampFormat), healthy)
	if err != nil {
		return fmt.Errorf("history: sqlite insert: %w", err)
	}
	return nil
}

// ListRaw dumps every row as stored.
func (s *SQLiteStore) ListRaw(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, healthy FROM health_records ORDER BY timestamp ASC`)
	if err != nil {
		return fmt.Errorf("history: sqlite query: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var ts string
		var healthy int
		if err := rows.Scan(&ts, &healthy); err != nil {
			return err
		}
		fmt.Fprintf(w, "{timestamp: %s, healthy: %d}\n", ts, healthy)
		count++
	}
	fmt.Fprintf(w, "Total entities: %d\n", count)
	return rows.Err()
}
