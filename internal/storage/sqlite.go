package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/pocketnotes/internal/models"
)

const recordsSchemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	key        TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite implements Provider on a single SQLite table of JSON documents.
type SQLite struct {
	conn *sql.DB
}

var _ Provider = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(recordsSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) FetchAll(ctx context.Context) ([]models.Record, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT key, doc FROM records ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("storage: query records: %w", err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("storage: scan record: %w", err)
		}
		rec, err := decodeRecord(key, []byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate records: %w", err)
	}
	return out, nil
}

func (s *SQLite) Put(ctx context.Context, key string, n models.Note) error {
	if key == "" {
		return fmt.Errorf("storage: empty key")
	}
	doc, err := encodeNote(n)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO records (key, doc, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		key, string(doc))
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Push(ctx context.Context, n models.Note) (string, error) {
	key := NewKey()
	if err := s.Put(ctx, key, n); err != nil {
		return "", err
	}
	return key, nil
}
