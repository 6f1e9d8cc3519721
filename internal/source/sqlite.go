package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/db"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// SQLite stores one source collection as a table in a local SQLite file.
// The crawler record is kept verbatim in the body column.
type SQLite struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// Compile-time check that SQLite implements Repository.
var _ Repository = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path and ensures the table exists.
func OpenSQLite(ctx context.Context, path, table string) (*SQLite, error) {
	if err := db.ValidateTable(table); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: conn, table: table, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id             TEXT PRIMARY KEY,
			body           TEXT NOT NULL,
			processed      INTEGER NOT NULL DEFAULT 0,
			processed_at   TEXT,
			processed_file TEXT
		);
		CREATE INDEX IF NOT EXISTS %[1]s_processed ON %[1]s (processed);
	`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// FindUnprocessed returns up to limit unprocessed documents in insertion order.
func (s *SQLite) FindUnprocessed(ctx context.Context, limit int) ([]models.RawDocument, error) {
	query := fmt.Sprintf("SELECT id, body FROM %s WHERE processed = 0 ORDER BY rowid LIMIT ?", s.table)
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed: %w", err)
	}
	defer rows.Close()

	docs := []models.RawDocument{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		doc, err := models.DecodeRawDocument([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		doc.ID = id
		doc.Processed = false
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// MarkProcessed flags a document processed and records its output file.
func (s *SQLite) MarkProcessed(ctx context.Context, docID, file string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET processed = 1, processed_at = ?, processed_file = ? WHERE id = ?", s.table)
	res, err := s.db.ExecContext(ctx, query, s.now().Format(time.RFC3339Nano), file, docID)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark %s: %w", docID, ErrNotFound)
	}
	return nil
}

// Insert stores crawler records in one transaction. Re-inserting a record
// replaces its body and clears the processed flag.
func (s *SQLite) Insert(ctx context.Context, records []map[string]any) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, body, processed) VALUES (?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, processed = 0,
			processed_at = NULL, processed_file = NULL`, s.table))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, record := range records {
		id, err := recordID(record)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		body, err := json.Marshal(record)
		if err != nil {
			return 0, fmt.Errorf("record %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(body)); err != nil {
			return 0, fmt.Errorf("insert %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// Processed reports the stored processed state of a document.
func (s *SQLite) Processed(ctx context.Context, docID string) (bool, string, error) {
	var (
		processed bool
		file      sql.NullString
	)
	query := fmt.Sprintf("SELECT processed, processed_file FROM %s WHERE id = ?", s.table)
	err := s.db.QueryRowContext(ctx, query, docID).Scan(&processed, &file)
	if err == sql.ErrNoRows {
		return false, "", fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return false, "", fmt.Errorf("query %s: %w", docID, err)
	}
	return processed, file.String, nil
}

// Close closes the database.
func (s *SQLite) Close(context.Context) error {
	return s.db.Close()
}
