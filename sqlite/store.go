// Package sqlite provides a comparison history store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/comparator"

	_ "modernc.org/sqlite"
)

// Compile-time interface verification.
var _ comparator.HistoryStore = (*Store)(nil)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS query_history (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	prompt TEXT NOT NULL,
	system_prompt TEXT,
	user_prompt TEXT,
	response_groq TEXT,
	response_gemini TEXT,
	mode TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_history_user ON query_history(user_id, created_at);
`

// Store persists HistoryEntry records in a query_history table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Save inserts entry.
func (s *Store) Save(ctx context.Context, entry comparator.HistoryEntry) error {
	var system, user sql.NullString
	if entry.Parts != nil {
		system = sql.NullString{String: entry.Parts.System, Valid: true}
		user = sql.NullString{String: entry.Parts.User, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history
			(id, user_id, prompt, system_prompt, user_prompt, response_groq, response_gemini, mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.Prompt,
		system,
		user,
		nullable(entry.Responses[comparator.Groq]),
		nullable(entry.Responses[comparator.Gemini]),
		entry.Mode,
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for userID, most recent first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]comparator.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, prompt, system_prompt, user_prompt, response_groq, response_gemini, mode, created_at
		FROM query_history
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query history: %w", err)
	}
	defer rows.Close()

	var entries []comparator.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate history: %w", err)
	}
	return entries, nil
}

// Get returns the entry with id owned by userID.
func (s *Store) Get(ctx context.Context, userID, id string) (*comparator.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, prompt, system_prompt, user_prompt, response_groq, response_gemini, mode, created_at
		FROM query_history
		WHERE user_id = ? AND id = ?`,
		userID, id,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comparator.ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*comparator.HistoryEntry, error) {
	var (
		e                    comparator.HistoryEntry
		system, user         sql.NullString
		respGroq, respGemini sql.NullString
		createdAt            string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Prompt, &system, &user, &respGroq, &respGemini, &e.Mode, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan entry: %w", err)
	}

	e.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse created_at %q: %w", createdAt, err)
	}
	if user.Valid {
		e.Parts = &comparator.Prompt{System: system.String, User: user.String}
	}
	e.Responses = make(map[comparator.ProviderKey]string, 2)
	if respGroq.Valid {
		e.Responses[comparator.Groq] = respGroq.String
	}
	if respGemini.Valid {
		e.Responses[comparator.Gemini] = respGemini.String
	}
	return &e, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
