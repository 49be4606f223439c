// Package postgres provides a comparison history store backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/fwojciec/comparator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time interface verification.
var _ comparator.HistoryStore = (*Store)(nil)

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
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_history_user ON query_history (user_id, created_at DESC);
`

// Config holds discrete connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders c as a postgres:// URL.
func (c Config) DSN() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// Store persists HistoryEntry records through a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, verifies the connection, and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping pool: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all pooled connections.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Save inserts entry.
func (s *Store) Save(ctx context.Context, entry comparator.HistoryEntry) error {
	var system, user *string
	if entry.Parts != nil {
		system, user = &entry.Parts.System, &entry.Parts.User
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO query_history
			(id, user_id, prompt, system_prompt, user_prompt, response_groq, response_gemini, mode, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID,
		entry.UserID,
		entry.Prompt,
		system,
		user,
		nullable(entry.Responses[comparator.Groq]),
		nullable(entry.Responses[comparator.Gemini]),
		entry.Mode,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for userID, most recent first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]comparator.HistoryEntry, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, prompt, system_prompt, user_prompt, response_groq, response_gemini, mode, created_at
		FROM query_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, lim,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: query history: %w", err)
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
		return nil, fmt.Errorf("postgres: iterate history: %w", err)
	}
	return entries, nil
}

// Get returns the entry with id owned by userID.
func (s *Store) Get(ctx context.Context, userID, id string) (*comparator.HistoryEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, prompt, system_prompt, user_prompt, response_groq, response_gemini, mode, created_at
		FROM query_history
		WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, comparator.ErrNotFound
	}
	return e, err
}

func scanEntry(row pgx.Row) (*comparator.HistoryEntry, error) {
	var (
		e                    comparator.HistoryEntry
		system, user         *string
		respGroq, respGemini *string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Prompt, &system, &user, &respGroq, &respGemini, &e.Mode, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: scan entry: %w", err)
	}

	if user != nil {
		p := comparator.Prompt{User: *user}
		if system != nil {
			p.System = *system
		}
		e.Parts = &p
	}
	e.Responses = make(map[comparator.ProviderKey]string, 2)
	if respGroq != nil {
		e.Responses[comparator.Groq] = *respGroq
	}
	if respGemini != nil {
		e.Responses[comparator.Gemini] = *respGemini
	}
	return &e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
