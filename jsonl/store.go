// Package jsonl provides a comparison history store backed by a JSONL file.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fwojciec/comparator"
)

// Compile-time interface verification.
var _ comparator.HistoryStore = (*Store)(nil)

// maxLineSize is the maximum size for a single JSONL line (4MB).
const maxLineSize = 4 * 1024 * 1024

// Store appends HistoryEntry records to a JSONL file, one entry per line.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a new Store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Save appends entry to the file, creating parent directories if needed.
func (s *Store) Save(ctx context.Context, entry comparator.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return err
	}

	return nil
}

// Recent returns up to limit entries for userID, most recent first. A
// missing file has no entries.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]comparator.HistoryEntry, error) {
	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with id owned by userID.
func (s *Store) Get(ctx context.Context, userID, id string) (*comparator.HistoryEntry, error) {
	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, comparator.ErrNotFound
}

// load reads every entry belonging to userID.
func (s *Store) load(ctx context.Context, userID string) ([]comparator.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []comparator.HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var e comparator.HistoryEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
