package comparator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/comparator"
	"github.com/fwojciec/comparator/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore collects saved entries for assertions.
type memoryStore struct {
	mu      sync.Mutex
	entries []comparator.HistoryEntry
}

func (s *memoryStore) store() *mock.HistoryStore {
	return &mock.HistoryStore{
		SaveFn: func(ctx context.Context, entry comparator.HistoryEntry) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.entries = append(s.entries, entry)
			return nil
		},
	}
}

func (s *memoryStore) saved() []comparator.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]comparator.HistoryEntry(nil), s.entries...)
}

func TestRecorder_Record(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	ok := comparator.ResultSet{
		comparator.Groq:   {Provider: comparator.Groq, Response: "a"},
		comparator.Gemini: {Provider: comparator.Gemini, Response: "b"},
	}

	t.Run("writes an entry for an authenticated session", func(t *testing.T) {
		t.Parallel()

		mem := &memoryStore{}
		r := comparator.NewRecorder(mem.store(), comparator.WithRecorderClock(func() time.Time { return now }))

		scheduled := r.Record(comparator.Session{UserID: "42"}, comparator.Prompt{System: "Be concise", User: "What is TCP?"}, comparator.ModeBoth, ok)
		r.Wait()

		assert.True(t, scheduled)
		saved := mem.saved()
		require.Len(t, saved, 1)
		entry := saved[0]
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, "42", entry.UserID)
		assert.Equal(t, "Be concise\n\nWhat is TCP?", entry.Prompt)
		require.NotNil(t, entry.Parts)
		assert.Equal(t, "Be concise", entry.Parts.System)
		assert.Equal(t, "both", entry.Mode)
		assert.Equal(t, map[comparator.ProviderKey]string{comparator.Groq: "a", comparator.Gemini: "b"}, entry.Responses)
		assert.Equal(t, now, entry.CreatedAt)
	})

	t.Run("keeps only the encoded text of a combined prompt", func(t *testing.T) {
		t.Parallel()

		mem := &memoryStore{}
		r := comparator.NewRecorder(mem.store())

		r.Record(comparator.Session{UserID: "42"}, comparator.Prompt{User: "Para one\n\nPara two", Combined: true}, comparator.ModeBoth, ok)
		r.Wait()

		saved := mem.saved()
		require.Len(t, saved, 1)
		assert.Equal(t, "Para one\n\nPara two", saved[0].Prompt)
		assert.Nil(t, saved[0].Parts)
	})

	t.Run("skips anonymous sessions", func(t *testing.T) {
		t.Parallel()

		mem := &memoryStore{}
		r := comparator.NewRecorder(mem.store())

		scheduled := r.Record(comparator.Session{}, comparator.Prompt{User: "hi"}, comparator.ModeBoth, ok)
		r.Wait()

		assert.False(t, scheduled)
		assert.Empty(t, mem.saved())
	})

	t.Run("skips result sets with a failed provider", func(t *testing.T) {
		t.Parallel()

		mem := &memoryStore{}
		r := comparator.NewRecorder(mem.store())
		partial := comparator.ResultSet{
			comparator.Groq:   {Provider: comparator.Groq, Response: "a"},
			comparator.Gemini: {Provider: comparator.Gemini, IsError: true, Error: "timeout"},
		}

		scheduled := r.Record(comparator.Session{UserID: "42"}, comparator.Prompt{User: "hi"}, comparator.ModeBoth, partial)
		r.Wait()

		assert.False(t, scheduled)
		assert.Empty(t, mem.saved())
	})

	t.Run("reports failed writes on the error channel", func(t *testing.T) {
		t.Parallel()

		r := comparator.NewRecorder(&mock.HistoryStore{
			SaveFn: func(ctx context.Context, entry comparator.HistoryEntry) error {
				return errors.New("disk full")
			},
		})

		r.Record(comparator.Session{UserID: "42"}, comparator.Prompt{User: "hi"}, comparator.ModeGroq, comparator.ResultSet{
			comparator.Groq: {Provider: comparator.Groq, Response: "a"},
		})
		r.Wait()

		select {
		case err := <-r.Errors():
			assert.Contains(t, err.Error(), "disk full")
		default:
			t.Fatal("expected a write error")
		}
	})
}
