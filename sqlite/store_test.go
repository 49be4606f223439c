package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/comparator"
	"github.com/fwojciec/comparator/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndGet(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	at := time.Date(2025, 1, 15, 10, 30, 0, 123, time.UTC)
	entry := comparator.HistoryEntry{
		ID:        "abc",
		UserID:    "42",
		Prompt:    "Be concise\n\nWhat is TCP?",
		Parts:     &comparator.Prompt{System: "Be concise", User: "What is TCP?"},
		Mode:      "both",
		Responses: map[comparator.ProviderKey]string{comparator.Groq: "a", comparator.Gemini: "b"},
		CreatedAt: at,
	}

	require.NoError(t, store.Save(context.Background(), entry))

	got, err := store.Get(context.Background(), "42", "abc")
	require.NoError(t, err)
	assert.Equal(t, entry.Prompt, got.Prompt)
	assert.Equal(t, entry.Parts, got.Parts)
	assert.Equal(t, entry.Responses, got.Responses)
	assert.True(t, at.Equal(got.CreatedAt))

	_, err = store.Get(context.Background(), "other-user", "abc")
	require.ErrorIs(t, err, comparator.ErrNotFound)
}

func TestStore_Save_LegacyShape(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	require.NoError(t, store.Save(context.Background(), comparator.HistoryEntry{
		ID:        "legacy",
		UserID:    "42",
		Prompt:    "What is TCP?",
		Mode:      "groq",
		Responses: map[comparator.ProviderKey]string{comparator.Groq: "a"},
		CreatedAt: time.Now(),
	}))

	got, err := store.Get(context.Background(), "42", "legacy")

	require.NoError(t, err)
	assert.Nil(t, got.Parts)
	assert.Equal(t, map[comparator.ProviderKey]string{comparator.Groq: "a"}, got.Responses)
}

func TestStore_Recent(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	for i := range 7 {
		require.NoError(t, store.Save(context.Background(), comparator.HistoryEntry{
			ID:        fmt.Sprint(i),
			UserID:    "42",
			Prompt:    "p",
			Mode:      "both",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, store.Save(context.Background(), comparator.HistoryEntry{
		ID: "x", UserID: "7", Prompt: "p", Mode: "both", CreatedAt: base.Add(time.Hour),
	}))

	entries, err := store.Recent(context.Background(), "42", comparator.HistoryLimit)

	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "6", entries[0].ID)
	assert.Equal(t, "2", entries[4].ID)

	all, err := store.Recent(context.Background(), "42", 0)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestStore_Recent_OrdersFractionalSeconds(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), comparator.HistoryEntry{ID: "whole", UserID: "u", Prompt: "p", Mode: "both", CreatedAt: base}))
	require.NoError(t, store.Save(context.Background(), comparator.HistoryEntry{ID: "later", UserID: "u", Prompt: "p", Mode: "both", CreatedAt: base.Add(500 * time.Millisecond)}))

	entries, err := store.Recent(context.Background(), "u", 5)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "later", entries[0].ID)
}

func TestStore_Save_RejectsDuplicateID(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	e := comparator.HistoryEntry{ID: "dup", UserID: "u", Prompt: "p", Mode: "both", CreatedAt: time.Now()}
	require.NoError(t, store.Save(context.Background(), e))

	err := store.Save(context.Background(), e)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: save entry")
}
