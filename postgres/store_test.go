package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/comparator"
	"github.com/fwojciec/comparator/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestConfig_DSN(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		cfg := postgres.Config{Host: "localhost", User: "postgres", Name: "ai_comparator"}

		assert.Equal(t, "postgres://postgres@localhost:5432/ai_comparator?sslmode=disable", cfg.DSN())
	})

	t.Run("escapes credentials", func(t *testing.T) {
		t.Parallel()

		cfg := postgres.Config{Host: "db", Port: 6543, User: "app", Password: "p@ss/word", Name: "history", SSLMode: "require"}

		assert.Equal(t, "postgres://app:p%40ss%2Fword@db:6543/history?sslmode=require", cfg.DSN())
	})
}

// startPostgres runs a disposable PostgreSQL container and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "comparator",
				"POSTGRES_PASSWORD": "comparator",
				"POSTGRES_DB":       "comparator",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return postgres.Config{
		Host:     host,
		Port:     port.Int(),
		User:     "comparator",
		Password: "comparator",
		Name:     "comparator",
	}.DSN()
}

func TestStore(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	store, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	t.Run("saves and loads an entry", func(t *testing.T) {
		entry := comparator.HistoryEntry{
			ID:        "abc",
			UserID:    "42",
			Prompt:    "Be concise\n\nWhat is TCP?",
			Parts:     &comparator.Prompt{System: "Be concise", User: "What is TCP?"},
			Mode:      "both",
			Responses: map[comparator.ProviderKey]string{comparator.Groq: "a", comparator.Gemini: "b"},
			CreatedAt: base,
		}
		require.NoError(t, store.Save(ctx, entry))

		got, err := store.Get(ctx, "42", "abc")

		require.NoError(t, err)
		assert.Equal(t, entry.Parts, got.Parts)
		assert.Equal(t, entry.Responses, got.Responses)
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("hides entries owned by another user", func(t *testing.T) {
		_, err := store.Get(ctx, "7", "abc")

		require.ErrorIs(t, err, comparator.ErrNotFound)
	})

	t.Run("lists recent entries newest first", func(t *testing.T) {
		for i := range 6 {
			require.NoError(t, store.Save(ctx, comparator.HistoryEntry{
				ID:        fmt.Sprintf("recent-%d", i),
				UserID:    "99",
				Prompt:    "p",
				Mode:      "groq",
				Responses: map[comparator.ProviderKey]string{comparator.Groq: "a"},
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}

		entries, err := store.Recent(ctx, "99", comparator.HistoryLimit)

		require.NoError(t, err)
		require.Len(t, entries, 5)
		assert.Equal(t, "recent-5", entries[0].ID)
		assert.Nil(t, entries[0].Parts)
	})
}
