package comparator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/comparator"
	"github.com/fwojciec/comparator/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RunComparison(t *testing.T) {
	t.Parallel()

	t.Run("records a complete comparison", func(t *testing.T) {
		t.Parallel()

		mem := &memoryStore{}
		recorder := comparator.NewRecorder(mem.store())
		svc := comparator.NewService(comparator.ServiceConfig{
			Dispatcher: bothProviders(),
			Recorder:   recorder,
		})

		results, err := svc.RunComparison(context.Background(), comparator.Session{UserID: "7"}, comparator.Prompt{User: "hi"}, comparator.ModeBoth)
		recorder.Wait()

		require.NoError(t, err)
		assert.Len(t, results, 2)
		require.Len(t, mem.saved(), 1)
		assert.Equal(t, "both", mem.saved()[0].Mode)
	})

	t.Run("does not record a partial comparison", func(t *testing.T) {
		t.Parallel()

		mem := &memoryStore{}
		recorder := comparator.NewRecorder(mem.store())
		svc := comparator.NewService(comparator.ServiceConfig{
			Dispatcher: comparator.NewDispatcher([]comparator.Provider{
				respond(comparator.Groq, "a"),
				fail(comparator.Gemini, errors.New("HTTP 503")),
			}),
			Recorder: recorder,
		})

		results, err := svc.RunComparison(context.Background(), comparator.Session{UserID: "7"}, comparator.Prompt{User: "hi"}, comparator.ModeBoth)
		recorder.Wait()

		require.NoError(t, err)
		assert.True(t, results.HasErrors())
		assert.Empty(t, mem.saved())
	})

	t.Run("surfaces validation errors", func(t *testing.T) {
		t.Parallel()

		svc := comparator.NewService(comparator.ServiceConfig{Dispatcher: bothProviders()})

		_, err := svc.RunComparison(context.Background(), comparator.Session{}, comparator.Prompt{}, comparator.ModeBoth)

		require.ErrorIs(t, err, comparator.ErrEmptyPrompt)
	})
}

func TestService_RunRubricComparison(t *testing.T) {
	t.Parallel()

	t.Run("records when scoring succeeds", func(t *testing.T) {
		t.Parallel()

		mem := &memoryStore{}
		recorder := comparator.NewRecorder(mem.store())
		svc := comparator.NewService(comparator.ServiceConfig{
			Dispatcher: bothProviders(),
			Evaluator: &mock.Evaluator{
				Name: "Gemini Flash",
				ScoreResponsesFn: func(ctx context.Context, req comparator.RubricRequest) (*comparator.RubricEvaluation, error) {
					return scoredEvaluation(40), nil
				},
			},
			Recorder: recorder,
		})

		out, err := svc.RunRubricComparison(context.Background(), comparator.Session{UserID: "7"}, comparator.Prompt{User: "hi"})
		recorder.Wait()

		require.NoError(t, err)
		assert.True(t, out.Evaluation.Success)
		require.Len(t, mem.saved(), 1)
		assert.Equal(t, "both", mem.saved()[0].Mode)
	})

	t.Run("does not record when scoring fails", func(t *testing.T) {
		t.Parallel()

		mem := &memoryStore{}
		recorder := comparator.NewRecorder(mem.store())
		svc := comparator.NewService(comparator.ServiceConfig{
			Dispatcher: bothProviders(),
			Evaluator: &mock.Evaluator{
				Name: "Gemini Flash",
				ScoreResponsesFn: func(ctx context.Context, req comparator.RubricRequest) (*comparator.RubricEvaluation, error) {
					return nil, errors.New("unavailable")
				},
			},
			Recorder: recorder,
		})

		out, err := svc.RunRubricComparison(context.Background(), comparator.Session{UserID: "7"}, comparator.Prompt{User: "hi"})
		recorder.Wait()

		require.NoError(t, err)
		assert.False(t, out.Evaluation.Success)
		assert.Len(t, out.Results, 2)
		assert.Empty(t, mem.saved())
	})
}

func TestService_History(t *testing.T) {
	t.Parallel()

	t.Run("loads the five most recent entries", func(t *testing.T) {
		t.Parallel()

		svc := comparator.NewService(comparator.ServiceConfig{
			Dispatcher: bothProviders(),
			Store: &mock.HistoryStore{
				RecentFn: func(ctx context.Context, userID string, limit int) ([]comparator.HistoryEntry, error) {
					assert.Equal(t, "7", userID)
					assert.Equal(t, 5, limit)
					return []comparator.HistoryEntry{{ID: "b"}, {ID: "a"}}, nil
				},
			},
		})

		entries, err := svc.History(context.Background(), comparator.Session{UserID: "7"})

		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("requires an authenticated session", func(t *testing.T) {
		t.Parallel()

		svc := comparator.NewService(comparator.ServiceConfig{Dispatcher: bothProviders(), Store: &mock.HistoryStore{}})

		_, err := svc.History(context.Background(), comparator.Session{})

		require.ErrorIs(t, err, comparator.ErrUnauthenticated)
	})

	t.Run("fails without a store", func(t *testing.T) {
		t.Parallel()

		svc := comparator.NewService(comparator.ServiceConfig{Dispatcher: bothProviders()})

		_, err := svc.History(context.Background(), comparator.Session{UserID: "7"})

		require.ErrorIs(t, err, comparator.ErrNoHistoryStore)
	})
}

func TestService_Replay(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	t.Run("decodes a stored entry", func(t *testing.T) {
		t.Parallel()

		svc := comparator.NewService(comparator.ServiceConfig{
			Dispatcher: bothProviders(),
			Store: &mock.HistoryStore{
				GetFn: func(ctx context.Context, userID, id string) (*comparator.HistoryEntry, error) {
					assert.Equal(t, "7", userID)
					assert.Equal(t, "abc", id)
					return &comparator.HistoryEntry{
						ID:        id,
						Prompt:    "Be concise\n\nWhat is TCP?",
						Mode:      "groq",
						Responses: map[comparator.ProviderKey]string{comparator.Groq: "a protocol"},
						CreatedAt: createdAt,
					}, nil
				},
			},
		})

		replay, err := svc.Replay(context.Background(), comparator.Session{UserID: "7"}, "abc")

		require.NoError(t, err)
		assert.Equal(t, "What is TCP?", replay.Prompt.User)
		assert.Equal(t, comparator.ModeGroq, replay.Mode)
		assert.Equal(t, createdAt, replay.Results[comparator.Groq].Timestamp)
	})

	t.Run("passes through not found", func(t *testing.T) {
		t.Parallel()

		svc := comparator.NewService(comparator.ServiceConfig{
			Dispatcher: bothProviders(),
			Store: &mock.HistoryStore{
				GetFn: func(ctx context.Context, userID, id string) (*comparator.HistoryEntry, error) {
					return nil, comparator.ErrNotFound
				},
			},
		})

		_, err := svc.Replay(context.Background(), comparator.Session{UserID: "7"}, "missing")

		require.ErrorIs(t, err, comparator.ErrNotFound)
	})

	t.Run("replays an entry without a store", func(t *testing.T) {
		t.Parallel()

		svc := comparator.NewService(comparator.ServiceConfig{Dispatcher: bothProviders()})

		replay := svc.ReplayHistoryEntry(comparator.HistoryEntry{Prompt: "What is TCP?", Mode: "both"})

		assert.Equal(t, "What is TCP?", replay.Prompt.User)
	})
}
