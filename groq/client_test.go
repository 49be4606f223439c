package groq_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/comparator/groq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	t.Run("posts a chat completion request", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req groq.ChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, groq.DefaultModel, req.Model)
			assert.Equal(t, 1000, req.MaxTokens)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "user", req.Messages[0].Role)
			assert.Equal(t, "hello", req.Messages[0].Content)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"c1","model":"llama-3.3-70b-versatile","choices":[{"index":0,"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}],"usage":{"total_tokens":12}}`))
		}))
		defer srv.Close()

		client := groq.NewClient("test-key", groq.WithBaseURL(srv.URL+"/"))
		resp, err := client.Complete(context.Background(), groq.ChatRequest{
			Model:     groq.DefaultModel,
			Messages:  []groq.Message{{Role: "user", Content: "hello"}},
			MaxTokens: 1000,
		})

		require.NoError(t, err)
		assert.Equal(t, "hi there", resp.Text())
		assert.Equal(t, 12, resp.Usage.TotalTokens)
	})

	t.Run("returns an APIError for non-200 responses", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"tokens"}}`))
		}))
		defer srv.Close()

		_, err := groq.NewClient("k", groq.WithBaseURL(srv.URL)).Complete(context.Background(), groq.ChatRequest{})

		var apiErr *groq.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
		assert.Equal(t, "groq API error (HTTP 429): Rate limit reached", apiErr.Error())
	})

	t.Run("uses the raw body when the error is not json", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}))
		defer srv.Close()

		_, err := groq.NewClient("k", groq.WithBaseURL(srv.URL)).Complete(context.Background(), groq.ChatRequest{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "upstream down")
	})

	t.Run("returns error on malformed body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer srv.Close()

		_, err := groq.NewClient("k", groq.WithBaseURL(srv.URL)).Complete(context.Background(), groq.ChatRequest{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "groq: decode response")
	})

	t.Run("honors the context deadline", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := groq.NewClient("k", groq.WithBaseURL(srv.URL)).Complete(ctx, groq.ChatRequest{})

		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("waits for the rate limiter", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
		}))
		defer srv.Close()

		client := groq.NewClient("k", groq.WithBaseURL(srv.URL), groq.WithRateLimit(rate.Every(time.Hour), 1))

		_, err := client.Complete(context.Background(), groq.ChatRequest{})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = client.Complete(ctx, groq.ChatRequest{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limit wait")
	})
}
