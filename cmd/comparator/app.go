package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/comparator"
	"github.com/fwojciec/comparator/lipgloss"
)

// App runs comparator operations and writes their results to Output.
type App struct {
	Service  *comparator.Service
	Renderer *lipgloss.Renderer
	Output   io.Writer
	Session  comparator.Session
	JSON     bool
}

// Compare runs a comparison in mode and prints the results.
func (a *App) Compare(ctx context.Context, prompt comparator.Prompt, mode comparator.Mode) error {
	results, err := a.Service.RunComparison(ctx, a.Session, prompt, mode)
	if err != nil {
		return err
	}
	if a.JSON {
		return a.writeJSON(results)
	}
	_, err = fmt.Fprintln(a.Output, a.Renderer.Results(results))
	return err
}

// Rubric runs a scored comparison and prints results and evaluation.
func (a *App) Rubric(ctx context.Context, prompt comparator.Prompt) error {
	out, err := a.Service.RunRubricComparison(ctx, a.Session, prompt)
	if err != nil {
		return err
	}
	if a.JSON {
		return a.writeJSON(out)
	}
	_, err = fmt.Fprintf(a.Output, "%s\n\n%s\n", a.Renderer.Results(out.Results), a.Renderer.Evaluation(out.Evaluation))
	return err
}

// History prints the session's recent comparisons.
func (a *App) History(ctx context.Context) error {
	entries, err := a.Service.History(ctx, a.Session)
	if err != nil {
		return err
	}
	if a.JSON {
		if entries == nil {
			entries = []comparator.HistoryEntry{}
		}
		return a.writeJSON(entries)
	}
	_, err = fmt.Fprintln(a.Output, a.Renderer.History(entries))
	return err
}

// Replay prints the stored comparison with the given id.
func (a *App) Replay(ctx context.Context, id string) error {
	replay, err := a.Service.Replay(ctx, a.Session, id)
	if err != nil {
		return err
	}
	if a.JSON {
		return a.writeJSON(replay)
	}
	_, err = fmt.Fprintln(a.Output, a.Renderer.Replay(*replay))
	return err
}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.Output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// HTTPServer is the subset of server.Server that ServeApp drives.
type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// ServeApp runs an HTTP server until its context is cancelled.
type ServeApp struct {
	Server          HTTPServer
	Logger          *slog.Logger
	ShutdownTimeout time.Duration
}

// Run starts the server and shuts it down gracefully when ctx is done.
func (a *ServeApp) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := a.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if a.Logger != nil {
		a.Logger.Info("server stopped")
	}
	return nil
}
