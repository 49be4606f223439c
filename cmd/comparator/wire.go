package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/comparator"
	"github.com/fwojciec/comparator/gemini"
	"github.com/fwojciec/comparator/groq"
	"github.com/fwojciec/comparator/jsonl"
	"github.com/fwojciec/comparator/postgres"
	"github.com/fwojciec/comparator/sqlite"
)

// newLogger builds the process logger. Servers log JSON; the CLI logs text.
func newLogger(w io.Writer, cfg Config, json bool) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// deps holds the long-lived objects built from a Config.
type deps struct {
	service  *comparator.Service
	recorder *comparator.Recorder
	closers  []func() error
}

// Close waits for pending history writes, then releases resources.
func (d *deps) Close() error {
	if d.recorder != nil {
		d.recorder.Wait()
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// build wires providers, evaluators, and the history store from cfg.
func build(ctx context.Context, cfg Config, logger *slog.Logger) (*deps, error) {
	d := &deps{}

	var (
		providers  []comparator.Provider
		evaluators []comparator.Evaluator
	)
	// Gemini is the primary evaluator; Groq is the fallback.
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		d.closers = append(d.closers, client.Close)
		providers = append(providers, gemini.NewProvider(client, cfg.GeminiModel))
		evaluators = append(evaluators, gemini.NewEvaluator(client, cfg.GeminiModel))
	}
	if cfg.GroqAPIKey != "" {
		client := groq.NewClient(cfg.GroqAPIKey)
		providers = append(providers, groq.NewProvider(client, cfg.GroqModel, groq.DefaultMaxTokens))
		evaluators = append(evaluators, groq.NewEvaluator(client, cfg.GroqModel, groq.DefaultEvaluateTimeout))
	}

	if len(providers) == 0 {
		logger.Warn("no provider configured, set GROQ_API_KEY or GEMINI_API_KEY")
	}

	dispatcher := comparator.NewDispatcher(providers,
		comparator.WithTimeout(cfg.Timeout),
		comparator.WithLogger(logger),
	)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.closers = append(d.closers, closeStore)
	d.recorder = comparator.NewRecorder(store, comparator.WithRecorderLogger(logger))

	var evaluator comparator.Evaluator
	if len(evaluators) > 0 {
		evaluator = comparator.NewFallbackEvaluator(logger, evaluators...)
	}

	d.service = comparator.NewService(comparator.ServiceConfig{
		Dispatcher: dispatcher,
		Evaluator:  evaluator,
		Store:      store,
		Recorder:   d.recorder,
		Logger:     logger,
	})
	return d, nil
}

// openStore opens the history backend selected by cfg.
func openStore(ctx context.Context, cfg Config) (comparator.HistoryStore, func() error, error) {
	switch cfg.HistoryBackend() {
	case BackendPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case BackendJSONL:
		return jsonl.NewStore(cfg.JSONLPath), func() error { return nil }, nil
	default:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}

// promptFromArgs joins positional arguments into the user prompt.
func promptFromArgs(system string, args []string) comparator.Prompt {
	return comparator.Prompt{System: system, User: strings.Join(args, " ")}
}
