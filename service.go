package comparator

import (
	"context"
	"log/slog"
)

// Service is the entry point presentation layers call: comparisons, rubric
// comparisons and history replay, each scoped to an explicit Session.
type Service struct {
	dispatcher *Dispatcher
	rubric     *RubricAdapter
	store      HistoryStore
	recorder   *Recorder
	logger     *slog.Logger
}

// ServiceConfig wires a Service. Store and Recorder may be nil, in which
// case nothing is recorded and history calls fail with ErrNoHistoryStore.
type ServiceConfig struct {
	Dispatcher *Dispatcher
	Evaluator  Evaluator
	Store      HistoryStore
	Recorder   *Recorder
	Logger     *slog.Logger
}

// NewService creates a Service from cfg.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		dispatcher: cfg.Dispatcher,
		rubric:     NewRubricAdapter(cfg.Dispatcher, cfg.Evaluator, logger),
		store:      cfg.Store,
		recorder:   cfg.Recorder,
		logger:     logger,
	}
}

// RunComparison sends prompt to the providers selected by mode and records
// the result for authenticated sessions when every provider answered.
func (s *Service) RunComparison(ctx context.Context, session Session, prompt Prompt, mode Mode) (ResultSet, error) {
	results, err := s.dispatcher.Dispatch(ctx, mode, prompt)
	if err != nil {
		return nil, err
	}
	s.record(session, prompt, mode, results)
	return results, nil
}

// RunRubricComparison compares both providers and scores their answers. The
// run is recorded only when scoring succeeded.
func (s *Service) RunRubricComparison(ctx context.Context, session Session, prompt Prompt) (*RubricOutcome, error) {
	out, err := s.rubric.Evaluate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if out.Evaluation != nil && out.Evaluation.Success {
		s.record(session, prompt, ModeBoth, out.Results)
	}
	return out, nil
}

// History returns the session's most recent comparisons, newest first.
func (s *Service) History(ctx context.Context, session Session) ([]HistoryEntry, error) {
	if !session.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if s.store == nil {
		return nil, ErrNoHistoryStore
	}
	return s.store.Recent(ctx, session.UserID, HistoryLimit)
}

// ReplayHistoryEntry reconstructs a stored comparison.
func (s *Service) ReplayHistoryEntry(entry HistoryEntry) Replay {
	return Decode(entry)
}

// Replay loads the session's entry with the given id and reconstructs it.
func (s *Service) Replay(ctx context.Context, session Session, id string) (*Replay, error) {
	if !session.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if s.store == nil {
		return nil, ErrNoHistoryStore
	}
	entry, err := s.store.Get(ctx, session.UserID, id)
	if err != nil {
		return nil, err
	}
	replay := Decode(*entry)
	return &replay, nil
}

func (s *Service) record(session Session, prompt Prompt, mode Mode, results ResultSet) {
	if s.recorder == nil {
		return
	}
	if !s.recorder.Record(session, prompt, mode, results) {
		s.logger.Debug("comparison not recorded",
			"authenticated", session.Authenticated(),
			"partial", results.HasErrors(),
		)
	}
}
