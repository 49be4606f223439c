package comparator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSaveTimeout bounds a single history write.
const DefaultSaveTimeout = 10 * time.Second

// Recorder writes comparisons to a HistoryStore in the background. Writes
// never delay the caller; failures are logged and sent on Errors.
type Recorder struct {
	store   HistoryStore
	logger  *slog.Logger
	now     func() time.Time
	timeout time.Duration

	wg   sync.WaitGroup
	errs chan error
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger for failed writes.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = l
	}
}

// WithRecorderClock sets the function used to stamp entries.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithSaveTimeout bounds each write.
func WithSaveTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.timeout = d
	}
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store HistoryStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		timeout: DefaultSaveTimeout,
		errs:    make(chan error, 16),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record schedules a write of the comparison and reports whether it did.
// Anonymous sessions and result sets containing a failed provider are not
// recorded.
func (r *Recorder) Record(session Session, prompt Prompt, mode Mode, results ResultSet) bool {
	if !session.Authenticated() || len(results) == 0 || results.HasErrors() {
		return false
	}

	entry := HistoryEntry{
		ID:        uuid.NewString(),
		UserID:    session.UserID,
		Prompt:    prompt.Encode(),
		Mode:      string(mode),
		Responses: results.Responses(),
		CreatedAt: r.now().UTC(),
	}
	if !prompt.Combined {
		parts := Prompt{System: prompt.System, User: prompt.User}
		entry.Parts = &parts
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.store.Save(ctx, entry); err != nil {
			err = fmt.Errorf("record history %s: %w", entry.ID, err)
			r.logger.Warn("history write failed", "user_id", entry.UserID, "error", err)
			select {
			case r.errs <- err:
			default:
			}
		}
	}()
	return true
}

// Errors returns failed writes. Failures are dropped when nobody drains it.
func (r *Recorder) Errors() <-chan error {
	return r.errs
}

// Wait blocks until every scheduled write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
