package comparator

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrEmptyPrompt     = errors.New("prompt is required")
	ErrInvalidMode     = errors.New("mode must be one of groq, gemini, both")
	ErrNotConfigured   = errors.New("provider not configured")
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("history entry not found")
	ErrNoHistoryStore  = errors.New("history store not configured")
)

// ValidationError reports input rejected before any provider is called.
// It is the only failure a comparison returns as an error.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ProviderError wraps the failure of a single provider call.
type ProviderError struct {
	Provider ProviderKey
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Detail returns the message shown to users for the failure.
func (e *ProviderError) Detail() string {
	return describeError(e.Err)
}

// EvaluatorError wraps the failure of the rubric scoring step.
type EvaluatorError struct {
	Evaluator string
	Err       error
}

func (e *EvaluatorError) Error() string {
	if e.Evaluator == "" {
		return fmt.Sprintf("evaluator: %v", e.Err)
	}
	return fmt.Sprintf("evaluator %s: %v", e.Evaluator, e.Err)
}

func (e *EvaluatorError) Unwrap() error {
	return e.Err
}

// describeError renders err for display; deadline failures read "timeout".
func describeError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return "timeout"
	}
	return err.Error()
}
