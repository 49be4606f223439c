package groq

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/comparator"
)

// Compile-time interface verification.
var _ comparator.Evaluator = (*Evaluator)(nil)

// EvaluatorLabel names Groq in rubric results.
const EvaluatorLabel = "Groq Llama 3.3"

// Evaluator defaults.
const (
	EvaluatorMaxTokens     = 2000
	DefaultEvaluateTimeout = 60 * time.Second
	evaluatorTemperature   = 0.2
)

// Evaluator implements comparator.Evaluator using Groq.
type Evaluator struct {
	client  ChatClient
	model   string
	timeout time.Duration
}

// NewEvaluator creates a new Evaluator. A non-positive timeout uses
// DefaultEvaluateTimeout.
func NewEvaluator(client ChatClient, model string, timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = DefaultEvaluateTimeout
	}
	return &Evaluator{client: client, model: model, timeout: timeout}
}

// Label returns EvaluatorLabel.
func (e *Evaluator) Label() string {
	return EvaluatorLabel
}

// ScoreResponses asks Groq to score both responses against the rubric.
func (e *Evaluator) ScoreResponses(ctx context.Context, req comparator.RubricRequest) (*comparator.RubricEvaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	temp := evaluatorTemperature
	resp, err := e.client.Complete(ctx, ChatRequest{
		Model:          e.model,
		Messages:       []Message{{Role: "user", Content: comparator.BuildRubricPrompt(req)}},
		MaxTokens:      EvaluatorMaxTokens,
		Temperature:    &temp,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	eval, err := comparator.ParseRubricPayload(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("groq: failed to parse response: %w", err)
	}
	eval.Evaluator = EvaluatorLabel
	return eval, nil
}
