package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/comparator"
)

// Compile-time interface verification.
var _ comparator.Evaluator = (*Evaluator)(nil)

// EvaluatorLabel names Gemini in rubric results.
const EvaluatorLabel = "Gemini Flash"

// DefaultEvaluateTimeout is the default timeout for a single scoring call.
const DefaultEvaluateTimeout = 60 * time.Second

// Evaluator implements comparator.Evaluator using Google Gemini.
type Evaluator struct {
	client  GenerativeClient
	model   string
	timeout time.Duration
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithTimeout sets the timeout for API calls.
func WithTimeout(d time.Duration) EvaluatorOption {
	return func(e *Evaluator) {
		e.timeout = d
	}
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(client GenerativeClient, model string, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		client:  client,
		model:   model,
		timeout: DefaultEvaluateTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Label returns EvaluatorLabel.
func (e *Evaluator) Label() string {
	return EvaluatorLabel
}

// ScoreResponses asks Gemini to score both responses against the rubric.
func (e *Evaluator) ScoreResponses(ctx context.Context, req comparator.RubricRequest) (*comparator.RubricEvaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	contents := []*Content{{
		Parts: []*Part{{Text: comparator.BuildRubricPrompt(req)}},
	}}

	resp, err := e.client.GenerateContent(ctx, e.model, contents, BuildRubricConfig())
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("gemini: returned nil response")
	}

	eval, err := comparator.ParseRubricPayload(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to parse response: %w", err)
	}
	eval.Evaluator = EvaluatorLabel
	return eval, nil
}

// BuildRubricConfig returns config for rubric scoring calls.
func BuildRubricConfig() *GenerateContentConfig {
	temp := float32(0.2)
	return &GenerateContentConfig{
		SystemInstruction: &Content{
			Parts: []*Part{{
				Text: `You are an impartial judge of AI assistant answers. Score strictly against the rubric, keep totals equal to the sum of the criteria, and reply with JSON only.`,
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   RubricSchema(),
	}
}

// RubricSchema describes the rubric payload for controlled JSON generation.
func RubricSchema() *Schema {
	score := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"accuracy":     {Type: "integer"},
			"relevance":    {Type: "integer"},
			"clarity":      {Type: "integer"},
			"completeness": {Type: "integer"},
			"usefulness":   {Type: "integer"},
			"total":        {Type: "integer", Description: "Sum of the five criteria"},
			"strengths":    {Type: "array", Items: &Schema{Type: "string"}},
			"weaknesses":   {Type: "array", Items: &Schema{Type: "string"}},
		},
		Required: []string{"accuracy", "relevance", "clarity", "completeness", "usefulness", "total", "strengths", "weaknesses"},
		PropertyOrdering: []string{
			"accuracy", "relevance", "clarity", "completeness", "usefulness", "total", "strengths", "weaknesses",
		},
	}
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"response_a":         score,
			"response_b":         score,
			"overall_comparison": {Type: "string"},
			"recommendation":     {Type: "string"},
		},
		Required:         []string{"response_a", "response_b", "overall_comparison", "recommendation"},
		PropertyOrdering: []string{"response_a", "response_b", "overall_comparison", "recommendation"},
	}
}
