package mock

import (
	"context"

	"github.com/fwojciec/comparator"
)

// Compile-time interface verification.
var _ comparator.Evaluator = (*Evaluator)(nil)

// Evaluator is a mock implementation of comparator.Evaluator.
type Evaluator struct {
	Name             string
	ScoreResponsesFn func(ctx context.Context, req comparator.RubricRequest) (*comparator.RubricEvaluation, error)
}

func (e *Evaluator) Label() string {
	return e.Name
}

func (e *Evaluator) ScoreResponses(ctx context.Context, req comparator.RubricRequest) (*comparator.RubricEvaluation, error) {
	return e.ScoreResponsesFn(ctx, req)
}
