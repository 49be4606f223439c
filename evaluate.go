package comparator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// RubricOutcome pairs both providers' results with the evaluation of them.
// Evaluation is never nil; when scoring could not happen it has Success
// false and Error set, and Results are still complete.
type RubricOutcome struct {
	Results    ResultSet         `json:"results"`
	Evaluation *RubricEvaluation `json:"evaluation"`
}

// RubricAdapter runs a two-provider comparison and scores it.
type RubricAdapter struct {
	dispatcher *Dispatcher
	evaluator  Evaluator
	logger     *slog.Logger
}

// NewRubricAdapter creates a RubricAdapter. A nil logger discards output.
func NewRubricAdapter(dispatcher *Dispatcher, evaluator Evaluator, logger *slog.Logger) *RubricAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RubricAdapter{dispatcher: dispatcher, evaluator: evaluator, logger: logger}
}

// Evaluate dispatches prompt to both providers and asks the evaluator to
// score the two answers. Scoring is skipped when either provider failed.
// Evaluator failures degrade to an unsuccessful evaluation. Only a
// *ValidationError is returned as an error.
func (a *RubricAdapter) Evaluate(ctx context.Context, prompt Prompt) (*RubricOutcome, error) {
	results, err := a.dispatcher.Dispatch(ctx, ModeBoth, prompt)
	if err != nil {
		return nil, err
	}
	out := &RubricOutcome{Results: results}

	if results.HasErrors() {
		out.Evaluation = &RubricEvaluation{
			Error: "rubric skipped: both providers must answer before scoring",
		}
		return out, nil
	}
	if a.evaluator == nil {
		out.Evaluation = &RubricEvaluation{Error: "rubric evaluator not configured"}
		return out, nil
	}

	label := a.evaluator.Label()
	eval, err := scoreResponses(ctx, a.evaluator, RubricRequest{
		Prompt:    prompt.Encode(),
		ResponseA: results[Groq].Response,
		ResponseB: results[Gemini].Response,
	})
	if err == nil && (eval == nil || !eval.Success) {
		err = errUnsuccessful(eval)
	}
	if err != nil {
		var ee *EvaluatorError
		if !errors.As(err, &ee) {
			err = &EvaluatorError{Evaluator: label, Err: err}
		}
		a.logger.Warn("rubric evaluation failed", "evaluator", label, "error", err)
		out.Evaluation = &RubricEvaluation{
			Evaluator: label,
			Error:     "failed to generate comparison rubric: " + describeError(err),
		}
		return out, nil
	}

	scored := *eval
	if scored.Evaluator == "" {
		scored.Evaluator = label
	}
	scored.Warnings = ValidateEvaluation(&scored, ModeBoth.Providers())
	for _, w := range scored.Warnings {
		a.logger.Warn("rubric score warning",
			"evaluator", scored.Evaluator,
			"provider", w.Provider,
			"reason", w.Reason,
			"detail", w.Error(),
		)
	}
	out.Evaluation = &scored
	return out, nil
}

// scoreResponses calls e and turns a panic into an error.
func scoreResponses(ctx context.Context, e Evaluator, req RubricRequest) (eval *RubricEvaluation, err error) {
	defer func() {
		if r := recover(); r != nil {
			eval, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return e.ScoreResponses(ctx, req)
}

func errUnsuccessful(eval *RubricEvaluation) error {
	if eval != nil && eval.Error != "" {
		return errors.New(eval.Error)
	}
	return errors.New("evaluation unsuccessful")
}

// FallbackEvaluator tries each evaluator in order and returns the first
// successful evaluation.
type FallbackEvaluator struct {
	evaluators []Evaluator
	logger     *slog.Logger
}

// NewFallbackEvaluator creates a FallbackEvaluator over evaluators.
func NewFallbackEvaluator(logger *slog.Logger, evaluators ...Evaluator) *FallbackEvaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FallbackEvaluator{evaluators: evaluators, logger: logger}
}

// Label joins the labels of the wrapped evaluators.
func (f *FallbackEvaluator) Label() string {
	labels := make([]string, len(f.evaluators))
	for i, e := range f.evaluators {
		labels[i] = e.Label()
	}
	return strings.Join(labels, " / ")
}

// ScoreResponses implements Evaluator.
func (f *FallbackEvaluator) ScoreResponses(ctx context.Context, req RubricRequest) (*RubricEvaluation, error) {
	if len(f.evaluators) == 0 {
		return nil, &EvaluatorError{Err: errors.New("no evaluators configured")}
	}

	var errs []error
	for _, e := range f.evaluators {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		eval, err := scoreResponses(ctx, e, req)
		if err == nil && eval != nil && eval.Success {
			if eval.Evaluator == "" {
				eval.Evaluator = e.Label()
			}
			return eval, nil
		}
		if err == nil {
			err = errUnsuccessful(eval)
		}
		f.logger.Warn("evaluator failed, trying next", "evaluator", e.Label(), "error", err)
		errs = append(errs, &EvaluatorError{Evaluator: e.Label(), Err: err})
	}
	return nil, errors.Join(errs...)
}

// Compile-time interface verification.
var _ Evaluator = (*FallbackEvaluator)(nil)
