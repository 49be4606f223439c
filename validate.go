package comparator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// WarningReason identifies why a rubric score looks wrong.
type WarningReason string

// Warning reasons.
const (
	WarnTotalMismatch WarningReason = "total_mismatch"
	WarnOutOfRange    WarningReason = "out_of_range"
	WarnMissingScore  WarningReason = "missing_score"
)

// ScoreWarning describes a data-quality problem in an evaluator's scores.
// Warnings are reported alongside the evaluation, never instead of it.
type ScoreWarning struct {
	Provider ProviderKey   `json:"provider"`
	Reason   WarningReason `json:"reason"`
	Field    string        `json:"field,omitempty"`
	Value    int           `json:"value"`
	Expected int           `json:"expected,omitempty"`
}

// Error implements the error interface.
func (w ScoreWarning) Error() string {
	switch w.Reason {
	case WarnTotalMismatch:
		return fmt.Sprintf("%s: total is %d but criteria sum to %d", w.Provider, w.Value, w.Expected)
	case WarnOutOfRange:
		return fmt.Sprintf("%s: %s score %d is out of range", w.Provider, w.Field, w.Value)
	case WarnMissingScore:
		return fmt.Sprintf("%s: evaluator returned no score", w.Provider)
	default:
		return fmt.Sprintf("%s: unknown score problem", w.Provider)
	}
}

var scoreValidator = newScoreValidator()

func newScoreValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateEvaluation checks every expected provider's score for range and
// total consistency. Returns nil if the evaluation is clean.
func ValidateEvaluation(eval *RubricEvaluation, expected []ProviderKey) []ScoreWarning {
	if eval == nil {
		return nil
	}

	var warnings []ScoreWarning
	for _, key := range expected {
		score, ok := eval.Scores[key]
		if !ok {
			warnings = append(warnings, ScoreWarning{Provider: key, Reason: WarnMissingScore})
			continue
		}
		warnings = append(warnings, validateScore(key, score)...)
	}
	return warnings
}

func validateScore(key ProviderKey, score RubricScore) []ScoreWarning {
	var warnings []ScoreWarning

	if err := scoreValidator.Struct(score); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				value, _ := fe.Value().(int)
				warnings = append(warnings, ScoreWarning{
					Provider: key,
					Reason:   WarnOutOfRange,
					Field:    fe.Field(),
					Value:    value,
				})
			}
		}
	}

	if sum := score.Sum(); score.Total != sum {
		warnings = append(warnings, ScoreWarning{
			Provider: key,
			Reason:   WarnTotalMismatch,
			Field:    "total",
			Value:    score.Total,
			Expected: sum,
		})
	}

	return warnings
}
