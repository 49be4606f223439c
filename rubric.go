package comparator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Criterion names one dimension of the comparison rubric.
type Criterion string

// Rubric criteria, each scored 0-10.
const (
	CriterionAccuracy     Criterion = "accuracy"
	CriterionRelevance    Criterion = "relevance"
	CriterionClarity      Criterion = "clarity"
	CriterionCompleteness Criterion = "completeness"
	CriterionUsefulness   Criterion = "usefulness"
)

// Criteria lists the rubric criteria in display order.
var Criteria = []Criterion{
	CriterionAccuracy,
	CriterionRelevance,
	CriterionClarity,
	CriterionCompleteness,
	CriterionUsefulness,
}

// Score bounds.
const (
	MaxCriterionScore = 10
	MaxTotalScore     = MaxCriterionScore * 5
)

// RubricScore is the evaluator's verdict on one provider's response.
type RubricScore struct {
	Accuracy     int      `json:"accuracy" validate:"min=0,max=10"`
	Relevance    int      `json:"relevance" validate:"min=0,max=10"`
	Clarity      int      `json:"clarity" validate:"min=0,max=10"`
	Completeness int      `json:"completeness" validate:"min=0,max=10"`
	Usefulness   int      `json:"usefulness" validate:"min=0,max=10"`
	Total        int      `json:"total" validate:"min=0,max=50"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
}

// Sum returns the sum of the five criteria. Total should equal it.
func (s RubricScore) Sum() int {
	return s.Accuracy + s.Relevance + s.Clarity + s.Completeness + s.Usefulness
}

// Value returns the score for c.
func (s RubricScore) Value(c Criterion) int {
	switch c {
	case CriterionAccuracy:
		return s.Accuracy
	case CriterionRelevance:
		return s.Relevance
	case CriterionClarity:
		return s.Clarity
	case CriterionCompleteness:
		return s.Completeness
	case CriterionUsefulness:
		return s.Usefulness
	default:
		return 0
	}
}

// RubricEvaluation is a scored comparison of the two providers' responses.
type RubricEvaluation struct {
	Evaluator         string                      `json:"evaluator"`
	Scores            map[ProviderKey]RubricScore `json:"scores,omitempty"`
	OverallComparison string                      `json:"overall_comparison,omitempty"`
	Recommendation    string                      `json:"recommendation,omitempty"`
	Success           bool                        `json:"success"`
	Error             string                      `json:"error,omitempty"`
	Warnings          []ScoreWarning              `json:"warnings,omitempty"`
}

// RubricRequest carries what an evaluator needs to compare two responses.
// ResponseA is Groq's answer and ResponseB is Gemini's.
type RubricRequest struct {
	Prompt    string
	ResponseA string
	ResponseB string
}

// Evaluator scores two responses against the rubric, typically by asking a
// third model.
type Evaluator interface {
	// Label names the evaluator in results, e.g. "Gemini Flash".
	Label() string
	// ScoreResponses compares the two responses in req.
	ScoreResponses(ctx context.Context, req RubricRequest) (*RubricEvaluation, error)
}

// BuildRubricPrompt creates the evaluation prompt sent to an evaluator model.
func BuildRubricPrompt(req RubricRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an expert AI evaluator. Compare these two AI responses to the same prompt and provide a detailed evaluation.\n\n")
	fmt.Fprintf(&sb, "Original Prompt: %s\n\n", req.Prompt)
	fmt.Fprintf(&sb, "Response A (Groq/Llama 3.3): %s\n\n", req.ResponseA)
	fmt.Fprintf(&sb, "Response B (Gemini): %s\n\n", req.ResponseB)
	sb.WriteString("Evaluate both responses with this rubric, scoring each criterion from 0 to 10:\n\n")
	sb.WriteString("1. **Accuracy**: How factually correct and reliable is the information?\n")
	sb.WriteString("2. **Relevance**: How well does it address the prompt?\n")
	sb.WriteString("3. **Clarity**: How clear and easy to understand is the response?\n")
	sb.WriteString("4. **Completeness**: How thorough and comprehensive is the answer?\n")
	sb.WriteString("5. **Usefulness**: How practical and helpful is the response?\n\n")
	sb.WriteString("Respond with JSON in exactly this format:\n")
	sb.WriteString(`{
  "response_a": {
    "accuracy": <score>,
    "relevance": <score>,
    "clarity": <score>,
    "completeness": <score>,
    "usefulness": <score>,
    "total": <sum of all scores>,
    "strengths": ["strength 1", "strength 2"],
    "weaknesses": ["weakness 1", "weakness 2"]
  },
  "response_b": {
    "accuracy": <score>,
    "relevance": <score>,
    "clarity": <score>,
    "completeness": <score>,
    "usefulness": <score>,
    "total": <sum of all scores>,
    "strengths": ["strength 1", "strength 2"],
    "weaknesses": ["weakness 1", "weakness 2"]
  },
  "overall_comparison": "Brief summary of which is better and why",
  "recommendation": "Which response would you recommend and why?"
}
`)
	return sb.String()
}

// rubricPayload is the JSON shape evaluators are asked to produce.
type rubricPayload struct {
	ResponseA         *RubricScore `json:"response_a"`
	ResponseB         *RubricScore `json:"response_b"`
	OverallComparison string       `json:"overall_comparison"`
	Recommendation    string       `json:"recommendation"`
}

// ParseRubricPayload decodes an evaluator's raw reply. Markdown code fences
// are stripped, and one repair pass fixes trailing commas, unquoted keys and
// single-quoted strings when the first decode fails. The returned evaluation
// has Success set; Evaluator is left for the caller.
func ParseRubricPayload(raw string) (*RubricEvaluation, error) {
	text := stripCodeFence(raw)

	var p rubricPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		repaired := repairJSON(text)
		if repaired == text {
			return nil, fmt.Errorf("rubric: parse payload: %w", err)
		}
		p = rubricPayload{}
		if err := json.Unmarshal([]byte(repaired), &p); err != nil {
			return nil, fmt.Errorf("rubric: parse repaired payload: %w", err)
		}
	}

	if p.ResponseA == nil && p.ResponseB == nil {
		return nil, fmt.Errorf("rubric: payload has no scores")
	}

	eval := &RubricEvaluation{
		Scores:            make(map[ProviderKey]RubricScore, 2),
		OverallComparison: p.OverallComparison,
		Recommendation:    p.Recommendation,
		Success:           true,
	}
	if p.ResponseA != nil {
		eval.Scores[Groq] = *p.ResponseA
	}
	if p.ResponseB != nil {
		eval.Scores[Gemini] = *p.ResponseB
	}
	return eval, nil
}

// stripCodeFence returns the content of the first fenced block in s, or s
// trimmed when it has no fence.
func stripCodeFence(s string) string {
	for _, fence := range []string{"```json", "```"} {
		_, rest, found := strings.Cut(s, fence)
		if !found {
			continue
		}
		body, _, _ := strings.Cut(rest, "```")
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(s)
}

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey   = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
)

// repairJSON fixes defects models commonly emit. Only text outside string
// literals is rewritten. It returns s unchanged when nothing applies.
func repairJSON(s string) string {
	text := s
	if !strings.Contains(text, `"`) && strings.Contains(text, `'`) {
		text = strings.ReplaceAll(text, `'`, `"`)
	}

	var sb strings.Builder
	start := 0
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case inString && c == '"':
			inString = false
			sb.WriteString(text[start : i+1])
			start = i + 1
		case !inString && c == '"':
			sb.WriteString(repairStructure(text[start:i]))
			start = i
			inString = true
		}
	}
	if inString {
		sb.WriteString(text[start:])
	} else {
		sb.WriteString(repairStructure(text[start:]))
	}
	return strings.TrimSpace(sb.String())
}

// repairStructure applies the key and comma fixes to a span that holds no
// string literal.
func repairStructure(span string) string {
	span = trailingComma.ReplaceAllString(span, "$1")
	return unquotedKey.ReplaceAllString(span, `$1"$2":`)
}
