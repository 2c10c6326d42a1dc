package ai

import (
	"context"
	"errors"
)

// Gateway failure kinds. Evaluators wrap every failure in one of these so the
// engine can match with errors.Is and degrade to a pending outcome without
// inspecting provider internals.
var (
	// ErrTimeout indicates the provider did not answer within the configured deadline.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrMalformedResponse indicates the provider answered with something unparseable.
	ErrMalformedResponse = errors.New("malformed evaluation response")
	// ErrProvider indicates a transport or provider-side error.
	ErrProvider = errors.New("evaluation provider error")
)

// EvaluationInput carries the problem context and the submitted text handed
// to the scoring provider.
type EvaluationInput struct {
	ProblemTitle       string
	ProblemDescription string
	Domain             string
	Difficulty         string
	Objectives         string
	Requirements       string
	SolutionText       string
}

// EvaluationResult is the structured verdict returned by a scoring provider.
// Score is on a 0-100 scale.
type EvaluationResult struct {
	Score    float64                `json:"score"`
	Feedback string                 `json:"feedback"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
}

// Evaluator scores a submitted solution against its problem context. The
// implementation owns the request deadline and performs no retries.
type Evaluator interface {
	Evaluate(ctx context.Context, input EvaluationInput) (EvaluationResult, error)
}
