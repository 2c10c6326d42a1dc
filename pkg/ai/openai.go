package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	evalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "arena",
		Subsystem: "ai",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of AI evaluation requests",
	}, []string{"model"})

	evalFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Subsystem: "ai",
		Name:      "evaluation_failures_total",
		Help:      "Number of AI evaluation failures",
	}, []string{"model", "kind"})
)

// OpenAIConfig defines configuration options for the OpenAI evaluator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// OpenAIEvaluator implements Evaluator against the OpenAI chat completion API.
type OpenAIEvaluator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIEvaluator builds a new evaluator using the provided configuration.
func NewOpenAIEvaluator(cfg OpenAIConfig) (*OpenAIEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	tracer := otel.Tracer("github.com/skillforge/arena-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIEvaluator{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Evaluate sends the scoring request to OpenAI and parses the response. The
// call runs under the configured deadline; once it elapses the attempt is
// reported as ErrTimeout, never left hanging.
func (e *OpenAIEvaluator) Evaluate(parent context.Context, input EvaluationInput) (EvaluationResult, error) {
	ctx, span := e.tracer.Start(parent, "openai.evaluate", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: evaluatorSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := e.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	evalDuration.WithLabelValues(e.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		kind := ErrProvider
		if errors.Is(err, context.DeadlineExceeded) {
			kind = ErrTimeout
		}
		return EvaluationResult{}, e.failure(span, kind, err)
	}

	if len(resp.Choices) == 0 {
		return EvaluationResult{}, e.failure(span, ErrMalformedResponse, fmt.Errorf("no choices returned"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseEvaluationResponse(content)
	if err != nil {
		return EvaluationResult{}, e.failure(span, ErrMalformedResponse, err)
	}

	result.Raw["usage"] = resp.Usage

	return result, nil
}

func (e *OpenAIEvaluator) failure(span trace.Span, kind error, cause error) error {
	evalFailures.WithLabelValues(e.cfg.Model, kindLabel(kind)).Inc()
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())
	return fmt.Errorf("%w: %v", kind, cause)
}

func kindLabel(kind error) string {
	switch {
	case errors.Is(kind, ErrTimeout):
		return "timeout"
	case errors.Is(kind, ErrMalformedResponse):
		return "malformed"
	default:
		return "provider"
	}
}

func evaluatorSystemPrompt() string {
	return "You are a fair, specialised reviewer of practical solutions to business challenges. " +
		"Respond with a JSON object containing score (0-100), feedback, strengths, weaknesses, suggestions, " +
		"and a criteria object breaking the score into problem_understanding (0-25), solution_quality (0-25), " +
		"creativity (0-20), feasibility (0-15), and clarity (0-15)."
}

func buildUserPrompt(input EvaluationInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Problem\n")
	builder.WriteString(input.ProblemTitle)
	builder.WriteString("\n\n## Description\n")
	builder.WriteString(input.ProblemDescription)
	builder.WriteString("\n\n## Domain\n")
	builder.WriteString(input.Domain)
	builder.WriteString("\n\n## Difficulty\n")
	builder.WriteString(input.Difficulty)
	if input.Objectives != "" {
		builder.WriteString("\n\n## Objectives\n")
		builder.WriteString(input.Objectives)
	}
	if input.Requirements != "" {
		builder.WriteString("\n\n## Requirements\n")
		builder.WriteString(input.Requirements)
	}
	builder.WriteString("\n\n# Submitted Solution\n")
	builder.WriteString(input.SolutionText)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseEvaluationResponse(content string) (EvaluationResult, error) {
	type payload struct {
		Score    float64 `json:"score"`
		Feedback string  `json:"feedback"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return EvaluationResult{}, fmt.Errorf("parse evaluation json: %w", err)
	}

	if data.Score < 0 {
		data.Score = 0
	}
	if data.Score > 100 {
		data.Score = 100
	}

	raw := map[string]interface{}{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return EvaluationResult{}, fmt.Errorf("parse evaluation json: %w", err)
	}

	return EvaluationResult{
		Score:    data.Score,
		Feedback: data.Feedback,
		Raw:      raw,
	}, nil
}
