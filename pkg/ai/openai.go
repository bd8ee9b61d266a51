package ai

import (
	"context"
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
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skola",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI grading and generation requests",
	}, []string{"model", "kind"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skola",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of failed AI grading and generation requests",
	}, []string{"model", "kind"})
)

// OpenAIConfig defines configuration options for the OpenAI-backed client.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIClient implements Client against the OpenAI chat completion API.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClient builds a new client using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	tracer := otel.Tracer("github.com/noah-isme/skola-go-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIClient{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// GradeOpenEnded asks the model to score a free-text answer against the
// question and its rubric.
func (c *OpenAIClient) GradeOpenEnded(parent context.Context, input GradeInput) (GradeResult, error) {
	ctx, span := c.tracer.Start(parent, "openai.grade_open_ended", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	prompt := buildGradingPrompt(input)
	content, usage, err := c.complete(ctx, gradingSystemPrompt(), prompt, "grade")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{Model: c.cfg.Model, Prompt: prompt}, err
	}

	result, err := parseGradeResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, "grade").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradeResult{Model: c.cfg.Model, Prompt: prompt, Usage: usage}, err
	}

	result.Model = c.cfg.Model
	result.Prompt = prompt
	result.Usage = usage
	return result, nil
}

// GenerateQuestions asks the model for a batch of questions over the source
// text and validates each item, dropping individually invalid ones.
func (c *OpenAIClient) GenerateQuestions(parent context.Context, input GenerationInput) (GenerationResult, error) {
	ctx, span := c.tracer.Start(parent, "openai.generate_questions", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.Int("question_count", input.QuestionCount),
	))
	defer span.End()

	prompt := buildGenerationPrompt(input)
	content, usage, err := c.complete(ctx, generationSystemPrompt(), prompt, "generate")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GenerationResult{Model: c.cfg.Model, Prompt: prompt}, err
	}

	questions, dropped, err := parseGenerationResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, "generate").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GenerationResult{Model: c.cfg.Model, Prompt: prompt, Usage: usage}, err
	}

	for _, item := range dropped {
		c.logger.Warn().Int("index", item.Index).Str("reason", item.Reason).Msg("dropped invalid generated question")
	}

	return GenerationResult{
		Questions: questions,
		Dropped:   dropped,
		Model:     c.cfg.Model,
		Prompt:    prompt,
		Usage:     usage,
	}, nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, user, kind string) (string, Usage, error) {
	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(c.cfg.Model, kind).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, kind).Inc()
		return "", Usage{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}

	if len(resp.Choices) == 0 {
		aiFailures.WithLabelValues(c.cfg.Model, kind).Inc()
		return "", usage, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}
