package ai

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the model endpoint could not be reached or refused
// the request. Callers may treat this as transient.
var ErrUnavailable = errors.New("ai service unavailable")

// ErrMalformedResponse indicates the model answered but the payload could not
// be parsed into the expected structure.
var ErrMalformedResponse = errors.New("malformed ai response")

// ErrEmptyBatch indicates question generation produced no usable items.
var ErrEmptyBatch = errors.New("no valid questions in generated batch")

// Usage carries token accounting for one model call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// GradeInput contains everything needed to grade one open-ended answer.
type GradeInput struct {
	QuestionText string
	Rubric       string
	AnswerText   string
	Language     string
}

// GradeResult is the structured outcome of an open-ended grading call.
// Score and Confidence are normalized to [0, 1].
type GradeResult struct {
	Score        float64            `json:"score"`
	Confidence   float64            `json:"confidence"`
	Feedback     string             `json:"feedback"`
	RubricScores map[string]float64 `json:"rubric_scores,omitempty"`
	Strengths    []string           `json:"strengths,omitempty"`
	Improvements []string           `json:"improvements,omitempty"`

	Model  string `json:"-"`
	Prompt string `json:"-"`
	Usage  Usage  `json:"-"`
}

// GenerationInput describes a question generation request.
type GenerationInput struct {
	SourceText    string
	QuestionCount int
	AllowedTypes  []string
	BloomLevels   []string
	Language      string
}

// GeneratedOption is one option of a generated choice question.
type GeneratedOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// GeneratedQuestion is one validated item of a generation batch.
type GeneratedQuestion struct {
	Type          string            `json:"type"`
	Text          string            `json:"text"`
	Options       []GeneratedOption `json:"options,omitempty"`
	CorrectAnswer string            `json:"correct_answer,omitempty"`
	GradingRubric string            `json:"grading_rubric,omitempty"`
	BloomLevel    string            `json:"bloom_level,omitempty"`
	Points        float64           `json:"points,omitempty"`
}

// DroppedItem records one generated item that failed validation.
type DroppedItem struct {
	Index  int
	Reason string
}

// GenerationResult is the outcome of a question generation call after
// item-level validation. Individually invalid items are dropped, not fatal.
type GenerationResult struct {
	Questions []GeneratedQuestion
	Dropped   []DroppedItem

	Model  string
	Prompt string
	Usage  Usage
}

// Client describes the LLM collaborator the grading engine depends on.
type Client interface {
	GradeOpenEnded(ctx context.Context, input GradeInput) (GradeResult, error)
	GenerateQuestions(ctx context.Context, input GenerationInput) (GenerationResult, error)
}
