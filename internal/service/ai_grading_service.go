package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/models"
	"github.com/noah-isme/skola-go-api/internal/repository"
	"github.com/noah-isme/skola-go-api/pkg/ai"
)

// ErrParagraphNotFound indicates the generation source text does not exist.
var ErrParagraphNotFound = errors.New("paragraph not found")

// ErrGenerationDisabled indicates AI generation is switched off for the homework.
var ErrGenerationDisabled = errors.New("ai generation is disabled for this homework")

const maxLoggedPromptRunes = 4000

// MasteryLookup reads a student's mastery status for a paragraph. The mastery
// pipeline itself lives outside the grading engine.
type MasteryLookup interface {
	MasteryStatus(ctx context.Context, studentID, paragraphID uint) (string, error)
}

// GradeOutcome is what the adapter hands back to the submission tracker for
// one open-ended answer. It is always usable, even when the model failed.
type GradeOutcome struct {
	Score            float64
	Confidence       float64
	Feedback         string
	RubricScores     map[string]float64
	FlaggedForReview bool
	Degraded         bool
}

// AIGradingConfig carries the policy knobs of the adapter.
type AIGradingConfig struct {
	// ReviewConfidenceThreshold routes grades below it to teacher review.
	ReviewConfidenceThreshold float64
}

// AIGradingService orchestrates LLM calls for grading and generation, records
// every call in the audit log and shields callers from model failures.
type AIGradingService interface {
	// GradeOpenEnded never returns an error: a failing model degrades to a
	// low-confidence placeholder routed to the review queue.
	GradeOpenEnded(ctx context.Context, question models.HomeworkTaskQuestion, answerText string, schoolID uint) GradeOutcome
	GenerateQuestions(ctx context.Context, taskID, teacherID, schoolID uint, payload dto.GenerateQuestionsRequest) (dto.GenerationResponse, error)
}

type aiGradingService struct {
	client     ai.Client
	questions  QuestionService
	tasks      repository.TaskRepository
	homeworks  repository.HomeworkRepository
	paragraphs repository.ParagraphRepository
	mastery    MasteryLookup
	logs       repository.AILogRepository
	cfg        AIGradingConfig
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewAIGradingService builds the adapter around an LLM client.
func NewAIGradingService(client ai.Client, questions QuestionService, tasks repository.TaskRepository, homeworks repository.HomeworkRepository, paragraphs repository.ParagraphRepository, mastery MasteryLookup, logs repository.AILogRepository, cfg AIGradingConfig, logger zerolog.Logger) AIGradingService {
	if cfg.ReviewConfidenceThreshold <= 0 {
		cfg.ReviewConfidenceThreshold = 0.7
	}

	return &aiGradingService{
		client:     client,
		questions:  questions,
		tasks:      tasks,
		homeworks:  homeworks,
		paragraphs: paragraphs,
		mastery:    mastery,
		logs:       logs,
		cfg:        cfg,
		tracer:     otel.Tracer("github.com/noah-isme/skola-go-api/internal/service/ai_grading"),
		logger:     logger.With().Str("component", "ai_grading_service").Logger(),
	}
}

func (s *aiGradingService) GradeOpenEnded(parent context.Context, question models.HomeworkTaskQuestion, answerText string, schoolID uint) GradeOutcome {
	ctx, span := s.tracer.Start(parent, "ai_grading.grade_open_ended", trace.WithAttributes(
		attribute.Int("question_id", int(question.ID)),
	))
	defer span.End()

	start := time.Now()
	result, err := s.client.GradeOpenEnded(ctx, ai.GradeInput{
		QuestionText: question.Text,
		Rubric:       question.GradingRubric,
		AnswerText:   answerText,
	})
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn().Err(err).Uint("question_id", question.ID).Msg("ai grading failed, degrading to review placeholder")
		s.record(ctx, models.AILogKindGrade, schoolID, result.Prompt, result.Model, result.Usage, latency, false, nil, err)

		return GradeOutcome{
			Score:            0.5,
			Confidence:       0,
			Feedback:         "Automatic grading was unavailable for this answer. A teacher will review it.",
			FlaggedForReview: true,
			Degraded:         true,
		}
	}

	response := datatypes.JSONMap{
		"score":      result.Score,
		"confidence": result.Confidence,
		"feedback":   result.Feedback,
	}
	s.record(ctx, models.AILogKindGrade, schoolID, result.Prompt, result.Model, result.Usage, latency, true, response, nil)

	return GradeOutcome{
		Score:            result.Score,
		Confidence:       result.Confidence,
		Feedback:         result.Feedback,
		RubricScores:     result.RubricScores,
		FlaggedForReview: result.Confidence < s.cfg.ReviewConfidenceThreshold,
	}
}

func (s *aiGradingService) GenerateQuestions(parent context.Context, taskID, teacherID, schoolID uint, payload dto.GenerateQuestionsRequest) (dto.GenerationResponse, error) {
	ctx, span := s.tracer.Start(parent, "ai_grading.generate_questions", trace.WithAttributes(
		attribute.Int("task_id", int(taskID)),
	))
	defer span.End()

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GenerationResponse{}, ErrTaskNotFound
		}
		return dto.GenerationResponse{}, err
	}

	homework, err := s.homeworks.GetByID(ctx, task.HomeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GenerationResponse{}, ErrHomeworkNotFound
		}
		return dto.GenerationResponse{}, err
	}
	if homework.TeacherID != teacherID {
		return dto.GenerationResponse{}, ErrNotOwner
	}
	if !homework.AIGenerationEnabled {
		return dto.GenerationResponse{}, ErrGenerationDisabled
	}

	if task.ParagraphID == nil {
		return dto.GenerationResponse{}, ErrParagraphNotFound
	}
	paragraph, err := s.paragraphs.GetByID(ctx, *task.ParagraphID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GenerationResponse{}, ErrParagraphNotFound
		}
		return dto.GenerationResponse{}, err
	}

	input := ai.GenerationInput{
		SourceText:    paragraph.Content,
		QuestionCount: payload.QuestionCount,
		AllowedTypes:  payload.AllowedTypes,
		BloomLevels:   payload.BloomLevels,
		Language:      firstNonEmpty(payload.Language, paragraph.Language),
	}

	if payload.StudentID != nil && s.mastery != nil {
		status, err := s.mastery.MasteryStatus(ctx, *payload.StudentID, paragraph.ID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("mastery lookup failed, using base generation parameters")
		} else {
			input = PersonalizeGeneration(input, status)
		}
	}

	start := time.Now()
	result, err := s.client.GenerateQuestions(ctx, input)
	latency := time.Since(start)

	if err != nil {
		s.record(ctx, models.AILogKindGenerate, schoolID, result.Prompt, result.Model, result.Usage, latency, false, nil, err)
		return dto.GenerationResponse{}, fmt.Errorf("question generation failed: %w", err)
	}

	response := datatypes.JSONMap{
		"questions": len(result.Questions),
		"dropped":   len(result.Dropped),
	}
	s.record(ctx, models.AILogKindGenerate, schoolID, result.Prompt, result.Model, result.Usage, latency, true, response, nil)

	if payload.Replace {
		if err := s.questions.DeactivateAllForTask(ctx, taskID, teacherID); err != nil {
			return dto.GenerationResponse{}, err
		}
	}

	requests := make([]dto.QuestionCreateRequest, 0, len(result.Questions))
	for _, generated := range result.Questions {
		requests = append(requests, generatedToRequest(generated))
	}

	inserted, err := s.questions.AddGeneratedBatch(ctx, taskID, requests)
	if err != nil {
		return dto.GenerationResponse{}, err
	}

	return dto.GenerationResponse{
		TaskID:    taskID,
		Questions: inserted,
		Dropped:   len(result.Dropped),
	}, nil
}

// record appends one audit row. Log failures must never break grading.
func (s *aiGradingService) record(ctx context.Context, kind string, schoolID uint, prompt, model string, usage ai.Usage, latency time.Duration, success bool, response datatypes.JSONMap, callErr error) {
	entry := models.AIGenerationLog{
		RequestID:        uuid.NewString(),
		SchoolID:         schoolID,
		Kind:             kind,
		Prompt:           truncateRunes(prompt, maxLoggedPromptRunes),
		Response:         response,
		Model:            model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMs:        latency.Milliseconds(),
		Success:          success,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}

	if err := s.logs.Create(ctx, &entry); err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Msg("failed to write ai generation log")
	}
}

var bloomLadder = []string{"remember", "understand", "apply", "analyze", "evaluate", "create"}

// PersonalizeGeneration adjusts generation parameters to the student's mastery
// status: mastered students get harder, fewer questions; struggling students
// get easier, more questions. Anything else keeps the base parameters.
func PersonalizeGeneration(input ai.GenerationInput, masteryStatus string) ai.GenerationInput {
	switch masteryStatus {
	case models.MasteryStatusMastered:
		input.BloomLevels = shiftBloomLevels(input.BloomLevels, 1)
		if input.QuestionCount > 2 {
			input.QuestionCount -= 2
		} else {
			input.QuestionCount = 1
		}
	case models.MasteryStatusStruggling:
		input.BloomLevels = shiftBloomLevels(input.BloomLevels, -1)
		input.QuestionCount += 2
		if input.QuestionCount > 20 {
			input.QuestionCount = 20
		}
	}
	return input
}

func shiftBloomLevels(levels []string, delta int) []string {
	if len(levels) == 0 {
		return levels
	}

	index := func(level string) int {
		for i, known := range bloomLadder {
			if known == level {
				return i
			}
		}
		return 1 // understand
	}

	shifted := make([]string, 0, len(levels))
	seen := make(map[string]struct{}, len(levels))
	for _, level := range levels {
		i := index(level) + delta
		if i < 0 {
			i = 0
		}
		if i >= len(bloomLadder) {
			i = len(bloomLadder) - 1
		}
		next := bloomLadder[i]
		if _, ok := seen[next]; ok {
			continue
		}
		seen[next] = struct{}{}
		shifted = append(shifted, next)
	}
	return shifted
}

func generatedToRequest(generated ai.GeneratedQuestion) dto.QuestionCreateRequest {
	request := dto.QuestionCreateRequest{
		Type:          generated.Type,
		Text:          generated.Text,
		CorrectAnswer: generated.CorrectAnswer,
		GradingRubric: generated.GradingRubric,
		Points:        generated.Points,
		BloomLevel:    generated.BloomLevel,
	}
	for _, option := range generated.Options {
		request.Options = append(request.Options, dto.QuestionOptionPayload{
			ID:        option.ID,
			Text:      option.Text,
			IsCorrect: option.IsCorrect,
		})
	}
	return request
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
