package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/models"
	"github.com/noah-isme/skola-go-api/internal/repository"
)

// ErrQuestionNotFound indicates the requested question does not exist.
var ErrQuestionNotFound = errors.New("question not found")

// ErrQuestionInactive indicates the question version was already superseded.
var ErrQuestionInactive = errors.New("question version is no longer active")

// QuestionService owns question content and its version chain per task.
type QuestionService interface {
	AddQuestion(ctx context.Context, taskID, teacherID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	AddQuestionsBatch(ctx context.Context, taskID, teacherID uint, payload dto.QuestionBatchRequest) ([]dto.QuestionResponse, error)
	// ReplaceQuestion deactivates the current version and inserts its
	// successor with version+1, leaving answers graded against the old
	// version untouched.
	ReplaceQuestion(ctx context.Context, questionID, teacherID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	DeactivateAllForTask(ctx context.Context, taskID, teacherID uint) error
	ListActive(ctx context.Context, taskID uint) ([]dto.QuestionResponse, error)
	// AddGeneratedBatch inserts AI-generated questions, preserving order from
	// the next free sort position. Ownership is checked by the caller.
	AddGeneratedBatch(ctx context.Context, taskID uint, questions []dto.QuestionCreateRequest) ([]dto.QuestionResponse, error)
}

type questionService struct {
	questions repository.QuestionRepository
	tasks     repository.TaskRepository
	homeworks repository.HomeworkRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewQuestionService builds the question store service.
func NewQuestionService(questions repository.QuestionRepository, tasks repository.TaskRepository, homeworks repository.HomeworkRepository, validate *validator.Validate, logger zerolog.Logger) QuestionService {
	return &questionService{
		questions: questions,
		tasks:     tasks,
		homeworks: homeworks,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *questionService) AddQuestion(ctx context.Context, taskID, teacherID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	if _, err := s.loadOwnedTask(ctx, taskID, teacherID); err != nil {
		return dto.QuestionResponse{}, err
	}

	sortOrder, err := s.questions.NextSortOrder(ctx, taskID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := s.buildQuestion(taskID, sortOrder, payload, false)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().Uint("task_id", taskID).Uint("question_id", question.ID).Msg("question added")

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) AddQuestionsBatch(ctx context.Context, taskID, teacherID uint, payload dto.QuestionBatchRequest) ([]dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	if _, err := s.loadOwnedTask(ctx, taskID, teacherID); err != nil {
		return nil, err
	}

	return s.insertBatch(ctx, taskID, payload.Questions, false)
}

func (s *questionService) ReplaceQuestion(ctx context.Context, questionID, teacherID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	old, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}
	if !old.IsActive {
		return dto.QuestionResponse{}, ErrQuestionInactive
	}

	if _, err := s.loadOwnedTask(ctx, old.HomeworkTaskID, teacherID); err != nil {
		return dto.QuestionResponse{}, err
	}

	replacement, err := s.buildQuestion(old.HomeworkTaskID, old.SortOrder, payload, false)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	replacement.Version = old.Version + 1

	if err := s.questions.Replace(ctx, &old, &replacement); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().
		Uint("old_question_id", old.ID).
		Uint("question_id", replacement.ID).
		Int("version", replacement.Version).
		Msg("question replaced")

	return dto.NewQuestionResponse(replacement), nil
}

func (s *questionService) DeactivateAllForTask(ctx context.Context, taskID, teacherID uint) error {
	if _, err := s.loadOwnedTask(ctx, taskID, teacherID); err != nil {
		return err
	}
	return s.questions.DeactivateAllForTask(ctx, taskID)
}

func (s *questionService) ListActive(ctx context.Context, taskID uint) ([]dto.QuestionResponse, error) {
	questions, err := s.questions.ListActiveByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return dto.NewQuestionResponseSlice(questions), nil
}

func (s *questionService) AddGeneratedBatch(ctx context.Context, taskID uint, questions []dto.QuestionCreateRequest) ([]dto.QuestionResponse, error) {
	return s.insertBatch(ctx, taskID, questions, true)
}

// insertBatch appends questions preserving input order from the next free
// sort position.
func (s *questionService) insertBatch(ctx context.Context, taskID uint, payloads []dto.QuestionCreateRequest, aiGenerated bool) ([]dto.QuestionResponse, error) {
	sortOrder, err := s.questions.NextSortOrder(ctx, taskID)
	if err != nil {
		return nil, err
	}

	questions := make([]models.HomeworkTaskQuestion, 0, len(payloads))
	for i, payload := range payloads {
		question, err := s.buildQuestion(taskID, sortOrder+i, payload, aiGenerated)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, question)
	}

	if err := s.questions.CreateBatch(ctx, questions); err != nil {
		return nil, err
	}

	s.logger.Info().Uint("task_id", taskID).Int("count", len(questions)).Bool("ai_generated", aiGenerated).Msg("questions added")

	return dto.NewQuestionResponseSlice(questions), nil
}

func (s *questionService) buildQuestion(taskID uint, sortOrder int, payload dto.QuestionCreateRequest, aiGenerated bool) (models.HomeworkTaskQuestion, error) {
	question := models.HomeworkTaskQuestion{
		HomeworkTaskID: taskID,
		Type:           payload.Type,
		Text:           s.sanitizer.Sanitize(payload.Text),
		CorrectAnswer:  payload.CorrectAnswer,
		GradingRubric:  payload.GradingRubric,
		Points:         payload.Points,
		BloomLevel:     payload.BloomLevel,
		SortOrder:      sortOrder,
		Version:        1,
		IsActive:       true,
		AIGenerated:    aiGenerated,
	}
	if question.Points <= 0 {
		question.Points = 1
	}

	if models.IsChoiceType(payload.Type) {
		if len(payload.Options) < 2 {
			return models.HomeworkTaskQuestion{}, fmt.Errorf("choice question needs at least 2 options")
		}
		hasCorrect := false
		options := make([]models.QuestionOption, 0, len(payload.Options))
		for _, option := range payload.Options {
			if option.IsCorrect {
				hasCorrect = true
			}
			options = append(options, models.QuestionOption{
				ID:        option.ID,
				Text:      s.sanitizer.Sanitize(option.Text),
				IsCorrect: option.IsCorrect,
			})
		}
		if !hasCorrect {
			return models.HomeworkTaskQuestion{}, fmt.Errorf("choice question needs at least one correct option")
		}

		encoded, err := models.EncodeOptions(options)
		if err != nil {
			return models.HomeworkTaskQuestion{}, err
		}
		question.Options = encoded
	}

	return question, nil
}

func (s *questionService) loadOwnedTask(ctx context.Context, taskID, teacherID uint) (models.HomeworkTask, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.HomeworkTask{}, ErrTaskNotFound
		}
		return models.HomeworkTask{}, err
	}

	homework, err := s.homeworks.GetByID(ctx, task.HomeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.HomeworkTask{}, ErrHomeworkNotFound
		}
		return models.HomeworkTask{}, err
	}
	if homework.TeacherID != teacherID {
		return models.HomeworkTask{}, ErrNotOwner
	}

	return task, nil
}
