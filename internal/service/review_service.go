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
	"github.com/noah-isme/skola-go-api/internal/grading"
	"github.com/noah-isme/skola-go-api/internal/models"
	"github.com/noah-isme/skola-go-api/internal/repository"
)

// ErrAnswerNotFound indicates the flagged answer does not exist.
var ErrAnswerNotFound = errors.New("answer not found")

// ErrScoreExceedsPoints indicates the override score is above the question's maximum.
var ErrScoreExceedsPoints = errors.New("override score exceeds question points")

// ReviewService is the teacher-facing queue of answers the AI could not grade
// with enough confidence.
type ReviewService interface {
	ListForReview(ctx context.Context, schoolID uint, limit int) ([]dto.ReviewItemResponse, error)
	// Resolve records the teacher's override and recomputes the parent
	// submission's score and status.
	Resolve(ctx context.Context, answerID, teacherID uint, payload dto.ReviewResolveRequest) (dto.SubmissionResponse, error)
	// RecomputeSubmission re-derives the submission score from answer
	// effective scores and the stored late penalty.
	RecomputeSubmission(ctx context.Context, submissionID uint) (models.StudentTaskSubmission, error)
}

type reviewService struct {
	answers     repository.AnswerRepository
	submissions repository.SubmissionRepository
	homeworks   repository.HomeworkRepository
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewReviewService builds the review queue service.
func NewReviewService(answers repository.AnswerRepository, submissions repository.SubmissionRepository, homeworks repository.HomeworkRepository, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		answers:     answers,
		submissions: submissions,
		homeworks:   homeworks,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "review_service").Logger(),
	}
}

func (s *reviewService) ListForReview(ctx context.Context, schoolID uint, limit int) ([]dto.ReviewItemResponse, error) {
	answers, err := s.answers.ListFlaggedForReview(ctx, schoolID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ReviewItemResponse, 0, len(answers))
	for _, answer := range answers {
		items = append(items, dto.NewReviewItemResponse(answer))
	}

	return items, nil
}

func (s *reviewService) Resolve(ctx context.Context, answerID, teacherID uint, payload dto.ReviewResolveRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAnswerNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, answer.SubmissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	homework, err := s.homeworks.GetByID(ctx, submission.HomeworkStudent.HomeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrHomeworkNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	if homework.TeacherID != teacherID {
		return dto.SubmissionResponse{}, ErrNotOwner
	}

	if *payload.Score > answer.Question.Points {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %.1f > %.1f", ErrScoreExceedsPoints, *payload.Score, answer.Question.Points)
	}

	answer.TeacherOverrideScore = payload.Score
	answer.TeacherComment = s.sanitizer.Sanitize(payload.Comment)
	answer.FlaggedForReview = false
	if err := s.answers.Update(ctx, &answer); err != nil {
		return dto.SubmissionResponse{}, err
	}

	recomputed, err := s.RecomputeSubmission(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("answer_id", answer.ID).
		Uint("submission_id", recomputed.ID).
		Float64("override_score", *payload.Score).
		Msg("flagged answer resolved")

	if s.events != nil {
		s.events.Publish(EventAnswerReviewed, dto.NewSubmissionResponse(recomputed))
	}

	return dto.NewSubmissionResponse(recomputed), nil
}

func (s *reviewService) RecomputeSubmission(ctx context.Context, submissionID uint) (models.StudentTaskSubmission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StudentTaskSubmission{}, ErrSubmissionNotFound
		}
		return models.StudentTaskSubmission{}, err
	}
	// Overrides landing before the student completes are picked up by the
	// completion pass; there is no score to recompute yet.
	if submission.IsInProgress() {
		return submission, nil
	}

	answers, err := s.answers.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return models.StudentTaskSubmission{}, err
	}

	var total float64
	pending := false
	for _, answer := range answers {
		total += answer.EffectiveScore()
		if answer.FlaggedForReview && answer.TeacherOverrideScore == nil {
			pending = true
		}
	}

	// The penalty was fixed at start time; overrides change the raw score only.
	if submission.IsLate {
		original := total
		submission.OriginalScore = &original
		total = grading.ApplyPenalty(total, submission.LatePenaltyApplied)
	}

	submission.Score = total
	if pending {
		submission.Status = models.SubmissionStatusNeedsReview
	} else {
		submission.Status = models.SubmissionStatusGraded
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return models.StudentTaskSubmission{}, err
	}

	return submission, nil
}
