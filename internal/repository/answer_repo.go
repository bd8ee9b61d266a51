package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// AnswerRepository defines persistence for per-question answers.
type AnswerRepository interface {
	GetByID(ctx context.Context, id uint) (models.StudentTaskAnswer, error)
	GetBySubmissionAndQuestion(ctx context.Context, submissionID, questionID uint) (models.StudentTaskAnswer, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.StudentTaskAnswer, error)
	// Upsert writes the answer for (submission, question), overwriting a
	// previous answer to the same question within the submission.
	Upsert(ctx context.Context, answer *models.StudentTaskAnswer) error
	Update(ctx context.Context, answer *models.StudentTaskAnswer) error
	// ListFlaggedForReview returns answers awaiting teacher review for the
	// given school, oldest first.
	ListFlaggedForReview(ctx context.Context, schoolID uint, limit int) ([]models.StudentTaskAnswer, error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (models.StudentTaskAnswer, error) {
	var answer models.StudentTaskAnswer
	if err := r.db.WithContext(ctx).
		Preload("Question").
		First(&answer, id).Error; err != nil {
		return models.StudentTaskAnswer{}, err
	}

	return answer, nil
}

func (r *answerRepository) GetBySubmissionAndQuestion(ctx context.Context, submissionID, questionID uint) (models.StudentTaskAnswer, error) {
	var answer models.StudentTaskAnswer
	if err := r.db.WithContext(ctx).
		Where("submission_id = ? AND question_id = ?", submissionID, questionID).
		First(&answer).Error; err != nil {
		return models.StudentTaskAnswer{}, err
	}

	return answer, nil
}

func (r *answerRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.StudentTaskAnswer, error) {
	var answers []models.StudentTaskAnswer
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Where("submission_id = ?", submissionID).
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

func (r *answerRepository) Upsert(ctx context.Context, answer *models.StudentTaskAnswer) error {
	var existing models.StudentTaskAnswer
	err := r.db.WithContext(ctx).
		Where("submission_id = ? AND question_id = ?", answer.SubmissionID, answer.QuestionID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(answer).Error
		}
		return err
	}

	answer.ID = existing.ID
	answer.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(answer).Error
}

func (r *answerRepository) Update(ctx context.Context, answer *models.StudentTaskAnswer) error {
	return r.db.WithContext(ctx).Save(answer).Error
}

func (r *answerRepository) ListFlaggedForReview(ctx context.Context, schoolID uint, limit int) ([]models.StudentTaskAnswer, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StudentTaskAnswer{}).
		Preload("Question").
		Joins("JOIN student_task_submissions ON student_task_submissions.id = student_task_answers.submission_id").
		Joins("JOIN homework_students ON homework_students.id = student_task_submissions.homework_student_id").
		Joins("JOIN homeworks ON homeworks.id = homework_students.homework_id").
		Where("student_task_answers.flagged_for_review = ?", true).
		Where("student_task_answers.teacher_override_score IS NULL").
		Where("homeworks.school_id = ?", schoolID).
		Order("student_task_answers.created_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	var answers []models.StudentTaskAnswer
	if err := query.Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}
