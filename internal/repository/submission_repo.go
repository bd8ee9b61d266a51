package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// SubmissionRepository defines persistence for task submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.StudentTaskSubmission, error)
	CountAttempts(ctx context.Context, homeworkStudentID, taskID uint) (int64, error)
	// HasCompleted reports whether the student finished at least one attempt
	// at the task.
	HasCompleted(ctx context.Context, homeworkStudentID, taskID uint) (bool, error)
	// ListByHomework returns every submission of every student assigned to
	// the homework.
	ListByHomework(ctx context.Context, homeworkID uint) ([]models.StudentTaskSubmission, error)
	Create(ctx context.Context, submission *models.StudentTaskSubmission) error
	Update(ctx context.Context, submission *models.StudentTaskSubmission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.StudentTaskSubmission, error) {
	var submission models.StudentTaskSubmission
	if err := r.db.WithContext(ctx).
		Preload("HomeworkStudent").
		Preload("Task").
		First(&submission, id).Error; err != nil {
		return models.StudentTaskSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) CountAttempts(ctx context.Context, homeworkStudentID, taskID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StudentTaskSubmission{}).
		Where("homework_student_id = ? AND homework_task_id = ?", homeworkStudentID, taskID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) HasCompleted(ctx context.Context, homeworkStudentID, taskID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StudentTaskSubmission{}).
		Where("homework_student_id = ? AND homework_task_id = ?", homeworkStudentID, taskID).
		Where("status <> ?", models.SubmissionStatusInProgress).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *submissionRepository) ListByHomework(ctx context.Context, homeworkID uint) ([]models.StudentTaskSubmission, error) {
	var submissions []models.StudentTaskSubmission
	if err := r.db.WithContext(ctx).
		Joins("JOIN homework_students ON homework_students.id = student_task_submissions.homework_student_id").
		Where("homework_students.homework_id = ?", homeworkID).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.StudentTaskSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.StudentTaskSubmission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

// IsDuplicateAttempt reports whether the error comes from the unique attempt
// index, meaning a concurrent start claimed the same attempt number first.
func IsDuplicateAttempt(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Fallback for drivers that do not translate the constraint violation.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
