package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// HomeworkStudentRepository defines persistence for per-student assignments.
type HomeworkStudentRepository interface {
	GetByHomeworkAndStudent(ctx context.Context, homeworkID, studentID uint) (models.HomeworkStudent, error)
	ListByHomework(ctx context.Context, homeworkID uint) ([]models.HomeworkStudent, error)
	Update(ctx context.Context, record *models.HomeworkStudent) error
}

type homeworkStudentRepository struct {
	db *gorm.DB
}

// NewHomeworkStudentRepository instantiates the repository.
func NewHomeworkStudentRepository(db *gorm.DB) HomeworkStudentRepository {
	return &homeworkStudentRepository{db: db}
}

func (r *homeworkStudentRepository) GetByHomeworkAndStudent(ctx context.Context, homeworkID, studentID uint) (models.HomeworkStudent, error) {
	var record models.HomeworkStudent
	if err := r.db.WithContext(ctx).
		Where("homework_id = ? AND student_id = ?", homeworkID, studentID).
		First(&record).Error; err != nil {
		return models.HomeworkStudent{}, err
	}

	return record, nil
}

func (r *homeworkStudentRepository) ListByHomework(ctx context.Context, homeworkID uint) ([]models.HomeworkStudent, error) {
	var records []models.HomeworkStudent
	if err := r.db.WithContext(ctx).
		Where("homework_id = ?", homeworkID).
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *homeworkStudentRepository) Update(ctx context.Context, record *models.HomeworkStudent) error {
	return r.db.WithContext(ctx).Save(record).Error
}
