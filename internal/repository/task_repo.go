package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// TaskRepository defines persistence operations for homework tasks.
type TaskRepository interface {
	GetByID(ctx context.Context, id uint) (models.HomeworkTask, error)
	NextSortOrder(ctx context.Context, homeworkID uint) (int, error)
	Create(ctx context.Context, task *models.HomeworkTask) error
	Update(ctx context.Context, task *models.HomeworkTask) error
	Delete(ctx context.Context, id uint) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository instantiates the repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (models.HomeworkTask, error) {
	var task models.HomeworkTask
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return models.HomeworkTask{}, err
	}

	return task, nil
}

func (r *taskRepository) NextSortOrder(ctx context.Context, homeworkID uint) (int, error) {
	var max *int
	if err := r.db.WithContext(ctx).
		Model(&models.HomeworkTask{}).
		Where("homework_id = ?", homeworkID).
		Select("MAX(sort_order)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *taskRepository) Create(ctx context.Context, task *models.HomeworkTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) Update(ctx context.Context, task *models.HomeworkTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.HomeworkTask{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
