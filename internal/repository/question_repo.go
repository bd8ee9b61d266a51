package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// QuestionRepository defines persistence operations for versioned questions.
type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (models.HomeworkTaskQuestion, error)
	ListActiveByTask(ctx context.Context, taskID uint) ([]models.HomeworkTaskQuestion, error)
	NextSortOrder(ctx context.Context, taskID uint) (int, error)
	Create(ctx context.Context, question *models.HomeworkTaskQuestion) error
	CreateBatch(ctx context.Context, questions []models.HomeworkTaskQuestion) error
	// Replace runs the versioning protocol in one transaction: the old row is
	// deactivated and pointed at the freshly inserted successor. The old row
	// itself is never rewritten beyond those two columns, so answers graded
	// against it stay intact.
	Replace(ctx context.Context, old *models.HomeworkTaskQuestion, replacement *models.HomeworkTaskQuestion) error
	DeactivateAllForTask(ctx context.Context, taskID uint) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.HomeworkTaskQuestion, error) {
	var question models.HomeworkTaskQuestion
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return models.HomeworkTaskQuestion{}, err
	}

	return question, nil
}

func (r *questionRepository) ListActiveByTask(ctx context.Context, taskID uint) ([]models.HomeworkTaskQuestion, error) {
	var questions []models.HomeworkTaskQuestion
	if err := r.db.WithContext(ctx).
		Where("homework_task_id = ? AND is_active = ?", taskID, true).
		Order("sort_order ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) NextSortOrder(ctx context.Context, taskID uint) (int, error) {
	var max *int
	if err := r.db.WithContext(ctx).
		Model(&models.HomeworkTaskQuestion{}).
		Where("homework_task_id = ?", taskID).
		Select("MAX(sort_order)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *questionRepository) Create(ctx context.Context, question *models.HomeworkTaskQuestion) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) CreateBatch(ctx context.Context, questions []models.HomeworkTaskQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&questions).Error
}

func (r *questionRepository) Replace(ctx context.Context, old *models.HomeworkTaskQuestion, replacement *models.HomeworkTaskQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(replacement).Error; err != nil {
			return err
		}

		return tx.Model(&models.HomeworkTaskQuestion{}).
			Where("id = ?", old.ID).
			Updates(map[string]interface{}{
				"is_active":      false,
				"replaced_by_id": replacement.ID,
			}).Error
	})
}

func (r *questionRepository) DeactivateAllForTask(ctx context.Context, taskID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.HomeworkTaskQuestion{}).
		Where("homework_task_id = ? AND is_active = ?", taskID, true).
		Update("is_active", false).Error
}
