package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// AILogRepository appends audit rows for LLM calls. Rows are never updated.
type AILogRepository interface {
	Create(ctx context.Context, entry *models.AIGenerationLog) error
	ListBySchool(ctx context.Context, schoolID uint, limit int) ([]models.AIGenerationLog, error)
}

type aiLogRepository struct {
	db *gorm.DB
}

// NewAILogRepository instantiates the repository.
func NewAILogRepository(db *gorm.DB) AILogRepository {
	return &aiLogRepository{db: db}
}

func (r *aiLogRepository) Create(ctx context.Context, entry *models.AIGenerationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *aiLogRepository) ListBySchool(ctx context.Context, schoolID uint, limit int) ([]models.AIGenerationLog, error) {
	query := r.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.AIGenerationLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
