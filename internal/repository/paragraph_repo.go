package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// ParagraphRepository reads source texts from the content catalog.
type ParagraphRepository interface {
	GetByID(ctx context.Context, id uint) (models.Paragraph, error)
}

type paragraphRepository struct {
	db *gorm.DB
}

// NewParagraphRepository instantiates the repository.
func NewParagraphRepository(db *gorm.DB) ParagraphRepository {
	return &paragraphRepository{db: db}
}

func (r *paragraphRepository) GetByID(ctx context.Context, id uint) (models.Paragraph, error) {
	var paragraph models.Paragraph
	if err := r.db.WithContext(ctx).First(&paragraph, id).Error; err != nil {
		return models.Paragraph{}, err
	}

	return paragraph, nil
}
