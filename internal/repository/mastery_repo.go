package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// MasteryRepository reads per-student paragraph mastery state.
type MasteryRepository interface {
	MasteryStatus(ctx context.Context, studentID, paragraphID uint) (string, error)
}

type masteryRepository struct {
	db *gorm.DB
}

// NewMasteryRepository instantiates the repository.
func NewMasteryRepository(db *gorm.DB) MasteryRepository {
	return &masteryRepository{db: db}
}

func (r *masteryRepository) MasteryStatus(ctx context.Context, studentID, paragraphID uint) (string, error) {
	var record models.StudentParagraphMastery
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND paragraph_id = ?", studentID, paragraphID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.MasteryStatusProgressing, nil
		}
		return "", err
	}

	return record.Status, nil
}
