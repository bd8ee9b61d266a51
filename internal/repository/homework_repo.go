package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// HomeworkRepository defines persistence operations for homeworks.
type HomeworkRepository interface {
	GetByID(ctx context.Context, id uint) (models.Homework, error)
	GetWithTasks(ctx context.Context, id uint) (models.Homework, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Homework, error)
	Create(ctx context.Context, homework *models.Homework) error
	Update(ctx context.Context, homework *models.Homework) error
	Delete(ctx context.Context, id uint) error
	// Publish flips the homework to published and inserts the assignment rows
	// in one transaction. Students already assigned are skipped, so calling
	// publish twice with the same set creates no duplicates.
	Publish(ctx context.Context, homework *models.Homework, studentIDs []uint) (int, error)
}

type homeworkRepository struct {
	db *gorm.DB
}

// NewHomeworkRepository instantiates a GORM-backed repository.
func NewHomeworkRepository(db *gorm.DB) HomeworkRepository {
	return &homeworkRepository{db: db}
}

func (r *homeworkRepository) GetByID(ctx context.Context, id uint) (models.Homework, error) {
	var homework models.Homework
	if err := r.db.WithContext(ctx).First(&homework, id).Error; err != nil {
		return models.Homework{}, err
	}

	return homework, nil
}

func (r *homeworkRepository) GetWithTasks(ctx context.Context, id uint) (models.Homework, error) {
	var homework models.Homework
	if err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Tasks.Questions", "is_active = ?", true).
		First(&homework, id).Error; err != nil {
		return models.Homework{}, err
	}

	return homework, nil
}

func (r *homeworkRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Homework, error) {
	var homeworks []models.Homework
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("due_date ASC").
		Find(&homeworks).Error; err != nil {
		return nil, err
	}

	return homeworks, nil
}

func (r *homeworkRepository) Create(ctx context.Context, homework *models.Homework) error {
	return r.db.WithContext(ctx).Create(homework).Error
}

func (r *homeworkRepository) Update(ctx context.Context, homework *models.Homework) error {
	return r.db.WithContext(ctx).Save(homework).Error
}

func (r *homeworkRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Homework{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *homeworkRepository) Publish(ctx context.Context, homework *models.Homework, studentIDs []uint) (int, error) {
	created := 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uint
		if err := tx.Model(&models.HomeworkStudent{}).
			Where("homework_id = ?", homework.ID).
			Pluck("student_id", &existing).Error; err != nil {
			return err
		}

		assigned := make(map[uint]struct{}, len(existing))
		for _, id := range existing {
			assigned[id] = struct{}{}
		}

		rows := make([]models.HomeworkStudent, 0, len(studentIDs))
		for _, studentID := range studentIDs {
			if _, ok := assigned[studentID]; ok {
				continue
			}
			rows = append(rows, models.HomeworkStudent{
				HomeworkID: homework.ID,
				StudentID:  studentID,
				Status:     models.HomeworkStudentStatusAssigned,
			})
		}

		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		homework.Status = models.HomeworkStatusPublished
		if err := tx.Model(&models.Homework{}).
			Where("id = ?", homework.ID).
			Update("status", models.HomeworkStatusPublished).Error; err != nil {
			return err
		}

		created = len(rows)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}
