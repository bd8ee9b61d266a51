package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
)

func setupTestDB(t *testing.T, entities ...interface{}) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entities...))
	return db
}

func TestQuestionRepositoryReplaceKeepsVersionChain(t *testing.T) {
	db := setupTestDB(t, &models.HomeworkTaskQuestion{})
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	old := models.HomeworkTaskQuestion{
		HomeworkTaskID: 11,
		Type:           models.QuestionTypeShortAnswer,
		Text:           "What is 2+2?",
		CorrectAnswer:  "4",
		Points:         1,
		SortOrder:      1,
		Version:        1,
		IsActive:       true,
	}
	require.NoError(t, repo.Create(ctx, &old))

	replacement := models.HomeworkTaskQuestion{
		HomeworkTaskID: 11,
		Type:           models.QuestionTypeShortAnswer,
		Text:           "What is 2+3?",
		CorrectAnswer:  "5",
		Points:         1,
		SortOrder:      old.SortOrder,
		Version:        old.Version + 1,
		IsActive:       true,
	}
	require.NoError(t, repo.Replace(ctx, &old, &replacement))

	stored, err := repo.GetByID(ctx, old.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
	require.NotNil(t, stored.ReplacedByID)
	require.Equal(t, replacement.ID, *stored.ReplacedByID)
	// The deactivated version keeps its content for answers graded against it.
	require.Equal(t, "What is 2+2?", stored.Text)

	active, err := repo.ListActiveByTask(ctx, 11)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, replacement.ID, active[0].ID)
	require.Equal(t, 2, active[0].Version)
}

func TestQuestionRepositoryListActiveOrdersBySortOrder(t *testing.T) {
	db := setupTestDB(t, &models.HomeworkTaskQuestion{})
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	second := models.HomeworkTaskQuestion{HomeworkTaskID: 12, Type: models.QuestionTypeOpenEnded, Text: "B", SortOrder: 2, Version: 1, IsActive: true}
	first := models.HomeworkTaskQuestion{HomeworkTaskID: 12, Type: models.QuestionTypeOpenEnded, Text: "A", SortOrder: 1, Version: 1, IsActive: true}
	inactive := models.HomeworkTaskQuestion{HomeworkTaskID: 12, Type: models.QuestionTypeOpenEnded, Text: "old", SortOrder: 1, Version: 1, IsActive: false}
	require.NoError(t, repo.CreateBatch(ctx, []models.HomeworkTaskQuestion{second, first, inactive}))

	active, err := repo.ListActiveByTask(ctx, 12)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "A", active[0].Text)
	require.Equal(t, "B", active[1].Text)
}

func TestQuestionRepositoryNextSortOrder(t *testing.T) {
	db := setupTestDB(t, &models.HomeworkTaskQuestion{})
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	next, err := repo.NextSortOrder(ctx, 13)
	require.NoError(t, err)
	require.Equal(t, 1, next)

	question := models.HomeworkTaskQuestion{HomeworkTaskID: 13, Type: models.QuestionTypeOpenEnded, Text: "Q", SortOrder: 4, Version: 1, IsActive: true}
	require.NoError(t, repo.Create(ctx, &question))

	next, err = repo.NextSortOrder(ctx, 13)
	require.NoError(t, err)
	require.Equal(t, 5, next)
}

func TestQuestionRepositoryDeactivateAllForTask(t *testing.T) {
	db := setupTestDB(t, &models.HomeworkTaskQuestion{})
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	questions := []models.HomeworkTaskQuestion{
		{HomeworkTaskID: 14, Type: models.QuestionTypeOpenEnded, Text: "one", SortOrder: 1, Version: 1, IsActive: true},
		{HomeworkTaskID: 14, Type: models.QuestionTypeOpenEnded, Text: "two", SortOrder: 2, Version: 1, IsActive: true},
		{HomeworkTaskID: 15, Type: models.QuestionTypeOpenEnded, Text: "other task", SortOrder: 1, Version: 1, IsActive: true},
	}
	require.NoError(t, repo.CreateBatch(ctx, questions))

	require.NoError(t, repo.DeactivateAllForTask(ctx, 14))

	active, err := repo.ListActiveByTask(ctx, 14)
	require.NoError(t, err)
	require.Empty(t, active)

	untouched, err := repo.ListActiveByTask(ctx, 15)
	require.NoError(t, err)
	require.Len(t, untouched, 1)
}
