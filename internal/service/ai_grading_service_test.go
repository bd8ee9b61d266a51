package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/models"
	"github.com/noah-isme/skola-go-api/pkg/ai"
)

type aiFixture struct {
	service    AIGradingService
	client     *stubAIClient
	mastery    *stubMasteryLookup
	logs       *memoryAILogRepo
	homeworks  *memoryHomeworkRepo
	tasks      *memoryTaskRepo
	questions  *memoryQuestionRepo
	paragraphs *memoryParagraphRepo
}

func newAIFixture(t *testing.T, cfg AIGradingConfig) *aiFixture {
	t.Helper()

	tasks := newMemoryTaskRepo()
	questions := newMemoryQuestionRepo()
	assigned := newMemoryHomeworkStudentRepo()
	homeworks := newMemoryHomeworkRepo(tasks, questions, assigned)
	paragraphs := newMemoryParagraphRepo()
	logs := newMemoryAILogRepo()
	client := &stubAIClient{}
	mastery := &stubMasteryLookup{status: models.MasteryStatusProgressing}

	validate := validator.New(validator.WithRequiredStructEnabled())
	questionService := NewQuestionService(questions, tasks, homeworks, validate, testLogger())
	svc := NewAIGradingService(client, questionService, tasks, homeworks, paragraphs, mastery, logs, cfg, testLogger())

	return &aiFixture{
		service:    svc,
		client:     client,
		mastery:    mastery,
		logs:       logs,
		homeworks:  homeworks,
		tasks:      tasks,
		questions:  questions,
		paragraphs: paragraphs,
	}
}

func (f *aiFixture) seedGenerationTarget(t *testing.T) (models.Homework, models.HomeworkTask) {
	t.Helper()

	ctx := context.Background()
	paragraph := models.Paragraph{Content: "Plants convert sunlight into energy.", Language: "en"}
	paragraph.ID = 1
	f.paragraphs.paragraphs[1] = paragraph

	homework := models.Homework{
		SchoolID:            1,
		TeacherID:           7,
		ClassID:             10,
		Status:              models.HomeworkStatusDraft,
		AIGenerationEnabled: true,
	}
	require.NoError(t, f.homeworks.Create(ctx, &homework))

	paragraphID := uint(1)
	task := models.HomeworkTask{
		HomeworkID:  homework.ID,
		Type:        models.TaskTypeRead,
		MaxAttempts: 1,
		ParagraphID: &paragraphID,
	}
	require.NoError(t, f.tasks.Create(ctx, &task))

	return homework, task
}

func TestGradeOpenEndedFlagsBelowThreshold(t *testing.T) {
	f := newAIFixture(t, AIGradingConfig{ReviewConfidenceThreshold: 0.7})

	f.client.gradeResult = ai.GradeResult{Score: 0.9, Confidence: 0.65, Feedback: "Good reasoning"}
	outcome := f.service.GradeOpenEnded(context.Background(), models.HomeworkTaskQuestion{ID: 1, Text: "Why?"}, "Because", 1)

	require.True(t, outcome.FlaggedForReview)
	require.False(t, outcome.Degraded)
	require.Equal(t, 0.9, outcome.Score)
}

func TestGradeOpenEndedConfidentResultNotFlagged(t *testing.T) {
	f := newAIFixture(t, AIGradingConfig{ReviewConfidenceThreshold: 0.7})

	f.client.gradeResult = ai.GradeResult{Score: 0.8, Confidence: 0.92, Feedback: "Solid"}
	outcome := f.service.GradeOpenEnded(context.Background(), models.HomeworkTaskQuestion{ID: 1, Text: "Why?"}, "Because", 1)

	require.False(t, outcome.FlaggedForReview)
	require.Equal(t, 0.8, outcome.Score)
	require.Len(t, f.logs.entries, 1)
	require.True(t, f.logs.entries[0].Success)
}

func TestGradeOpenEndedDegradesOnClientFailure(t *testing.T) {
	f := newAIFixture(t, AIGradingConfig{})

	f.client.gradeErr = ai.ErrUnavailable
	outcome := f.service.GradeOpenEnded(context.Background(), models.HomeworkTaskQuestion{ID: 1, Text: "Why?"}, "Because", 1)

	require.True(t, outcome.Degraded)
	require.True(t, outcome.FlaggedForReview)
	require.Equal(t, 0.5, outcome.Score)
	require.Zero(t, outcome.Confidence)
	require.NotEmpty(t, outcome.Feedback)

	// The failed call still leaves an audit row.
	require.Len(t, f.logs.entries, 1)
	require.False(t, f.logs.entries[0].Success)
	require.Equal(t, models.AILogKindGrade, f.logs.entries[0].Kind)
}

func TestGenerateQuestionsInsertsBatch(t *testing.T) {
	f := newAIFixture(t, AIGradingConfig{})
	_, task := f.seedGenerationTarget(t)

	f.client.generateResult = ai.GenerationResult{
		Questions: []ai.GeneratedQuestion{
			{
				Type: models.QuestionTypeSingleChoice,
				Text: "What do plants convert?",
				Options: []ai.GeneratedOption{
					{ID: "a", Text: "Sunlight", IsCorrect: true},
					{ID: "b", Text: "Soil"},
				},
				Points: 2,
			},
			{Type: models.QuestionTypeOpenEnded, Text: "Explain photosynthesis", GradingRubric: "mentions light"},
		},
		Dropped: []ai.DroppedItem{{Index: 2, Reason: "empty text"}},
	}

	result, err := f.service.GenerateQuestions(context.Background(), task.ID, 7, 1, dto.GenerateQuestionsRequest{QuestionCount: 3})
	require.NoError(t, err)
	require.Len(t, result.Questions, 2)
	require.Equal(t, 1, result.Dropped)

	for _, question := range result.Questions {
		require.True(t, question.AIGenerated)
		require.True(t, question.IsActive)
	}

	require.Len(t, f.logs.entries, 1)
	require.Equal(t, models.AILogKindGenerate, f.logs.entries[0].Kind)
	require.True(t, f.logs.entries[0].Success)
}

func TestGenerateQuestionsReplaceDeactivatesExisting(t *testing.T) {
	f := newAIFixture(t, AIGradingConfig{})
	_, task := f.seedGenerationTarget(t)

	existing := models.HomeworkTaskQuestion{
		HomeworkTaskID: task.ID,
		Type:           models.QuestionTypeShortAnswer,
		Text:           "Old question",
		Version:        1,
		IsActive:       true,
	}
	require.NoError(t, f.questions.Create(context.Background(), &existing))

	f.client.generateResult = ai.GenerationResult{
		Questions: []ai.GeneratedQuestion{
			{Type: models.QuestionTypeOpenEnded, Text: "New question"},
		},
	}

	result, err := f.service.GenerateQuestions(context.Background(), task.ID, 7, 1, dto.GenerateQuestionsRequest{QuestionCount: 1, Replace: true})
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)

	active, err := f.questions.ListActiveByTask(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "New question", active[0].Text)
}

func TestGenerateQuestionsRequiresGenerationEnabled(t *testing.T) {
	f := newAIFixture(t, AIGradingConfig{})
	homework, task := f.seedGenerationTarget(t)

	stored := f.homeworks.homeworks[homework.ID]
	stored.AIGenerationEnabled = false
	f.homeworks.homeworks[homework.ID] = stored

	_, err := f.service.GenerateQuestions(context.Background(), task.ID, 7, 1, dto.GenerateQuestionsRequest{QuestionCount: 1})
	require.ErrorIs(t, err, ErrGenerationDisabled)
}

func TestGenerateQuestionsRejectsForeignTeacher(t *testing.T) {
	f := newAIFixture(t, AIGradingConfig{})
	_, task := f.seedGenerationTarget(t)

	_, err := f.service.GenerateQuestions(context.Background(), task.ID, 99, 1, dto.GenerateQuestionsRequest{QuestionCount: 1})
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestGenerateQuestionsPropagatesClientFailure(t *testing.T) {
	f := newAIFixture(t, AIGradingConfig{})
	_, task := f.seedGenerationTarget(t)

	f.client.generateErr = ai.ErrUnavailable
	_, err := f.service.GenerateQuestions(context.Background(), task.ID, 7, 1, dto.GenerateQuestionsRequest{QuestionCount: 1})
	require.ErrorIs(t, err, ai.ErrUnavailable)

	require.Len(t, f.logs.entries, 1)
	require.False(t, f.logs.entries[0].Success)
}

func TestGenerateQuestionsPersonalizesForStrugglingStudent(t *testing.T) {
	f := newAIFixture(t, AIGradingConfig{})
	_, task := f.seedGenerationTarget(t)

	f.mastery.status = models.MasteryStatusStruggling
	f.client.generateResult = ai.GenerationResult{
		Questions: []ai.GeneratedQuestion{{Type: models.QuestionTypeOpenEnded, Text: "Q"}},
	}

	studentID := uint(100)
	_, err := f.service.GenerateQuestions(context.Background(), task.ID, 7, 1, dto.GenerateQuestionsRequest{
		QuestionCount: 5,
		BloomLevels:   []string{"apply"},
		StudentID:     &studentID,
	})
	require.NoError(t, err)

	// Struggling students get more, easier questions.
	require.Equal(t, 7, f.client.lastGenInput.QuestionCount)
	require.Equal(t, []string{"understand"}, f.client.lastGenInput.BloomLevels)
}

func TestPersonalizeGeneration(t *testing.T) {
	base := ai.GenerationInput{QuestionCount: 5, BloomLevels: []string{"understand", "apply"}}

	mastered := PersonalizeGeneration(base, models.MasteryStatusMastered)
	require.Equal(t, 3, mastered.QuestionCount)
	require.Equal(t, []string{"apply", "analyze"}, mastered.BloomLevels)

	struggling := PersonalizeGeneration(base, models.MasteryStatusStruggling)
	require.Equal(t, 7, struggling.QuestionCount)
	require.Equal(t, []string{"remember", "understand"}, struggling.BloomLevels)

	progressing := PersonalizeGeneration(base, models.MasteryStatusProgressing)
	require.Equal(t, base.QuestionCount, progressing.QuestionCount)
	require.Equal(t, base.BloomLevels, progressing.BloomLevels)
}

func TestPersonalizeGenerationClampsCount(t *testing.T) {
	small := PersonalizeGeneration(ai.GenerationInput{QuestionCount: 2}, models.MasteryStatusMastered)
	require.Equal(t, 1, small.QuestionCount)

	large := PersonalizeGeneration(ai.GenerationInput{QuestionCount: 19}, models.MasteryStatusStruggling)
	require.Equal(t, 20, large.QuestionCount)
}
