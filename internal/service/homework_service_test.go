package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/models"
)

type homeworkFixture struct {
	service   HomeworkService
	homeworks *memoryHomeworkRepo
	tasks     *memoryTaskRepo
	questions *memoryQuestionRepo
	assigned  *memoryHomeworkStudentRepo
	students  *memoryStudentRepo
	events    *captureEventPublisher
}

func newHomeworkFixture(t *testing.T) *homeworkFixture {
	t.Helper()

	tasks := newMemoryTaskRepo()
	questions := newMemoryQuestionRepo()
	assigned := newMemoryHomeworkStudentRepo()
	homeworks := newMemoryHomeworkRepo(tasks, questions, assigned)
	students := newMemoryStudentRepo()
	events := &captureEventPublisher{}

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewHomeworkService(homeworks, tasks, students, validate, nil, events, testLogger())

	return &homeworkFixture{
		service:   svc,
		homeworks: homeworks,
		tasks:     tasks,
		questions: questions,
		assigned:  assigned,
		students:  students,
		events:    events,
	}
}

func (f *homeworkFixture) createDraft(t *testing.T, teacherID uint) dto.HomeworkResponse {
	t.Helper()

	homework, err := f.service.Create(context.Background(), teacherID, 1, dto.HomeworkCreateRequest{
		ClassID: 10,
		Title:   "Fractions week 3",
		DueDate: time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	return homework
}

func TestHomeworkCreateStartsAsDraft(t *testing.T) {
	f := newHomeworkFixture(t)

	homework := f.createDraft(t, 7)

	require.Equal(t, models.HomeworkStatusDraft, homework.Status)
	require.Equal(t, uint(7), homework.TeacherID)
}

func TestHomeworkCreateSanitizesDescription(t *testing.T) {
	f := newHomeworkFixture(t)

	homework, err := f.service.Create(context.Background(), 7, 1, dto.HomeworkCreateRequest{
		ClassID:     10,
		Title:       "Reading",
		Description: `Read <script>alert("x")</script>chapter two`,
		DueDate:     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.Equal(t, "Read chapter two", homework.Description)
}

func TestHomeworkUpdateRejectsNonDraft(t *testing.T) {
	f := newHomeworkFixture(t)
	homework := f.createDraft(t, 7)

	stored := f.homeworks.homeworks[homework.ID]
	stored.Status = models.HomeworkStatusPublished
	f.homeworks.homeworks[homework.ID] = stored

	title := "New title"
	_, err := f.service.Update(context.Background(), homework.ID, 7, dto.HomeworkUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestHomeworkUpdateRejectsForeignTeacher(t *testing.T) {
	f := newHomeworkFixture(t)
	homework := f.createDraft(t, 7)

	title := "New title"
	_, err := f.service.Update(context.Background(), homework.ID, 8, dto.HomeworkUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestPublishRequiresTasks(t *testing.T) {
	f := newHomeworkFixture(t)
	homework := f.createDraft(t, 7)

	_, err := f.service.Publish(context.Background(), homework.ID, 7, []uint{1})
	require.ErrorIs(t, err, ErrNoTasks)
}

func TestPublishReportsEveryOffendingTask(t *testing.T) {
	f := newHomeworkFixture(t)
	homework := f.createDraft(t, 7)

	// Two quiz tasks without questions, one valid essay with instructions.
	for _, taskType := range []string{models.TaskTypeQuiz, models.TaskTypeQuiz} {
		_, err := f.service.AddTask(context.Background(), homework.ID, 7, dto.TaskCreateRequest{
			Type:        taskType,
			MaxAttempts: 1,
		})
		require.NoError(t, err)
	}
	_, err := f.service.AddTask(context.Background(), homework.ID, 7, dto.TaskCreateRequest{
		Type:         models.TaskTypeEssay,
		Instructions: "Write 300 words about photosynthesis",
		MaxAttempts:  1,
	})
	require.NoError(t, err)

	_, err = f.service.Publish(context.Background(), homework.ID, 7, []uint{1})
	var contentErr *TaskContentError
	require.ErrorAs(t, err, &contentErr)
	require.Len(t, contentErr.Issues, 2)
}

func TestPublishAssignsClassWhenNoExplicitStudents(t *testing.T) {
	f := newHomeworkFixture(t)
	homework := f.createDraft(t, 7)

	f.students.students[100] = models.Student{ClassID: 10}
	f.students.students[101] = models.Student{ClassID: 10}
	f.students.students[102] = models.Student{ClassID: 99}

	_, err := f.service.AddTask(context.Background(), homework.ID, 7, dto.TaskCreateRequest{
		Type:         models.TaskTypeEssay,
		Instructions: "Write a summary",
		MaxAttempts:  1,
	})
	require.NoError(t, err)

	result, err := f.service.Publish(context.Background(), homework.ID, 7, nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.StudentsAssigned)
	require.Equal(t, models.HomeworkStatusPublished, f.homeworks.homeworks[homework.ID].Status)

	require.Len(t, f.events.events, 1)
	require.Equal(t, EventHomeworkPublished, f.events.events[0].Subject)
}

func TestPublishTwiceSkipsExistingAssignments(t *testing.T) {
	f := newHomeworkFixture(t)
	homework := f.createDraft(t, 7)

	_, err := f.service.AddTask(context.Background(), homework.ID, 7, dto.TaskCreateRequest{
		Type:         models.TaskTypeEssay,
		Instructions: "Write a summary",
		MaxAttempts:  1,
	})
	require.NoError(t, err)

	first, err := f.service.Publish(context.Background(), homework.ID, 7, []uint{1, 2})
	require.NoError(t, err)
	require.Equal(t, 2, first.StudentsAssigned)

	second, err := f.service.Publish(context.Background(), homework.ID, 7, []uint{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 1, second.StudentsAssigned)
}

func TestPublishRejectsEmptyStudentSet(t *testing.T) {
	f := newHomeworkFixture(t)
	homework := f.createDraft(t, 7)

	_, err := f.service.AddTask(context.Background(), homework.ID, 7, dto.TaskCreateRequest{
		Type:         models.TaskTypeEssay,
		Instructions: "Write a summary",
		MaxAttempts:  1,
	})
	require.NoError(t, err)

	_, err = f.service.Publish(context.Background(), homework.ID, 7, nil)
	require.ErrorIs(t, err, ErrNoStudents)
}

func TestPublishRejectsClosedHomework(t *testing.T) {
	f := newHomeworkFixture(t)
	homework := f.createDraft(t, 7)

	stored := f.homeworks.homeworks[homework.ID]
	stored.Status = models.HomeworkStatusClosed
	f.homeworks.homeworks[homework.ID] = stored

	_, err := f.service.Publish(context.Background(), homework.ID, 7, []uint{1})
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestCloseRequiresPublished(t *testing.T) {
	f := newHomeworkFixture(t)
	homework := f.createDraft(t, 7)

	_, err := f.service.Close(context.Background(), homework.ID, 7)
	require.ErrorIs(t, err, ErrNotPublished)

	stored := f.homeworks.homeworks[homework.ID]
	stored.Status = models.HomeworkStatusPublished
	f.homeworks.homeworks[homework.ID] = stored

	closed, err := f.service.Close(context.Background(), homework.ID, 7)
	require.NoError(t, err)
	require.Equal(t, models.HomeworkStatusClosed, closed.Status)
}

func TestDeleteTaskRejectsTaskFromOtherHomework(t *testing.T) {
	f := newHomeworkFixture(t)
	first := f.createDraft(t, 7)
	second := f.createDraft(t, 7)

	task, err := f.service.AddTask(context.Background(), second.ID, 7, dto.TaskCreateRequest{
		Type:        models.TaskTypeQuiz,
		MaxAttempts: 1,
	})
	require.NoError(t, err)

	err = f.service.DeleteTask(context.Background(), first.ID, task.ID, 7)
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetReturnsNotFound(t *testing.T) {
	f := newHomeworkFixture(t)

	_, err := f.service.Get(context.Background(), 12345)
	require.True(t, errors.Is(err, ErrHomeworkNotFound))
}
