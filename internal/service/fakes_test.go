package service

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/models"
	"github.com/noah-isme/skola-go-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type memoryTaskRepo struct {
	tasks  map[uint]models.HomeworkTask
	nextID uint
}

func newMemoryTaskRepo() *memoryTaskRepo {
	return &memoryTaskRepo{tasks: make(map[uint]models.HomeworkTask), nextID: 1}
}

func (m *memoryTaskRepo) GetByID(ctx context.Context, id uint) (models.HomeworkTask, error) {
	task, ok := m.tasks[id]
	if !ok {
		return models.HomeworkTask{}, gorm.ErrRecordNotFound
	}
	return task, nil
}

func (m *memoryTaskRepo) NextSortOrder(ctx context.Context, homeworkID uint) (int, error) {
	max := 0
	for _, task := range m.tasks {
		if task.HomeworkID == homeworkID && task.SortOrder > max {
			max = task.SortOrder
		}
	}
	return max + 1, nil
}

func (m *memoryTaskRepo) Create(ctx context.Context, task *models.HomeworkTask) error {
	task.ID = m.nextID
	m.tasks[m.nextID] = *task
	m.nextID++
	return nil
}

func (m *memoryTaskRepo) Update(ctx context.Context, task *models.HomeworkTask) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.tasks[task.ID] = *task
	return nil
}

func (m *memoryTaskRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.tasks[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.tasks, id)
	return nil
}

type memoryQuestionRepo struct {
	questions map[uint]models.HomeworkTaskQuestion
	nextID    uint
}

func newMemoryQuestionRepo() *memoryQuestionRepo {
	return &memoryQuestionRepo{questions: make(map[uint]models.HomeworkTaskQuestion), nextID: 1}
}

func (m *memoryQuestionRepo) GetByID(ctx context.Context, id uint) (models.HomeworkTaskQuestion, error) {
	question, ok := m.questions[id]
	if !ok {
		return models.HomeworkTaskQuestion{}, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (m *memoryQuestionRepo) ListActiveByTask(ctx context.Context, taskID uint) ([]models.HomeworkTaskQuestion, error) {
	var results []models.HomeworkTaskQuestion
	for _, question := range m.questions {
		if question.HomeworkTaskID == taskID && question.IsActive {
			results = append(results, question)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].SortOrder < results[j].SortOrder })
	return results, nil
}

func (m *memoryQuestionRepo) NextSortOrder(ctx context.Context, taskID uint) (int, error) {
	max := 0
	for _, question := range m.questions {
		if question.HomeworkTaskID == taskID && question.SortOrder > max {
			max = question.SortOrder
		}
	}
	return max + 1, nil
}

func (m *memoryQuestionRepo) Create(ctx context.Context, question *models.HomeworkTaskQuestion) error {
	question.ID = m.nextID
	m.questions[m.nextID] = *question
	m.nextID++
	return nil
}

func (m *memoryQuestionRepo) CreateBatch(ctx context.Context, questions []models.HomeworkTaskQuestion) error {
	for i := range questions {
		if err := m.Create(ctx, &questions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryQuestionRepo) Replace(ctx context.Context, old *models.HomeworkTaskQuestion, replacement *models.HomeworkTaskQuestion) error {
	if err := m.Create(ctx, replacement); err != nil {
		return err
	}
	old.IsActive = false
	old.ReplacedByID = &replacement.ID
	m.questions[old.ID] = *old
	return nil
}

func (m *memoryQuestionRepo) DeactivateAllForTask(ctx context.Context, taskID uint) error {
	for id, question := range m.questions {
		if question.HomeworkTaskID == taskID && question.IsActive {
			question.IsActive = false
			m.questions[id] = question
		}
	}
	return nil
}

type memoryHomeworkStudentRepo struct {
	records map[uint]models.HomeworkStudent
	nextID  uint
}

func newMemoryHomeworkStudentRepo() *memoryHomeworkStudentRepo {
	return &memoryHomeworkStudentRepo{records: make(map[uint]models.HomeworkStudent), nextID: 1}
}

func (m *memoryHomeworkStudentRepo) GetByHomeworkAndStudent(ctx context.Context, homeworkID, studentID uint) (models.HomeworkStudent, error) {
	for _, record := range m.records {
		if record.HomeworkID == homeworkID && record.StudentID == studentID {
			return record, nil
		}
	}
	return models.HomeworkStudent{}, gorm.ErrRecordNotFound
}

func (m *memoryHomeworkStudentRepo) ListByHomework(ctx context.Context, homeworkID uint) ([]models.HomeworkStudent, error) {
	var results []models.HomeworkStudent
	for _, record := range m.records {
		if record.HomeworkID == homeworkID {
			results = append(results, record)
		}
	}
	return results, nil
}

func (m *memoryHomeworkStudentRepo) Update(ctx context.Context, record *models.HomeworkStudent) error {
	if _, ok := m.records[record.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.records[record.ID] = *record
	return nil
}

func (m *memoryHomeworkStudentRepo) insert(record models.HomeworkStudent) models.HomeworkStudent {
	record.ID = m.nextID
	m.records[m.nextID] = record
	m.nextID++
	return record
}

type memoryHomeworkRepo struct {
	homeworks map[uint]models.Homework
	nextID    uint
	tasks     *memoryTaskRepo
	questions *memoryQuestionRepo
	students  *memoryHomeworkStudentRepo
}

func newMemoryHomeworkRepo(tasks *memoryTaskRepo, questions *memoryQuestionRepo, students *memoryHomeworkStudentRepo) *memoryHomeworkRepo {
	return &memoryHomeworkRepo{
		homeworks: make(map[uint]models.Homework),
		nextID:    1,
		tasks:     tasks,
		questions: questions,
		students:  students,
	}
}

func (m *memoryHomeworkRepo) GetByID(ctx context.Context, id uint) (models.Homework, error) {
	homework, ok := m.homeworks[id]
	if !ok {
		return models.Homework{}, gorm.ErrRecordNotFound
	}
	return homework, nil
}

func (m *memoryHomeworkRepo) GetWithTasks(ctx context.Context, id uint) (models.Homework, error) {
	homework, err := m.GetByID(ctx, id)
	if err != nil {
		return models.Homework{}, err
	}
	homework.Tasks = nil
	for _, task := range m.tasks.tasks {
		if task.HomeworkID != id {
			continue
		}
		if m.questions != nil {
			task.Questions, _ = m.questions.ListActiveByTask(ctx, task.ID)
		}
		homework.Tasks = append(homework.Tasks, task)
	}
	sort.Slice(homework.Tasks, func(i, j int) bool { return homework.Tasks[i].SortOrder < homework.Tasks[j].SortOrder })
	return homework, nil
}

func (m *memoryHomeworkRepo) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Homework, error) {
	var results []models.Homework
	for _, homework := range m.homeworks {
		if homework.TeacherID == teacherID {
			results = append(results, homework)
		}
	}
	return results, nil
}

func (m *memoryHomeworkRepo) Create(ctx context.Context, homework *models.Homework) error {
	homework.ID = m.nextID
	homework.CreatedAt = time.Now()
	homework.UpdatedAt = time.Now()
	m.homeworks[m.nextID] = *homework
	m.nextID++
	return nil
}

func (m *memoryHomeworkRepo) Update(ctx context.Context, homework *models.Homework) error {
	if _, ok := m.homeworks[homework.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.homeworks[homework.ID] = *homework
	return nil
}

func (m *memoryHomeworkRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.homeworks[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.homeworks, id)
	return nil
}

func (m *memoryHomeworkRepo) Publish(ctx context.Context, homework *models.Homework, studentIDs []uint) (int, error) {
	existing := make(map[uint]struct{})
	for _, record := range m.students.records {
		if record.HomeworkID == homework.ID {
			existing[record.StudentID] = struct{}{}
		}
	}

	created := 0
	for _, studentID := range studentIDs {
		if _, ok := existing[studentID]; ok {
			continue
		}
		m.students.insert(models.HomeworkStudent{
			HomeworkID: homework.ID,
			StudentID:  studentID,
			Status:     models.HomeworkStudentStatusAssigned,
		})
		created++
	}

	homework.Status = models.HomeworkStatusPublished
	m.homeworks[homework.ID] = *homework
	return created, nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.StudentTaskSubmission
	nextID      uint
	students    *memoryHomeworkStudentRepo
	tasks       *memoryTaskRepo
}

func newMemorySubmissionRepo(students *memoryHomeworkStudentRepo, tasks *memoryTaskRepo) *memorySubmissionRepo {
	return &memorySubmissionRepo{
		submissions: make(map[uint]models.StudentTaskSubmission),
		nextID:      1,
		students:    students,
		tasks:       tasks,
	}
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id uint) (models.StudentTaskSubmission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.StudentTaskSubmission{}, gorm.ErrRecordNotFound
	}
	if record, ok := m.students.records[submission.HomeworkStudentID]; ok {
		submission.HomeworkStudent = record
	}
	if task, ok := m.tasks.tasks[submission.HomeworkTaskID]; ok {
		submission.Task = task
	}
	return submission, nil
}

func (m *memorySubmissionRepo) CountAttempts(ctx context.Context, homeworkStudentID, taskID uint) (int64, error) {
	var count int64
	for _, submission := range m.submissions {
		if submission.HomeworkStudentID == homeworkStudentID && submission.HomeworkTaskID == taskID {
			count++
		}
	}
	return count, nil
}

func (m *memorySubmissionRepo) HasCompleted(ctx context.Context, homeworkStudentID, taskID uint) (bool, error) {
	for _, submission := range m.submissions {
		if submission.HomeworkStudentID == homeworkStudentID &&
			submission.HomeworkTaskID == taskID &&
			submission.Status != models.SubmissionStatusInProgress {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySubmissionRepo) ListByHomework(ctx context.Context, homeworkID uint) ([]models.StudentTaskSubmission, error) {
	var results []models.StudentTaskSubmission
	for _, submission := range m.submissions {
		if record, ok := m.students.records[submission.HomeworkStudentID]; ok && record.HomeworkID == homeworkID {
			results = append(results, submission)
		}
	}
	return results, nil
}

func (m *memorySubmissionRepo) Create(ctx context.Context, submission *models.StudentTaskSubmission) error {
	for _, existing := range m.submissions {
		if existing.HomeworkStudentID == submission.HomeworkStudentID &&
			existing.HomeworkTaskID == submission.HomeworkTaskID &&
			existing.AttemptNumber == submission.AttemptNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = m.nextID
	m.submissions[m.nextID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Update(ctx context.Context, submission *models.StudentTaskSubmission) error {
	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *submission
	stored.HomeworkStudent = models.HomeworkStudent{}
	stored.Task = models.HomeworkTask{}
	m.submissions[submission.ID] = stored
	return nil
}

type memoryAnswerRepo struct {
	answers   map[uint]models.StudentTaskAnswer
	nextID    uint
	questions *memoryQuestionRepo
}

func newMemoryAnswerRepo(questions *memoryQuestionRepo) *memoryAnswerRepo {
	return &memoryAnswerRepo{answers: make(map[uint]models.StudentTaskAnswer), nextID: 1, questions: questions}
}

func (m *memoryAnswerRepo) GetByID(ctx context.Context, id uint) (models.StudentTaskAnswer, error) {
	answer, ok := m.answers[id]
	if !ok {
		return models.StudentTaskAnswer{}, gorm.ErrRecordNotFound
	}
	if question, ok := m.questions.questions[answer.QuestionID]; ok {
		answer.Question = question
	}
	return answer, nil
}

func (m *memoryAnswerRepo) GetBySubmissionAndQuestion(ctx context.Context, submissionID, questionID uint) (models.StudentTaskAnswer, error) {
	for _, answer := range m.answers {
		if answer.SubmissionID == submissionID && answer.QuestionID == questionID {
			return answer, nil
		}
	}
	return models.StudentTaskAnswer{}, gorm.ErrRecordNotFound
}

func (m *memoryAnswerRepo) ListBySubmission(ctx context.Context, submissionID uint) ([]models.StudentTaskAnswer, error) {
	var results []models.StudentTaskAnswer
	for _, answer := range m.answers {
		if answer.SubmissionID != submissionID {
			continue
		}
		if question, ok := m.questions.questions[answer.QuestionID]; ok {
			answer.Question = question
		}
		results = append(results, answer)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryAnswerRepo) Upsert(ctx context.Context, answer *models.StudentTaskAnswer) error {
	for id, existing := range m.answers {
		if existing.SubmissionID == answer.SubmissionID && existing.QuestionID == answer.QuestionID {
			answer.ID = id
			answer.CreatedAt = existing.CreatedAt
			m.answers[id] = *answer
			return nil
		}
	}
	answer.ID = m.nextID
	answer.CreatedAt = time.Now()
	m.answers[m.nextID] = *answer
	m.nextID++
	return nil
}

func (m *memoryAnswerRepo) Update(ctx context.Context, answer *models.StudentTaskAnswer) error {
	if _, ok := m.answers[answer.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *answer
	stored.Question = models.HomeworkTaskQuestion{}
	m.answers[answer.ID] = stored
	return nil
}

func (m *memoryAnswerRepo) ListFlaggedForReview(ctx context.Context, schoolID uint, limit int) ([]models.StudentTaskAnswer, error) {
	var results []models.StudentTaskAnswer
	for _, answer := range m.answers {
		if !answer.FlaggedForReview || answer.TeacherOverrideScore != nil {
			continue
		}
		if question, ok := m.questions.questions[answer.QuestionID]; ok {
			answer.Question = question
		}
		results = append(results, answer)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.Before(results[j].CreatedAt) })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

type memoryStudentRepo struct {
	students map[uint]models.Student
}

func newMemoryStudentRepo() *memoryStudentRepo {
	return &memoryStudentRepo{students: make(map[uint]models.Student)}
}

func (m *memoryStudentRepo) ListIDsByClass(ctx context.Context, classID uint) ([]uint, error) {
	var ids []uint
	for id, student := range m.students {
		if student.ClassID == classID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memoryStudentRepo) GetByID(ctx context.Context, id uint) (models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

type memoryParagraphRepo struct {
	paragraphs map[uint]models.Paragraph
}

func newMemoryParagraphRepo() *memoryParagraphRepo {
	return &memoryParagraphRepo{paragraphs: make(map[uint]models.Paragraph)}
}

func (m *memoryParagraphRepo) GetByID(ctx context.Context, id uint) (models.Paragraph, error) {
	paragraph, ok := m.paragraphs[id]
	if !ok {
		return models.Paragraph{}, gorm.ErrRecordNotFound
	}
	return paragraph, nil
}

type memoryAILogRepo struct {
	entries []models.AIGenerationLog
}

func newMemoryAILogRepo() *memoryAILogRepo {
	return &memoryAILogRepo{}
}

func (m *memoryAILogRepo) Create(ctx context.Context, entry *models.AIGenerationLog) error {
	entry.ID = uint(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryAILogRepo) ListBySchool(ctx context.Context, schoolID uint, limit int) ([]models.AIGenerationLog, error) {
	var results []models.AIGenerationLog
	for _, entry := range m.entries {
		if entry.SchoolID == schoolID {
			results = append(results, entry)
		}
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

type capturedEvent struct {
	Subject string
	Payload interface{}
}

type captureEventPublisher struct {
	events []capturedEvent
}

func (c *captureEventPublisher) Publish(subject string, payload interface{}) {
	c.events = append(c.events, capturedEvent{Subject: subject, Payload: payload})
}

type stubAIClient struct {
	gradeResult    ai.GradeResult
	gradeErr       error
	generateResult ai.GenerationResult
	generateErr    error
	gradeCalls     int
	generateCalls  int
	lastGenInput   ai.GenerationInput
}

func (s *stubAIClient) GradeOpenEnded(ctx context.Context, input ai.GradeInput) (ai.GradeResult, error) {
	s.gradeCalls++
	return s.gradeResult, s.gradeErr
}

func (s *stubAIClient) GenerateQuestions(ctx context.Context, input ai.GenerationInput) (ai.GenerationResult, error) {
	s.generateCalls++
	s.lastGenInput = input
	return s.generateResult, s.generateErr
}

type stubMasteryLookup struct {
	status string
	err    error
}

func (s *stubMasteryLookup) MasteryStatus(ctx context.Context, studentID, paragraphID uint) (string, error) {
	return s.status, s.err
}
