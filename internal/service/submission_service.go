package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/skola-go-api/internal/dto"
	"github.com/noah-isme/skola-go-api/internal/grading"
	"github.com/noah-isme/skola-go-api/internal/models"
	"github.com/noah-isme/skola-go-api/internal/observability"
	"github.com/noah-isme/skola-go-api/internal/repository"
)

// ErrNotAssigned indicates the student was never assigned this homework.
var ErrNotAssigned = errors.New("student is not assigned to this homework")

// ErrHomeworkClosed indicates the homework stopped accepting attempts.
var ErrHomeworkClosed = errors.New("homework is closed")

// ErrMaxAttemptsExceeded indicates the student used up every attempt.
var ErrMaxAttemptsExceeded = errors.New("maximum attempts for this task exceeded")

// ErrSubmissionNotFound indicates the submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionNotInProgress indicates the submission was already completed.
var ErrSubmissionNotInProgress = errors.New("submission is not in progress")

// ErrNotYourSubmission indicates the submission belongs to another student.
var ErrNotYourSubmission = errors.New("submission belongs to another student")

// ErrQuestionNotInTask indicates the question is not part of the submission's task.
var ErrQuestionNotInTask = errors.New("question does not belong to the submission's task")

// errAttemptConflict signals a concurrent start claimed the attempt number;
// the count-then-insert is retried a bounded number of times.
var errAttemptConflict = errors.New("attempt number conflict")

const attemptInsertRetries = 3

// SubmissionService tracks per-student, per-task attempts through their
// lifecycle: start, answer, complete.
type SubmissionService interface {
	StartTask(ctx context.Context, homeworkID, taskID, studentID uint) (dto.SubmissionResponse, error)
	SubmitAnswer(ctx context.Context, submissionID, studentID uint, payload dto.AnswerSubmitRequest) (dto.AnswerResultResponse, error)
	CompleteSubmission(ctx context.Context, submissionID, studentID uint) (dto.CompletionResponse, error)
}

type submissionService struct {
	submissions      repository.SubmissionRepository
	answers          repository.AnswerRepository
	homeworks        repository.HomeworkRepository
	homeworkStudents repository.HomeworkStudentRepository
	tasks            repository.TaskRepository
	questions        repository.QuestionRepository
	aiGrader         AIGradingService
	events           EventPublisher
	validator        *validator.Validate
	logger           zerolog.Logger
	now              func() time.Time
}

// NewSubmissionService builds the submission tracker.
func NewSubmissionService(submissions repository.SubmissionRepository, answers repository.AnswerRepository, homeworks repository.HomeworkRepository, homeworkStudents repository.HomeworkStudentRepository, tasks repository.TaskRepository, questions repository.QuestionRepository, aiGrader AIGradingService, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions:      submissions,
		answers:          answers,
		homeworks:        homeworks,
		homeworkStudents: homeworkStudents,
		tasks:            tasks,
		questions:        questions,
		aiGrader:         aiGrader,
		events:           events,
		validator:        validate,
		logger:           logger.With().Str("component", "submission_service").Logger(),
		now:              time.Now,
	}
}

func (s *submissionService) StartTask(ctx context.Context, homeworkID, taskID, studentID uint) (dto.SubmissionResponse, error) {
	record, err := s.homeworkStudents.GetByHomeworkAndStudent(ctx, homeworkID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrNotAssigned
		}
		return dto.SubmissionResponse{}, err
	}

	homework, err := s.homeworks.GetByID(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrHomeworkNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	switch homework.Status {
	case models.HomeworkStatusPublished:
	case models.HomeworkStatusClosed:
		return dto.SubmissionResponse{}, ErrHomeworkClosed
	default:
		return dto.SubmissionResponse{}, ErrNotPublished
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrTaskNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	if task.HomeworkID != homework.ID {
		return dto.SubmissionResponse{}, ErrTaskNotFound
	}

	// The attempt ceiling is checked before lateness so an exhausted student
	// gets the attempts error even when the window has also passed. The
	// count-then-insert below re-checks under the unique index.
	count, err := s.submissions.CountAttempts(ctx, record.ID, task.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if count >= int64(task.MaxAttempts) {
		return dto.SubmissionResponse{}, ErrMaxAttemptsExceeded
	}

	now := s.now()
	var lateness grading.Lateness
	if homework.IsPastDue(now) {
		lateness, err = grading.EvaluateLateness(grading.LatePolicy{
			Allowed:          homework.LateSubmissionAllowed,
			PenaltyPerDay:    homework.LatePenaltyPerDay,
			GracePeriodHours: homework.GracePeriodHours,
			MaxLateDays:      homework.MaxLateDays,
		}, homework.DueDate, now)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	submission, err := s.insertAttempt(ctx, record.ID, task, now, lateness)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	// First-touch transition; a no-op for every later attempt.
	if record.Status == models.HomeworkStudentStatusAssigned {
		record.Status = models.HomeworkStudentStatusInProgress
		if err := s.homeworkStudents.Update(ctx, &record); err != nil {
			s.logger.Error().Err(err).Uint("homework_student_id", record.ID).Msg("failed to advance assignment status")
		}
	}

	observability.TaskStarts().WithLabelValues(task.Type).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("task_id", task.ID).
		Int("attempt", submission.AttemptNumber).
		Bool("late", submission.IsLate).
		Msg("task attempt started")

	return dto.NewSubmissionResponse(submission), nil
}

// insertAttempt performs the count-then-insert with a bounded retry: when a
// concurrent start wins the unique attempt index, the count is re-read.
func (s *submissionService) insertAttempt(ctx context.Context, homeworkStudentID uint, task models.HomeworkTask, startedAt time.Time, lateness grading.Lateness) (models.StudentTaskSubmission, error) {
	var lastErr error

	for attempt := 0; attempt < attemptInsertRetries; attempt++ {
		count, err := s.submissions.CountAttempts(ctx, homeworkStudentID, task.ID)
		if err != nil {
			return models.StudentTaskSubmission{}, err
		}
		if count >= int64(task.MaxAttempts) {
			return models.StudentTaskSubmission{}, ErrMaxAttemptsExceeded
		}

		submission := models.StudentTaskSubmission{
			HomeworkStudentID:  homeworkStudentID,
			HomeworkTaskID:     task.ID,
			AttemptNumber:      int(count) + 1,
			Status:             models.SubmissionStatusInProgress,
			StartedAt:          startedAt,
			IsLate:             lateness.IsLate,
			LatePenaltyApplied: lateness.PenaltyPercent,
		}

		err = s.submissions.Create(ctx, &submission)
		if err == nil {
			return submission, nil
		}
		if !repository.IsDuplicateAttempt(err) {
			return models.StudentTaskSubmission{}, err
		}

		lastErr = err
		s.logger.Warn().
			Uint("homework_student_id", homeworkStudentID).
			Uint("task_id", task.ID).
			Int("attempt_number", submission.AttemptNumber).
			Msg("attempt number conflict, retrying")
	}

	return models.StudentTaskSubmission{}, errors.Join(errAttemptConflict, lastErr)
}

func (s *submissionService) SubmitAnswer(ctx context.Context, submissionID, studentID uint, payload dto.AnswerSubmitRequest) (dto.AnswerResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnswerResultResponse{}, err
	}

	submission, err := s.loadOwnedSubmission(ctx, submissionID, studentID)
	if err != nil {
		return dto.AnswerResultResponse{}, err
	}
	if !submission.IsInProgress() {
		return dto.AnswerResultResponse{}, ErrSubmissionNotInProgress
	}

	question, err := s.questions.GetByID(ctx, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerResultResponse{}, ErrQuestionNotFound
		}
		return dto.AnswerResultResponse{}, err
	}
	if question.HomeworkTaskID != submission.HomeworkTaskID {
		return dto.AnswerResultResponse{}, ErrQuestionNotInTask
	}
	// New answers only resolve against the active version of a question;
	// a superseded version keeps existing answers but accepts no new ones.
	if !question.IsActive {
		return dto.AnswerResultResponse{}, ErrQuestionInactive
	}

	answer := models.StudentTaskAnswer{
		SubmissionID: submission.ID,
		QuestionID:   question.ID,
		AnswerText:   payload.AnswerText,
	}

	if err := s.gradeAnswer(ctx, &answer, question, payload, submission); err != nil {
		return dto.AnswerResultResponse{}, err
	}

	if err := s.answers.Upsert(ctx, &answer); err != nil {
		return dto.AnswerResultResponse{}, err
	}

	if answer.FlaggedForReview {
		observability.AnswersFlagged().WithLabelValues(question.Type).Inc()
	}

	return dto.AnswerResultResponse{
		QuestionID:       question.ID,
		IsCorrect:        answer.IsCorrect,
		PartialScore:     answer.PartialScore,
		MaxPoints:        question.Points,
		AIFeedback:       answer.AIFeedback,
		AIConfidence:     answer.AIConfidence,
		FlaggedForReview: answer.FlaggedForReview,
	}, nil
}

// gradeAnswer dispatches scoring by question type and fills the answer's
// grading fields in place.
func (s *submissionService) gradeAnswer(ctx context.Context, answer *models.StudentTaskAnswer, question models.HomeworkTaskQuestion, payload dto.AnswerSubmitRequest, submission models.StudentTaskSubmission) error {
	switch {
	case models.IsChoiceType(question.Type):
		correctIDs, err := question.CorrectOptionIDs()
		if err != nil {
			return err
		}

		encoded, err := models.EncodeOptionIDs(payload.SelectedOptionIDs)
		if err != nil {
			return err
		}
		answer.SelectedOptionIDs = encoded

		correct := grading.GradeChoice(correctIDs, payload.SelectedOptionIDs)
		answer.IsCorrect = &correct
		if correct {
			answer.PartialScore = question.Points
		}

	case question.Type == models.QuestionTypeShortAnswer:
		correct := grading.GradeShortAnswer(question.CorrectAnswer, payload.AnswerText)
		answer.IsCorrect = &correct
		if correct {
			answer.PartialScore = question.Points
		}

	case question.Type == models.QuestionTypeOpenEnded:
		homework, err := s.homeworks.GetByID(ctx, submission.HomeworkStudent.HomeworkID)
		if err != nil {
			return err
		}

		if !homework.AICheckEnabled || s.aiGrader == nil {
			answer.FlaggedForReview = true
			return nil
		}

		outcome := s.aiGrader.GradeOpenEnded(ctx, question, payload.AnswerText, homework.SchoolID)
		score := outcome.Score
		confidence := outcome.Confidence
		answer.AIScore = &score
		answer.AIConfidence = &confidence
		answer.AIFeedback = outcome.Feedback
		answer.PartialScore = outcome.Score * question.Points
		answer.FlaggedForReview = outcome.FlaggedForReview
		if len(outcome.RubricScores) > 0 {
			rubric := datatypes.JSONMap{}
			for criterion, value := range outcome.RubricScores {
				rubric[criterion] = value
			}
			answer.AIRubricScores = rubric
		}
	}

	return nil
}

func (s *submissionService) CompleteSubmission(ctx context.Context, submissionID, studentID uint) (dto.CompletionResponse, error) {
	submission, err := s.loadOwnedSubmission(ctx, submissionID, studentID)
	if err != nil {
		return dto.CompletionResponse{}, err
	}
	if !submission.IsInProgress() {
		return dto.CompletionResponse{}, ErrSubmissionNotInProgress
	}

	answers, err := s.answers.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return dto.CompletionResponse{}, err
	}

	activeQuestions, err := s.questions.ListActiveByTask(ctx, submission.HomeworkTaskID)
	if err != nil {
		return dto.CompletionResponse{}, err
	}

	// Answers may reference superseded question versions. Each version
	// lineage counts once: answers are keyed by the head of their chain, and
	// when several versions of one lineage were answered the newest wins.
	answered := make(map[uint]models.StudentTaskAnswer, len(answers))
	for _, answer := range answers {
		head, err := s.lineageHead(ctx, answer.Question)
		if err != nil {
			return dto.CompletionResponse{}, err
		}
		if current, ok := answered[head]; !ok || answer.Question.Version > current.Question.Version {
			answered[head] = answer
		}
	}

	var totalScore, maxScore float64
	var correctCount, incorrectCount int
	flagged := false

	for _, answer := range answered {
		totalScore += answer.EffectiveScore()
		maxScore += answer.Question.Points
		if answer.FlaggedForReview {
			flagged = true
		}
		if answer.IsCorrect != nil {
			if *answer.IsCorrect {
				correctCount++
			} else {
				incorrectCount++
			}
		}
	}

	// Unanswered questions still count toward the maximum, contributing zero.
	questionCount := len(answered)
	for _, question := range activeQuestions {
		if _, ok := answered[question.ID]; ok {
			continue
		}
		maxScore += question.Points
		questionCount++
	}

	if submission.IsLate {
		original := totalScore
		submission.OriginalScore = &original
		totalScore = grading.ApplyPenalty(totalScore, submission.LatePenaltyApplied)
	}

	submission.Score = totalScore
	submission.MaxScore = maxScore
	if flagged {
		submission.Status = models.SubmissionStatusNeedsReview
	} else {
		submission.Status = models.SubmissionStatusGraded
	}
	completedAt := s.now()
	submission.CompletedAt = &completedAt

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.CompletionResponse{}, err
	}

	if err := s.advanceAssignment(ctx, submission.HomeworkStudent); err != nil {
		s.logger.Error().Err(err).Uint("homework_student_id", submission.HomeworkStudentID).Msg("failed to advance assignment after completion")
	}

	observability.SubmissionsCompleted().WithLabelValues(submission.Status).Inc()
	if s.events != nil {
		s.events.Publish(EventSubmissionCompleted, dto.NewSubmissionResponse(submission))
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = totalScore / maxScore * 100
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("status", submission.Status).
		Float64("score", submission.Score).
		Float64("max_score", submission.MaxScore).
		Msg("submission completed")

	return dto.CompletionResponse{
		SubmissionResponse: dto.NewSubmissionResponse(submission),
		Percentage:         percentage,
		CorrectCount:       correctCount,
		IncorrectCount:     incorrectCount,
		AnsweredCount:      len(answered),
		QuestionCount:      questionCount,
	}, nil
}

// lineageHead follows the replacement chain from the given version to the
// newest version of the question.
func (s *submissionService) lineageHead(ctx context.Context, question models.HomeworkTaskQuestion) (uint, error) {
	current := question
	for current.ReplacedByID != nil {
		next, err := s.questions.GetByID(ctx, *current.ReplacedByID)
		if err != nil {
			return 0, err
		}
		current = next
	}
	return current.ID, nil
}

// advanceAssignment moves the assignment record to submitted once every task
// of the homework has a finished attempt.
func (s *submissionService) advanceAssignment(ctx context.Context, record models.HomeworkStudent) error {
	homework, err := s.homeworks.GetWithTasks(ctx, record.HomeworkID)
	if err != nil {
		return err
	}

	for _, task := range homework.Tasks {
		done, err := s.submissions.HasCompleted(ctx, record.ID, task.ID)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
	}

	if record.Status == models.HomeworkStudentStatusSubmitted || record.Status == models.HomeworkStudentStatusGraded {
		return nil
	}

	record.Status = models.HomeworkStudentStatusSubmitted
	return s.homeworkStudents.Update(ctx, &record)
}

func (s *submissionService) loadOwnedSubmission(ctx context.Context, submissionID, studentID uint) (models.StudentTaskSubmission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StudentTaskSubmission{}, ErrSubmissionNotFound
		}
		return models.StudentTaskSubmission{}, err
	}
	if submission.HomeworkStudent.StudentID != studentID {
		return models.StudentTaskSubmission{}, ErrNotYourSubmission
	}

	return submission, nil
}
