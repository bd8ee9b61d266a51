package dto

import (
	"time"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// AnswerSubmitRequest is the payload for answering one question.
type AnswerSubmitRequest struct {
	QuestionID        uint     `json:"question_id" validate:"required"`
	SelectedOptionIDs []string `json:"selected_option_ids"`
	AnswerText        string   `json:"answer_text"`
}

// AnswerResultResponse is the per-question grading outcome returned to the
// student right after submitting an answer.
type AnswerResultResponse struct {
	QuestionID       uint     `json:"question_id"`
	IsCorrect        *bool    `json:"is_correct,omitempty"`
	PartialScore     float64  `json:"partial_score"`
	MaxPoints        float64  `json:"max_points"`
	AIFeedback       string   `json:"ai_feedback,omitempty"`
	AIConfidence     *float64 `json:"ai_confidence,omitempty"`
	FlaggedForReview bool     `json:"flagged_for_review"`
}

// SubmissionResponse is the API representation of a task submission.
type SubmissionResponse struct {
	ID                 uint       `json:"id"`
	HomeworkStudentID  uint       `json:"homework_student_id"`
	TaskID             uint       `json:"task_id"`
	AttemptNumber      int        `json:"attempt_number"`
	Status             string     `json:"status"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Score              float64    `json:"score"`
	MaxScore           float64    `json:"max_score"`
	IsLate             bool       `json:"is_late"`
	LatePenaltyApplied float64    `json:"late_penalty_applied"`
	OriginalScore      *float64   `json:"original_score,omitempty"`
}

// CompletionResponse reports the aggregate result of completing a submission.
type CompletionResponse struct {
	SubmissionResponse

	Percentage     float64 `json:"percentage"`
	CorrectCount   int     `json:"correct_count"`
	IncorrectCount int     `json:"incorrect_count"`
	AnsweredCount  int     `json:"answered_count"`
	QuestionCount  int     `json:"question_count"`
}

// NewSubmissionResponse converts a submission model into its API representation.
func NewSubmissionResponse(submission models.StudentTaskSubmission) SubmissionResponse {
	return SubmissionResponse{
		ID:                 submission.ID,
		HomeworkStudentID:  submission.HomeworkStudentID,
		TaskID:             submission.HomeworkTaskID,
		AttemptNumber:      submission.AttemptNumber,
		Status:             submission.Status,
		StartedAt:          submission.StartedAt,
		CompletedAt:        submission.CompletedAt,
		Score:              submission.Score,
		MaxScore:           submission.MaxScore,
		IsLate:             submission.IsLate,
		LatePenaltyApplied: submission.LatePenaltyApplied,
		OriginalScore:      submission.OriginalScore,
	}
}
