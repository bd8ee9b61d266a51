package dto

import (
	"time"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// ReviewResolveRequest carries a teacher's override for a flagged answer.
type ReviewResolveRequest struct {
	Score   *float64 `json:"score" validate:"required,gte=0"`
	Comment string   `json:"comment"`
}

// ReviewItemResponse is one entry of the review queue.
type ReviewItemResponse struct {
	AnswerID     uint      `json:"answer_id"`
	SubmissionID uint      `json:"submission_id"`
	QuestionID   uint      `json:"question_id"`
	QuestionText string    `json:"question_text"`
	AnswerText   string    `json:"answer_text"`
	AIScore      *float64  `json:"ai_score,omitempty"`
	AIConfidence *float64  `json:"ai_confidence,omitempty"`
	AIFeedback   string    `json:"ai_feedback,omitempty"`
	MaxPoints    float64   `json:"max_points"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// NewReviewItemResponse converts a flagged answer into a queue entry.
func NewReviewItemResponse(answer models.StudentTaskAnswer) ReviewItemResponse {
	return ReviewItemResponse{
		AnswerID:     answer.ID,
		SubmissionID: answer.SubmissionID,
		QuestionID:   answer.QuestionID,
		QuestionText: answer.Question.Text,
		AnswerText:   answer.AnswerText,
		AIScore:      answer.AIScore,
		AIConfidence: answer.AIConfidence,
		AIFeedback:   answer.AIFeedback,
		MaxPoints:    answer.Question.Points,
		SubmittedAt:  answer.CreatedAt,
	}
}

// HomeworkProgressResponse aggregates per-homework completion state.
type HomeworkProgressResponse struct {
	HomeworkID    uint    `json:"homework_id"`
	Assigned      int     `json:"assigned"`
	InProgress    int     `json:"in_progress"`
	Submitted     int     `json:"submitted"`
	Graded        int     `json:"graded"`
	TotalStudents int     `json:"total_students"`
	AverageScore  float64 `json:"average_score"`
	LateCount     int     `json:"late_count"`
}
