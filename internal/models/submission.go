package models

import "time"

// StudentTaskSubmission is one attempt at one task by one student.
//
// The unique index over (homework_student_id, homework_task_id, attempt_number)
// guards against two concurrent starts computing the same next attempt number;
// the service retries the count-then-insert on conflict.
type StudentTaskSubmission struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	HomeworkStudentID uint   `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"homework_student_id"`
	HomeworkTaskID    uint   `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"homework_task_id"`
	AttemptNumber     int    `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"attempt_number"`
	Status            string `gorm:"size:32;not null;default:in_progress" json:"status"`

	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Score    float64 `gorm:"not null;default:0" json:"score"`
	MaxScore float64 `gorm:"not null;default:0" json:"max_score"`

	IsLate             bool     `gorm:"not null;default:false" json:"is_late"`
	LatePenaltyApplied float64  `gorm:"not null;default:0" json:"late_penalty_applied"`
	OriginalScore      *float64 `json:"original_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	HomeworkStudent HomeworkStudent     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"homework_student,omitempty"`
	Task            HomeworkTask        `gorm:"foreignKey:HomeworkTaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task,omitempty"`
	Answers         []StudentTaskAnswer `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers,omitempty"`
}

const (
	// SubmissionStatusInProgress means the student may still change answers.
	SubmissionStatusInProgress = "in_progress"
	// SubmissionStatusGraded means the submission received its final score.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusNeedsReview means at least one answer awaits a teacher.
	SubmissionStatusNeedsReview = "needs_review"
)

// IsInProgress reports whether the submission still accepts answers.
func (s StudentTaskSubmission) IsInProgress() bool {
	return s.Status == SubmissionStatusInProgress
}
