package models

import "time"

// HomeworkStudent is one student's assignment record for one homework.
// Rows are created in bulk when the homework is published.
type HomeworkStudent struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	HomeworkID uint   `gorm:"not null;uniqueIndex:idx_homework_student" json:"homework_id"`
	StudentID  uint   `gorm:"not null;uniqueIndex:idx_homework_student" json:"student_id"`
	Status     string `gorm:"size:32;not null;default:assigned" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Homework Homework `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"homework,omitempty"`
	Student  Student  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
}

const (
	// HomeworkStudentStatusAssigned means the student has not started yet.
	HomeworkStudentStatusAssigned = "assigned"
	// HomeworkStudentStatusInProgress means at least one task was started.
	HomeworkStudentStatusInProgress = "in_progress"
	// HomeworkStudentStatusSubmitted means every task has a completed submission.
	HomeworkStudentStatusSubmitted = "submitted"
	// HomeworkStudentStatusGraded means all submissions received final grades.
	HomeworkStudentStatusGraded = "graded"
)
