package models

import "time"

// StudentParagraphMastery is the per-student mastery state for one paragraph,
// maintained by the learning analytics pipeline. The grading engine reads it
// to personalize question generation.
type StudentParagraphMastery struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StudentID   uint   `gorm:"not null;uniqueIndex:idx_student_paragraph" json:"student_id"`
	ParagraphID uint   `gorm:"not null;uniqueIndex:idx_student_paragraph" json:"paragraph_id"`
	Status      string `gorm:"size:32;not null;default:progressing" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
