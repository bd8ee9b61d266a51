package models

import "time"

// Paragraph is a source text from the content catalog used for AI question
// generation. The engine only reads these rows.
type Paragraph struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SchoolID  uint      `gorm:"not null;index" json:"school_id"`
	Title     string    `gorm:"size:255" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Language  string    `gorm:"size:16;default:en" json:"language"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// MasteryStatusMastered means the student already commands the paragraph.
	MasteryStatusMastered = "mastered"
	// MasteryStatusProgressing means the student is on track.
	MasteryStatusProgressing = "progressing"
	// MasteryStatusStruggling means the student needs easier material.
	MasteryStatusStruggling = "struggling"
)
