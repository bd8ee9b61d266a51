package models

import (
	"time"

	"gorm.io/datatypes"
)

// Homework represents a teacher-authored assignment scoped to a single class.
type Homework struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SchoolID    uint      `gorm:"not null;index" json:"school_id"`
	TeacherID   uint      `gorm:"not null;index" json:"teacher_id"`
	ClassID     uint      `gorm:"not null;index" json:"class_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`
	Status      string    `gorm:"size:32;not null;default:draft" json:"status"`

	LateSubmissionAllowed bool    `gorm:"not null;default:false" json:"late_submission_allowed"`
	LatePenaltyPerDay     float64 `gorm:"not null;default:0" json:"late_penalty_per_day"`
	GracePeriodHours      int     `gorm:"not null;default:0" json:"grace_period_hours"`
	MaxLateDays           int     `gorm:"not null;default:0" json:"max_late_days"`

	AIGenerationEnabled bool `gorm:"not null;default:false" json:"ai_generation_enabled"`
	AICheckEnabled      bool `gorm:"not null;default:false" json:"ai_check_enabled"`

	Attachments datatypes.JSON `json:"attachments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tasks    []HomeworkTask    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"tasks,omitempty"`
	Students []HomeworkStudent `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"students,omitempty"`
}

const (
	// HomeworkStatusDraft indicates the homework is still editable by its teacher.
	HomeworkStatusDraft = "draft"
	// HomeworkStatusPublished indicates students have been assigned and may submit.
	HomeworkStatusPublished = "published"
	// HomeworkStatusClosed indicates no further attempts may be started.
	HomeworkStatusClosed = "closed"
)

// HomeworkAttachment describes one uploaded file attached to a homework.
type HomeworkAttachment struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}

// IsDraft reports whether the homework is still mutable.
func (h Homework) IsDraft() bool {
	return h.Status == HomeworkStatusDraft
}

// IsPublished reports whether students may currently work on the homework.
func (h Homework) IsPublished() bool {
	return h.Status == HomeworkStatusPublished
}

// IsClosed reports whether the homework stopped accepting new attempts.
func (h Homework) IsClosed() bool {
	return h.Status == HomeworkStatusClosed
}

// IsPastDue returns true when the reference time is after the deadline.
func (h Homework) IsPastDue(reference time.Time) bool {
	return reference.After(h.DueDate)
}

// GraceDeadline returns the last moment a submission is accepted without penalty.
func (h Homework) GraceDeadline() time.Time {
	return h.DueDate.Add(time.Duration(h.GracePeriodHours) * time.Hour)
}
