package models

import (
	"time"

	"gorm.io/datatypes"
)

// HomeworkTask is one unit of work inside a homework.
type HomeworkTask struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	HomeworkID   uint    `gorm:"not null;index" json:"homework_id"`
	Type         string  `gorm:"size:32;not null" json:"type"`
	Title        string  `gorm:"size:255" json:"title"`
	Instructions string  `gorm:"type:text" json:"instructions"`
	SortOrder    int     `gorm:"not null;default:0" json:"sort_order"`
	MaxAttempts  int     `gorm:"not null;default:1" json:"max_attempts"`
	Points       float64 `gorm:"not null;default:0" json:"points"`
	ParagraphID  *uint   `json:"paragraph_id"`

	GenerationParams datatypes.JSON `json:"generation_params"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []HomeworkTaskQuestion `gorm:"foreignKey:HomeworkTaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

const (
	// TaskTypeRead asks the student to study a paragraph, optionally with questions.
	TaskTypeRead = "read"
	// TaskTypeQuiz is a set of auto-gradable questions.
	TaskTypeQuiz = "quiz"
	// TaskTypeOpenQuestion holds one or more open-ended questions.
	TaskTypeOpenQuestion = "open_question"
	// TaskTypePractice is exercise practice backed by questions.
	TaskTypePractice = "practice"
	// TaskTypeCode is a programming exercise expressed as questions.
	TaskTypeCode = "code"
	// TaskTypeEssay expects long-form writing, from questions or free instructions.
	TaskTypeEssay = "essay"
)

// TaskTypes lists every supported task type.
func TaskTypes() []string {
	return []string{TaskTypeRead, TaskTypeQuiz, TaskTypeOpenQuestion, TaskTypePractice, TaskTypeCode, TaskTypeEssay}
}

// IsValidTaskType reports whether the given type is supported.
func IsValidTaskType(taskType string) bool {
	for _, t := range TaskTypes() {
		if t == taskType {
			return true
		}
	}
	return false
}

// ActiveQuestions returns only the currently active question versions.
func (t HomeworkTask) ActiveQuestions() []HomeworkTaskQuestion {
	active := make([]HomeworkTaskQuestion, 0, len(t.Questions))
	for _, q := range t.Questions {
		if q.IsActive {
			active = append(active, q)
		}
	}
	return active
}
