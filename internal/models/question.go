package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// HomeworkTaskQuestion is a single versioned question belonging to a task.
//
// Editing never mutates a row in place: the old version is deactivated and a
// new row with version+1 is inserted, so answers graded against an old version
// keep resolving to the content they were graded against.
type HomeworkTaskQuestion struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	HomeworkTaskID uint   `gorm:"not null;index" json:"homework_task_id"`
	Type           string `gorm:"size:32;not null" json:"type"`
	Text           string `gorm:"type:text;not null" json:"text"`

	Options       datatypes.JSON `json:"options"`
	CorrectAnswer string         `gorm:"type:text" json:"correct_answer"`
	GradingRubric string         `gorm:"type:text" json:"grading_rubric"`

	Points     float64 `gorm:"not null;default:1" json:"points"`
	BloomLevel string  `gorm:"size:32" json:"bloom_level"`
	SortOrder  int     `gorm:"not null;default:0" json:"sort_order"`

	Version      int   `gorm:"not null;default:1" json:"version"`
	IsActive     bool  `gorm:"not null;default:true;index" json:"is_active"`
	ReplacedByID *uint `json:"replaced_by_id"`

	AIGenerated bool `gorm:"not null;default:false" json:"ai_generated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// QuestionTypeSingleChoice expects exactly one selected option.
	QuestionTypeSingleChoice = "single_choice"
	// QuestionTypeMultipleChoice expects a set of selected options.
	QuestionTypeMultipleChoice = "multiple_choice"
	// QuestionTypeTrueFalse is a two-option choice question.
	QuestionTypeTrueFalse = "true_false"
	// QuestionTypeShortAnswer is compared against a canonical answer string.
	QuestionTypeShortAnswer = "short_answer"
	// QuestionTypeOpenEnded is graded by AI or by a teacher.
	QuestionTypeOpenEnded = "open_ended"
)

// QuestionOption is one selectable option of a choice question.
type QuestionOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// IsChoiceType reports whether the question is answered by selecting options.
func IsChoiceType(questionType string) bool {
	switch questionType {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		return true
	}
	return false
}

// IsValidQuestionType reports whether the given question type is supported.
func IsValidQuestionType(questionType string) bool {
	switch questionType {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeTrueFalse,
		QuestionTypeShortAnswer, QuestionTypeOpenEnded:
		return true
	}
	return false
}

// DecodeOptions unmarshals the stored option list.
func (q HomeworkTaskQuestion) DecodeOptions() ([]QuestionOption, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var options []QuestionOption
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// EncodeOptions marshals an option list into the JSON column representation.
func EncodeOptions(options []QuestionOption) (datatypes.JSON, error) {
	if len(options) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// CorrectOptionIDs returns the ids of every option flagged correct.
func (q HomeworkTaskQuestion) CorrectOptionIDs() ([]string, error) {
	options, err := q.DecodeOptions()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(options))
	for _, option := range options {
		if option.IsCorrect {
			ids = append(ids, option.ID)
		}
	}
	return ids, nil
}
