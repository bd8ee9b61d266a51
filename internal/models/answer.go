package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// StudentTaskAnswer is one answer to one question within a submission.
// Unique per (submission, question); resubmitting overwrites in place, the
// submission itself is the unit of history.
type StudentTaskAnswer struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	SubmissionID uint `gorm:"not null;uniqueIndex:idx_submission_question" json:"submission_id"`
	QuestionID   uint `gorm:"not null;uniqueIndex:idx_submission_question" json:"question_id"`

	SelectedOptionIDs datatypes.JSON `json:"selected_option_ids"`
	AnswerText        string         `gorm:"type:text" json:"answer_text"`

	IsCorrect    *bool   `json:"is_correct"`
	PartialScore float64 `gorm:"not null;default:0" json:"partial_score"`

	AIScore        *float64          `json:"ai_score"`
	AIConfidence   *float64          `json:"ai_confidence"`
	AIFeedback     string            `gorm:"type:text" json:"ai_feedback"`
	AIRubricScores datatypes.JSONMap `json:"ai_rubric_scores"`

	FlaggedForReview bool `gorm:"not null;default:false;index" json:"flagged_for_review"`

	TeacherOverrideScore *float64 `json:"teacher_override_score"`
	TeacherComment       string   `gorm:"type:text" json:"teacher_comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Submission StudentTaskSubmission `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission,omitempty"`
	Question   HomeworkTaskQuestion  `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"question,omitempty"`
}

// DecodeSelectedOptionIDs unmarshals the stored option id list.
func (a StudentTaskAnswer) DecodeSelectedOptionIDs() ([]string, error) {
	if len(a.SelectedOptionIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(a.SelectedOptionIDs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// EncodeOptionIDs marshals an option id list into the JSON column representation.
func EncodeOptionIDs(ids []string) (datatypes.JSON, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// EffectiveScore returns the teacher override when present, the graded partial
// score otherwise.
func (a StudentTaskAnswer) EffectiveScore() float64 {
	if a.TeacherOverrideScore != nil {
		return *a.TeacherOverrideScore
	}
	return a.PartialScore
}
