package dto

import (
	"github.com/noah-isme/skola-go-api/internal/models"
)

// QuestionOptionPayload is one option of a choice question in a request.
type QuestionOptionPayload struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionCreateRequest is the payload for adding or replacing a question.
type QuestionCreateRequest struct {
	Type          string                  `json:"type" validate:"required,oneof=single_choice multiple_choice true_false short_answer open_ended"`
	Text          string                  `json:"text" validate:"required"`
	Options       []QuestionOptionPayload `json:"options" validate:"dive"`
	CorrectAnswer string                  `json:"correct_answer"`
	GradingRubric string                  `json:"grading_rubric"`
	Points        float64                 `json:"points" validate:"gte=0"`
	BloomLevel    string                  `json:"bloom_level"`
}

// QuestionBatchRequest adds several questions preserving input order.
type QuestionBatchRequest struct {
	Questions []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// GenerateQuestionsRequest asks the AI to produce questions for a task.
type GenerateQuestionsRequest struct {
	QuestionCount int      `json:"question_count" validate:"required,min=1,max=20"`
	AllowedTypes  []string `json:"allowed_types" validate:"dive,oneof=single_choice multiple_choice true_false short_answer open_ended"`
	BloomLevels   []string `json:"bloom_levels"`
	Language      string   `json:"language"`
	// StudentID enables difficulty personalization from mastery status.
	StudentID *uint `json:"student_id"`
	// Replace deactivates the task's current question set first.
	Replace bool `json:"replace"`
}

// QuestionResponse is the API representation of one question version.
type QuestionResponse struct {
	ID            uint                    `json:"id"`
	TaskID        uint                    `json:"task_id"`
	Type          string                  `json:"type"`
	Text          string                  `json:"text"`
	Options       []models.QuestionOption `json:"options,omitempty"`
	CorrectAnswer string                  `json:"correct_answer,omitempty"`
	GradingRubric string                  `json:"grading_rubric,omitempty"`
	Points        float64                 `json:"points"`
	BloomLevel    string                  `json:"bloom_level,omitempty"`
	SortOrder     int                     `json:"sort_order"`
	Version       int                     `json:"version"`
	IsActive      bool                    `json:"is_active"`
	AIGenerated   bool                    `json:"ai_generated"`
}

// GenerationResponse reports the outcome of AI question generation.
type GenerationResponse struct {
	TaskID    uint               `json:"task_id"`
	Questions []QuestionResponse `json:"questions"`
	Dropped   int                `json:"dropped"`
}

// NewQuestionResponse converts a question model into its API representation.
func NewQuestionResponse(question models.HomeworkTaskQuestion) QuestionResponse {
	response := QuestionResponse{
		ID:            question.ID,
		TaskID:        question.HomeworkTaskID,
		Type:          question.Type,
		Text:          question.Text,
		CorrectAnswer: question.CorrectAnswer,
		GradingRubric: question.GradingRubric,
		Points:        question.Points,
		BloomLevel:    question.BloomLevel,
		SortOrder:     question.SortOrder,
		Version:       question.Version,
		IsActive:      question.IsActive,
		AIGenerated:   question.AIGenerated,
	}

	if options, err := question.DecodeOptions(); err == nil {
		response.Options = options
	}

	return response
}

// NewQuestionResponseSlice converts a list of question models.
func NewQuestionResponseSlice(questions []models.HomeworkTaskQuestion) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewQuestionResponse(question))
	}
	return responses
}
