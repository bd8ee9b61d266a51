package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// HomeworkCreateRequest is the payload for creating a homework draft.
type HomeworkCreateRequest struct {
	ClassID     uint   `json:"class_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" validate:"required"`

	LateSubmissionAllowed bool    `json:"late_submission_allowed"`
	LatePenaltyPerDay     float64 `json:"late_penalty_per_day" validate:"gte=0,lte=100"`
	GracePeriodHours      int     `json:"grace_period_hours" validate:"gte=0"`
	MaxLateDays           int     `json:"max_late_days" validate:"gte=0"`

	AIGenerationEnabled bool `json:"ai_generation_enabled"`
	AICheckEnabled      bool `json:"ai_check_enabled"`
}

// HomeworkUpdateRequest is the partial update payload for a draft homework.
type HomeworkUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`

	LateSubmissionAllowed *bool    `json:"late_submission_allowed"`
	LatePenaltyPerDay     *float64 `json:"late_penalty_per_day" validate:"omitempty,gte=0,lte=100"`
	GracePeriodHours      *int     `json:"grace_period_hours" validate:"omitempty,gte=0"`
	MaxLateDays           *int     `json:"max_late_days" validate:"omitempty,gte=0"`

	AIGenerationEnabled *bool `json:"ai_generation_enabled"`
	AICheckEnabled      *bool `json:"ai_check_enabled"`
}

// TaskCreateRequest is the payload for adding a task to a draft homework.
type TaskCreateRequest struct {
	Type         string  `json:"type" validate:"required,oneof=read quiz open_question practice code essay"`
	Title        string  `json:"title" validate:"max=255"`
	Instructions string  `json:"instructions"`
	MaxAttempts  int     `json:"max_attempts" validate:"required,min=1,max=10"`
	Points       float64 `json:"points" validate:"gte=0"`
	ParagraphID  *uint   `json:"paragraph_id"`
}

// PublishRequest optionally narrows the publish fan-out to specific students.
type PublishRequest struct {
	StudentIDs []uint `json:"student_ids"`
}

// HomeworkResponse is the API representation of a homework.
type HomeworkResponse struct {
	ID          uint      `json:"id"`
	ClassID     uint      `json:"class_id"`
	TeacherID   uint      `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`

	LateSubmissionAllowed bool    `json:"late_submission_allowed"`
	LatePenaltyPerDay     float64 `json:"late_penalty_per_day"`
	GracePeriodHours      int     `json:"grace_period_hours"`
	MaxLateDays           int     `json:"max_late_days"`

	AIGenerationEnabled bool `json:"ai_generation_enabled"`
	AICheckEnabled      bool `json:"ai_check_enabled"`

	Attachments []models.HomeworkAttachment `json:"attachments,omitempty"`
	Tasks       []TaskResponse              `json:"tasks,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskResponse is the API representation of a homework task.
type TaskResponse struct {
	ID           uint               `json:"id"`
	HomeworkID   uint               `json:"homework_id"`
	Type         string             `json:"type"`
	Title        string             `json:"title"`
	Instructions string             `json:"instructions"`
	SortOrder    int                `json:"sort_order"`
	MaxAttempts  int                `json:"max_attempts"`
	Points       float64            `json:"points"`
	ParagraphID  *uint              `json:"paragraph_id,omitempty"`
	Questions    []QuestionResponse `json:"questions,omitempty"`
}

// PublishResponse summarises a publish fan-out.
type PublishResponse struct {
	HomeworkID       uint `json:"homework_id"`
	StudentsAssigned int  `json:"students_assigned"`
}

// NewHomeworkResponse converts a model into its API representation.
func NewHomeworkResponse(homework models.Homework) HomeworkResponse {
	response := HomeworkResponse{
		ID:                    homework.ID,
		ClassID:               homework.ClassID,
		TeacherID:             homework.TeacherID,
		Title:                 homework.Title,
		Description:           homework.Description,
		DueDate:               homework.DueDate,
		Status:                homework.Status,
		LateSubmissionAllowed: homework.LateSubmissionAllowed,
		LatePenaltyPerDay:     homework.LatePenaltyPerDay,
		GracePeriodHours:      homework.GracePeriodHours,
		MaxLateDays:           homework.MaxLateDays,
		AIGenerationEnabled:   homework.AIGenerationEnabled,
		AICheckEnabled:        homework.AICheckEnabled,
		CreatedAt:             homework.CreatedAt,
		UpdatedAt:             homework.UpdatedAt,
	}

	if len(homework.Attachments) > 0 {
		var attachments []models.HomeworkAttachment
		if err := json.Unmarshal(homework.Attachments, &attachments); err == nil {
			response.Attachments = attachments
		}
	}

	for _, task := range homework.Tasks {
		response.Tasks = append(response.Tasks, NewTaskResponse(task))
	}

	return response
}

// NewTaskResponse converts a task model into its API representation.
func NewTaskResponse(task models.HomeworkTask) TaskResponse {
	response := TaskResponse{
		ID:           task.ID,
		HomeworkID:   task.HomeworkID,
		Type:         task.Type,
		Title:        task.Title,
		Instructions: task.Instructions,
		SortOrder:    task.SortOrder,
		MaxAttempts:  task.MaxAttempts,
		Points:       task.Points,
		ParagraphID:  task.ParagraphID,
	}

	for _, question := range task.Questions {
		if !question.IsActive {
			continue
		}
		response.Questions = append(response.Questions, NewQuestionResponse(question))
	}

	return response
}
