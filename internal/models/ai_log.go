package models

import (
	"time"

	"gorm.io/datatypes"
)

// AIGenerationLog is an append-only audit row of one LLM call. Rows are never
// mutated after insert; they exist for debugging and cost accounting.
type AIGenerationLog struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	RequestID string `gorm:"size:36;index" json:"request_id"`
	SchoolID  uint   `gorm:"index" json:"school_id"`
	Kind      string `gorm:"size:32;not null" json:"kind"`

	Prompt   string            `gorm:"type:text" json:"prompt"`
	Response datatypes.JSONMap `json:"response"`
	Error    string            `gorm:"type:text" json:"error"`

	Model            string `gorm:"size:64" json:"model"`
	PromptTokens     int    `gorm:"not null;default:0" json:"prompt_tokens"`
	CompletionTokens int    `gorm:"not null;default:0" json:"completion_tokens"`
	LatencyMs        int64  `gorm:"not null;default:0" json:"latency_ms"`
	Success          bool   `gorm:"not null;default:false" json:"success"`

	CreatedAt time.Time `json:"created_at"`
}

const (
	// AILogKindGrade records an open-ended grading call.
	AILogKindGrade = "grade"
	// AILogKindGenerate records a question generation call.
	AILogKindGenerate = "generate"
)
