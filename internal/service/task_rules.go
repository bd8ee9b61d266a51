package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/skola-go-api/internal/models"
)

// taskContentRule checks whether a task carries enough content to be
// published. One rule per task type; adding a type means adding one entry.
type taskContentRule func(task models.HomeworkTask, activeQuestions int) error

var taskContentRules = map[string]taskContentRule{
	models.TaskTypeRead: func(task models.HomeworkTask, activeQuestions int) error {
		if task.ParagraphID == nil && activeQuestions == 0 {
			return fmt.Errorf("read task needs a paragraph or at least one question")
		}
		return nil
	},
	models.TaskTypeQuiz:         requireQuestions("quiz"),
	models.TaskTypeOpenQuestion: requireQuestions("open question"),
	models.TaskTypePractice:     requireQuestions("practice"),
	models.TaskTypeCode:         requireQuestions("code"),
	models.TaskTypeEssay: func(task models.HomeworkTask, activeQuestions int) error {
		if activeQuestions == 0 && strings.TrimSpace(task.Instructions) == "" {
			return fmt.Errorf("essay task needs questions or free-text instructions")
		}
		return nil
	},
}

func requireQuestions(label string) taskContentRule {
	return func(task models.HomeworkTask, activeQuestions int) error {
		if activeQuestions == 0 {
			return fmt.Errorf("%s task needs at least one active question", label)
		}
		return nil
	}
}

// validateTaskContent applies the per-type rule to one task.
func validateTaskContent(task models.HomeworkTask) error {
	rule, ok := taskContentRules[task.Type]
	if !ok {
		return fmt.Errorf("unknown task type %q", task.Type)
	}
	return rule(task, len(task.ActiveQuestions()))
}

// TaskContentIssue describes one task that failed publish validation.
type TaskContentIssue struct {
	TaskID uint   `json:"task_id"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// TaskContentError reports every offending task, not just the first.
type TaskContentError struct {
	Issues []TaskContentIssue
}

// Error implements the error interface.
func (e *TaskContentError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("task %d (%s): %s", issue.TaskID, issue.Type, issue.Reason))
	}
	return "homework has tasks with insufficient content: " + strings.Join(parts, "; ")
}
