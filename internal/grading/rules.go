package grading

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ErrLateNotAllowed indicates the homework does not accept late submissions.
var ErrLateNotAllowed = errors.New("late submissions are not allowed for this homework")

// ErrTooLate indicates the late window has fully closed.
var ErrTooLate = errors.New("the submission window for this homework has closed")

// LatePolicy captures the late-submission rules of a homework.
type LatePolicy struct {
	Allowed          bool
	PenaltyPerDay    float64
	GracePeriodHours int
	MaxLateDays      int
}

// Lateness is the outcome of evaluating a submission time against a policy.
type Lateness struct {
	IsLate         bool
	PenaltyPercent float64
}

// EvaluateLateness decides whether a submission at the given time is accepted
// and which penalty applies.
//
// Submissions inside the grace window count as on time. Past the grace
// deadline, days late are rounded up; beyond MaxLateDays the submission is
// rejected with ErrTooLate. The penalty is capped at 100 percent.
func EvaluateLateness(policy LatePolicy, dueDate, at time.Time) (Lateness, error) {
	if !at.After(dueDate) {
		return Lateness{}, nil
	}

	if !policy.Allowed {
		return Lateness{}, ErrLateNotAllowed
	}

	graceDeadline := dueDate.Add(time.Duration(policy.GracePeriodHours) * time.Hour)
	if !at.After(graceDeadline) {
		return Lateness{}, nil
	}

	sinceGrace := at.Sub(graceDeadline)
	daysLate := int(math.Ceil(sinceGrace.Hours() / 24))
	if daysLate < 1 {
		daysLate = 1
	}

	if daysLate > policy.MaxLateDays {
		return Lateness{}, ErrTooLate
	}

	penalty := float64(daysLate) * policy.PenaltyPerDay
	if penalty > 100 {
		penalty = 100
	}

	return Lateness{IsLate: true, PenaltyPercent: penalty}, nil
}

// ApplyPenalty reduces a score by the given percentage.
func ApplyPenalty(score, penaltyPercent float64) float64 {
	if penaltyPercent <= 0 {
		return score
	}
	if penaltyPercent >= 100 {
		return 0
	}
	return score * (1 - penaltyPercent/100)
}

// GradeChoice checks a choice answer: the selected option id set must equal the
// correct option id set exactly. Subsets and supersets are wrong.
func GradeChoice(correctIDs, selectedIDs []string) bool {
	if len(selectedIDs) == 0 || len(correctIDs) == 0 {
		return false
	}

	correct := make(map[string]struct{}, len(correctIDs))
	for _, id := range correctIDs {
		correct[id] = struct{}{}
	}

	selected := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = struct{}{}
	}

	if len(correct) != len(selected) {
		return false
	}

	for id := range selected {
		if _, ok := correct[id]; !ok {
			return false
		}
	}

	return true
}

// GradeShortAnswer compares a free-text answer against the canonical one,
// ignoring surrounding whitespace and letter case.
func GradeShortAnswer(canonical, answer string) bool {
	canonical = strings.ToLower(strings.TrimSpace(canonical))
	answer = strings.ToLower(strings.TrimSpace(answer))
	if canonical == "" {
		return false
	}
	return canonical == answer
}
