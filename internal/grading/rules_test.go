package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvaluateLatenessOnTime(t *testing.T) {
	due := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	policy := LatePolicy{Allowed: true, PenaltyPerDay: 10, GracePeriodHours: 24, MaxLateDays: 5}

	result, err := EvaluateLateness(policy, due, due.Add(-time.Minute))
	require.NoError(t, err)
	require.False(t, result.IsLate)
	require.Zero(t, result.PenaltyPercent)

	// Exactly at the deadline still counts as on time.
	result, err = EvaluateLateness(policy, due, due)
	require.NoError(t, err)
	require.False(t, result.IsLate)
}

func TestEvaluateLatenessGraceWindow(t *testing.T) {
	due := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	policy := LatePolicy{Allowed: true, PenaltyPerDay: 10, GracePeriodHours: 24, MaxLateDays: 5}

	result, err := EvaluateLateness(policy, due, due.Add(23*time.Hour))
	require.NoError(t, err)
	require.False(t, result.IsLate)
	require.Zero(t, result.PenaltyPercent)
}

func TestEvaluateLatenessFirstDayPenalty(t *testing.T) {
	due := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	policy := LatePolicy{Allowed: true, PenaltyPerDay: 10, GracePeriodHours: 24, MaxLateDays: 5}

	result, err := EvaluateLateness(policy, due, due.Add(25*time.Hour))
	require.NoError(t, err)
	require.True(t, result.IsLate)
	require.Equal(t, 10.0, result.PenaltyPercent)
}

func TestEvaluateLatenessBeyondMaxDays(t *testing.T) {
	due := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	policy := LatePolicy{Allowed: true, PenaltyPerDay: 10, GracePeriodHours: 24, MaxLateDays: 5}

	graceDeadline := due.Add(24 * time.Hour)
	_, err := EvaluateLateness(policy, due, graceDeadline.Add(6*24*time.Hour))
	require.ErrorIs(t, err, ErrTooLate)
}

func TestEvaluateLatenessNotAllowed(t *testing.T) {
	due := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	policy := LatePolicy{Allowed: false}

	_, err := EvaluateLateness(policy, due, due.Add(time.Minute))
	require.ErrorIs(t, err, ErrLateNotAllowed)
}

func TestEvaluateLatenessPenaltyCap(t *testing.T) {
	due := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	policy := LatePolicy{Allowed: true, PenaltyPerDay: 50, GracePeriodHours: 0, MaxLateDays: 3}

	result, err := EvaluateLateness(policy, due, due.Add(3*24*time.Hour))
	require.NoError(t, err)
	require.True(t, result.IsLate)
	require.Equal(t, 100.0, result.PenaltyPercent)
}

func TestApplyPenalty(t *testing.T) {
	require.Equal(t, 9.0, ApplyPenalty(10, 10))
	require.Equal(t, 10.0, ApplyPenalty(10, 0))
	require.Equal(t, 0.0, ApplyPenalty(10, 100))
	require.Equal(t, 0.0, ApplyPenalty(10, 150))
}

func TestGradeChoiceExactness(t *testing.T) {
	correct := []string{"a", "c"}

	cases := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"exact match", []string{"a", "c"}, true},
		{"exact match reordered", []string{"c", "a"}, true},
		{"subset", []string{"a"}, false},
		{"superset", []string{"a", "b", "c"}, false},
		{"empty", nil, false},
		{"disjoint", []string{"b", "d"}, false},
		{"duplicate selection", []string{"a", "a", "c"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, GradeChoice(correct, tc.selected))
		})
	}
}

func TestGradeShortAnswer(t *testing.T) {
	require.True(t, GradeShortAnswer("Photosynthesis", "  photosynthesis "))
	require.True(t, GradeShortAnswer(" 42 ", "42"))
	require.False(t, GradeShortAnswer("mitochondria", "chloroplast"))
	require.False(t, GradeShortAnswer("", ""))
}
