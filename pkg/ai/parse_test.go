package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGradeResponseClampsScores(t *testing.T) {
	result, err := parseGradeResponse(`{"score": 1.4, "confidence": -0.2, "feedback": "solid work"}`)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.Score)
	require.Equal(t, 0.0, result.Confidence)
	require.Equal(t, "solid work", result.Feedback)
}

func TestParseGradeResponseMalformed(t *testing.T) {
	_, err := parseGradeResponse(`grade: excellent`)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseGenerationResponseDropsInvalidItems(t *testing.T) {
	content := `{"questions": [
		{"type": "single_choice", "text": "Capital of France?", "options": [
			{"id": "a", "text": "Paris", "is_correct": true},
			{"id": "b", "text": "Lyon"}
		], "bloom_level": "remember"},
		{"type": "single_choice", "text": "", "options": []},
		{"type": "telepathy", "text": "Guess my number"},
		{"type": "short_answer", "text": "2+2?", "correct_answer": "4", "bloom_level": "galactic"}
	]}`

	questions, dropped, err := parseGenerationResponse(content)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Len(t, dropped, 2)
	require.Equal(t, "remember", questions[0].BloomLevel)
	// Unknown bloom level falls back to understand.
	require.Equal(t, "understand", questions[1].BloomLevel)
	require.Equal(t, 1.0, questions[0].Points)
}

func TestParseGenerationResponseAutoPromotesFirstOption(t *testing.T) {
	content := `{"questions": [
		{"type": "multiple_choice", "text": "Pick primes", "options": [
			{"id": "a", "text": "2"},
			{"id": "b", "text": "4"}
		]}
	]}`

	questions, dropped, err := parseGenerationResponse(content)
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.True(t, questions[0].Options[0].IsCorrect)
}

func TestParseGenerationResponseEmptyBatch(t *testing.T) {
	content := `{"questions": [
		{"type": "single_choice", "text": "One option only", "options": [{"id": "a", "text": "x"}]}
	]}`

	_, dropped, err := parseGenerationResponse(content)
	require.ErrorIs(t, err, ErrEmptyBatch)
	require.Len(t, dropped, 1)
}

func TestParseGenerationResponseMalformedEnvelope(t *testing.T) {
	_, _, err := parseGenerationResponse(`{"items": []}`)
	require.ErrorIs(t, err, ErrMalformedResponse)

	_, _, err = parseGenerationResponse(`not json at all`)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseGenerationResponseAssignsMissingOptionIDs(t *testing.T) {
	content := `{"questions": [
		{"type": "true_false", "text": "The sky is blue.", "options": [
			{"text": "True", "is_correct": true},
			{"text": "False"}
		]}
	]}`

	questions, _, err := parseGenerationResponse(content)
	require.NoError(t, err)
	require.Equal(t, "a", questions[0].Options[0].ID)
	require.Equal(t, "b", questions[0].Options[1].ID)
}
