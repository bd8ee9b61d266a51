package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const generationSchemaJSON = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"type": {"type": "string"},
					"text": {"type": "string"},
					"options": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"id": {"type": "string"},
								"text": {"type": "string"},
								"is_correct": {"type": "boolean"}
							}
						}
					},
					"correct_answer": {"type": "string"},
					"grading_rubric": {"type": "string"},
					"bloom_level": {"type": "string"},
					"points": {"type": "number"}
				}
			}
		}
	}
}`

var generationSchema = jsonschema.MustCompileString("generation.json", generationSchemaJSON)

var knownBloomLevels = map[string]struct{}{
	"remember":   {},
	"understand": {},
	"apply":      {},
	"analyze":    {},
	"evaluate":   {},
	"create":     {},
}

var knownQuestionTypes = map[string]struct{}{
	"single_choice":   {},
	"multiple_choice": {},
	"true_false":      {},
	"short_answer":    {},
	"open_ended":      {},
}

func parseGradeResponse(content string) (GradeResult, error) {
	var result GradeResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return GradeResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	result.Score = clampUnit(result.Score)
	result.Confidence = clampUnit(result.Confidence)
	return result, nil
}

func parseGenerationResponse(content string) ([]GeneratedQuestion, []DroppedItem, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := generationSchema.Validate(doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var payload struct {
		Questions []GeneratedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	questions := make([]GeneratedQuestion, 0, len(payload.Questions))
	var dropped []DroppedItem
	for i, question := range payload.Questions {
		normalized, err := normalizeGeneratedQuestion(question)
		if err != nil {
			dropped = append(dropped, DroppedItem{Index: i, Reason: err.Error()})
			continue
		}
		questions = append(questions, normalized)
	}

	if len(questions) == 0 {
		return nil, dropped, ErrEmptyBatch
	}

	return questions, dropped, nil
}

func normalizeGeneratedQuestion(q GeneratedQuestion) (GeneratedQuestion, error) {
	q.Type = strings.ToLower(strings.TrimSpace(q.Type))
	q.Text = strings.TrimSpace(q.Text)

	if q.Text == "" {
		return q, fmt.Errorf("question text is empty")
	}
	if _, ok := knownQuestionTypes[q.Type]; !ok {
		return q, fmt.Errorf("unknown question type %q", q.Type)
	}

	switch q.Type {
	case "single_choice", "multiple_choice", "true_false":
		if len(q.Options) < 2 {
			return q, fmt.Errorf("choice question needs at least 2 options, got %d", len(q.Options))
		}
		hasCorrect := false
		for i := range q.Options {
			if q.Options[i].ID == "" {
				q.Options[i].ID = fmt.Sprintf("%c", 'a'+i)
			}
			if q.Options[i].IsCorrect {
				hasCorrect = true
			}
		}
		if !hasCorrect {
			q.Options[0].IsCorrect = true
		}
	case "short_answer":
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return q, fmt.Errorf("short answer question has no correct answer")
		}
	}

	bloom := strings.ToLower(strings.TrimSpace(q.BloomLevel))
	if _, ok := knownBloomLevels[bloom]; !ok {
		bloom = "understand"
	}
	q.BloomLevel = bloom

	if q.Points <= 0 {
		q.Points = 1
	}

	return q, nil
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
