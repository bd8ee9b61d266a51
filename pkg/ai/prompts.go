package ai

import (
	"fmt"
	"strings"
)

func gradingSystemPrompt() string {
	return "You are an experienced teacher grading a student's answer to an open-ended question. " +
		"Respond with a JSON object containing score (0-1), confidence (0-1), feedback, and optionally " +
		"rubric_scores (object of criterion to 0-1), strengths (array) and improvements (array). " +
		"Grade against the rubric when one is given, otherwise against the question itself."
}

func buildGradingPrompt(input GradeInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Question\n")
	builder.WriteString(input.QuestionText)
	if input.Rubric != "" {
		builder.WriteString("\n\n## Grading Rubric\n")
		builder.WriteString(input.Rubric)
	}
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(input.AnswerText)
	if input.Language != "" {
		builder.WriteString("\n\n## Feedback Language\n")
		builder.WriteString(input.Language)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func generationSystemPrompt() string {
	return "You are a teacher writing homework questions about a source text. " +
		"Respond with a JSON object containing a questions array. Each question has type " +
		"(single_choice, multiple_choice, true_false, short_answer or open_ended), text, bloom_level, " +
		"and depending on type: options (array of {id, text, is_correct}), correct_answer, or grading_rubric. " +
		"Base every question strictly on the source text."
}

func buildGenerationPrompt(input GenerationInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Source Text\n")
	builder.WriteString(input.SourceText)
	builder.WriteString(fmt.Sprintf("\n\n## Question Count\n%d", input.QuestionCount))
	if len(input.AllowedTypes) > 0 {
		builder.WriteString("\n\n## Allowed Types\n")
		builder.WriteString(strings.Join(input.AllowedTypes, ", "))
	}
	if len(input.BloomLevels) > 0 {
		builder.WriteString("\n\n## Target Bloom Levels\n")
		builder.WriteString(strings.Join(input.BloomLevels, ", "))
	}
	if input.Language != "" {
		builder.WriteString("\n\n## Language\n")
		builder.WriteString(input.Language)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}
