package generator

import (
	"fmt"
	"strings"

	"github.com/yungbote/tpmaster/internal/generator/engine"
	"github.com/yungbote/tpmaster/internal/quiz"
)

const systemInstruction = `You are an expert exam setter for the OECD Transfer Pricing Guidelines 2022.

RULES:
1. All questions MUST be based strictly on the 2022 edition of the OECD TP Guidelines.
2. Do NOT ask questions about Annexes or Appendices. Strictly stick to the core Chapters.
3. Provide clear, distinct options.
4. Ensure the explanation cites the logic from the guidelines.`

const defaultGuidance = "Standard difficulty"

func buildMessages(req quiz.Request) []engine.Message {
	guidance := strings.TrimSpace(req.DifficultyHint)
	if guidance == "" {
		guidance = defaultGuidance
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a multiple-choice question for: %s.\n", strings.TrimSpace(req.Topic))
	fmt.Fprintf(&b, "Difficulty Level: %s.\n\n", req.Difficulty)
	fmt.Fprintf(&b, "Guidance for Difficulty: %s\n\n", guidance)
	b.WriteString("Output must be a valid JSON object.")

	return []engine.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: b.String()},
	}
}

// questionSchema mirrors quiz.Question's wire shape.
func questionSchema() *engine.JSONSchema {
	return &engine.JSONSchema{
		Name:   "quiz_question",
		Strict: true,
		Schema: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"questionText": map[string]any{
					"type":        "string",
					"description": "The question stem.",
				},
				"options": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"minItems":    quiz.OptionCount,
					"maxItems":    quiz.OptionCount,
					"description": "4 distinct options.",
				},
				"correctOptionIndex": map[string]any{
					"type":        "integer",
					"description": "Zero-based index of the correct option (0-3).",
				},
				"explanation": map[string]any{
					"type":        "string",
					"description": "Detailed explanation citing the logic from the 2022 Guidelines.",
				},
			},
			"required": []string{"questionText", "options", "correctOptionIndex", "explanation"},
		},
	}
}
