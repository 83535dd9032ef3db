package interpret

import "github.com/abhisek/hooptriage/internal/llm"

// confidenceValue accepts a number or a numeric string such as "85%".
var confidenceValue = map[string]any{
	"type": []any{"number", "string"},
}

var stringList = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

// QuestionSchema is the shape of one interview question.
var QuestionSchema = &llm.Schema{
	Name:        "interview-question",
	Description: "A single follow-up question about the injury",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []any{"subjective", "objective", "scale", "choice", "multiple", "text"},
			},
			"question": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"options": map[string]any{
				"type":  []any{"array", "string", "null"},
				"items": map[string]any{"type": "string"},
			},
			"scale": map[string]any{
				"type": []any{"string", "array", "object", "null"},
			},
		},
		"required": []any{"type", "question"},
	},
}

// DiagnosisSchema is the compact diagnosis shape with parallel arrays.
var DiagnosisSchema = &llm.Schema{
	Name:        "interview-diagnosis",
	Description: "Final diagnosis as parallel lists of injuries and confidences",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{"const": "diagnosis"},
			"injuries": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string", "minLength": 1},
			},
			"confidence": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    confidenceValue,
			},
			"severity": stringList,
			"recommendations": map[string]any{
				"type":  "array",
				"items": stringList,
			},
		},
		"required": []any{"injuries", "confidence"},
	},
}

// AnalysisSchema is the detailed diagnosis shape: a list of condition
// objects.
var AnalysisSchema = &llm.Schema{
	Name:        "injury-analysis",
	Description: "Possible conditions with confidence, severity and advice",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"possible_conditions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":            map[string]any{"type": "string", "minLength": 1},
						"confidence":      confidenceValue,
						"description":     map[string]any{"type": "string"},
						"severity":        map[string]any{"type": "string"},
						"recommendations": stringList,
					},
					"required": []any{"name", "confidence"},
				},
			},
		},
		"required": []any{"possible_conditions"},
	},
}

// QuestionBatchSchema is the fixed-questionnaire shape: a list of questions.
var QuestionBatchSchema = &llm.Schema{
	Name:        "question-batch",
	Description: "An ordered list of screening questions",
	Definition: map[string]any{
		"type":     "array",
		"minItems": 1,
		"items":    QuestionSchema.Definition,
	},
}
