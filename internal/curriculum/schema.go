package curriculum

// packSchema is the JSON Schema every content pack must satisfy before it is
// decoded into a Catalog.
var packSchema = map[string]any{
	"type":     "object",
	"required": []any{"version", "course", "days", "quizzes"},
	"properties": map[string]any{
		"version": map[string]any{
			"type":    "string",
			"pattern": `^v[0-9]+\.[0-9]+\.[0-9]+$`,
		},
		"course": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"days": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "sections"},
				"properties": map[string]any{
					"id":    map[string]any{"type": "string", "minLength": 1},
					"title": map[string]any{"type": "string"},
					"sections": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items": map[string]any{
							"type":     "object",
							"required": []any{"id", "title"},
							"properties": map[string]any{
								"id":      map[string]any{"type": "string", "minLength": 1},
								"title":   map[string]any{"type": "string", "minLength": 1},
								"content": map[string]any{"type": "string"},
								"quiz_id": map[string]any{"type": "string"},
							},
							"additionalProperties": false,
						},
					},
				},
				"additionalProperties": false,
			},
		},
		"quizzes": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"prompt", "options", "answer"},
					"properties": map[string]any{
						"prompt": map[string]any{"type": "string", "minLength": 1},
						"options": map[string]any{
							"type":     "array",
							"minItems": 2,
							"items":    map[string]any{"type": "string"},
						},
						"answer": map[string]any{"type": "integer", "minimum": 0},
					},
					"additionalProperties": false,
				},
			},
		},
		"surveys": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":     "object",
				"required": []any{"title", "questions"},
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
					"questions": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []any{"id", "prompt", "options"},
							"properties": map[string]any{
								"id":      map[string]any{"type": "string"},
								"prompt":  map[string]any{"type": "string"},
								"options": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							},
						},
					},
				},
			},
		},
	},
	"additionalProperties": false,
}
