package llm

// ChatCompletionSchema is the minimal shape a chat/completions response must
// have for its first choice's message content to be read.
func ChatCompletionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"choices": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"message": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"content": map[string]any{"type": "string"},
							},
							"required": []string{"content"},
						},
					},
					"required": []string{"message"},
				},
			},
		},
		"required": []string{"choices"},
	}
}
