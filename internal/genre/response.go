package genre

import (
	"encoding/json"
	"fmt"

	"backlog/internal/services/llm"
)

// parseResponse decodes {"genres": {...}} or a flat {title: label} object.
// Non-string values are dropped.
func parseResponse(content string) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := llm.DecodeLLMJSON(content, &raw); err != nil {
		return nil, fmt.Errorf("decode genre map: %w", err)
	}

	if nested, ok := raw["genres"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			raw = inner
		}
	}

	out := make(map[string]string, len(raw))
	for title, value := range raw {
		var label string
		if err := json.Unmarshal(value, &label); err != nil {
			continue
		}
		out[title] = label
	}
	return out, nil
}
