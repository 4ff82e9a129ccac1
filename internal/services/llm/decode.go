package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeLLMJSON unmarshals a model answer into v. Markdown code fences and
// prose around the outermost object are ignored.
func DecodeLLMJSON(content string, v any) error {
	text := unfence(strings.TrimSpace(content))
	if text == "" {
		return errors.New("llm response is empty")
	}
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("llm response is not json: %q", snippet([]byte(text), 120))
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("decode llm json: %w", err)
	}
	return nil
}

// unfence returns the body of a ``` block, or text unchanged.
func unfence(text string) string {
	open := strings.Index(text, "```")
	if open < 0 {
		return text
	}
	rest := text[open+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
