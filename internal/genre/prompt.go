package genre

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPromptTemplate = `You classify video games by genre.

Choose exactly one genre for each game from this list and use the label exactly as written:
%s

Respond with JSON only, in this shape:
{"genres": {"<title>": "<genre>"}}

Use each title exactly as given in the request. If you do not recognise a game, leave it out instead of guessing.`

type promptItem struct {
	Title    string `json:"title"`
	Platform string `json:"platform,omitempty"`
}

func buildSystemPrompt(labels *Labels) string {
	lines := make([]string, 0, labels.Len())
	for _, label := range labels.List() {
		lines = append(lines, "- "+label)
	}
	return fmt.Sprintf(systemPromptTemplate, strings.Join(lines, "\n"))
}

func buildUserPrompt(items []promptItem) (string, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode classification request: %w", err)
	}
	return string(encoded), nil
}
