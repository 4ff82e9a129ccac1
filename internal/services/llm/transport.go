package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatChoice struct {
	FinishReason string `json:"finish_reason"`
	Text         string `json:"text"`
	Message      struct {
		Content string `json:"content"`
		Refusal string `json:"refusal"`
	} `json:"message"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// content picks the first non-empty text field a provider filled in.
func (ch chatChoice) content() string {
	for _, s := range []string{ch.Message.Content, ch.Delta.Content, ch.Text} {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.code, e.body)
}

// StatusCode reports the HTTP status carried by err, if the request reached
// the service and got a non-2xx answer.
func StatusCode(err error) (int, bool) {
	var se *statusError
	if errors.As(err, &se) {
		return se.code, true
	}
	return 0, false
}

type emptyContentError struct {
	usage        Usage
	finishReason string
	refusal      string
	snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("llm request: empty content (finish_reason=%q refusal=%q response_snippet=%q)",
		e.finishReason, e.refusal, e.snippet)
}

func (c *Client) send(ctx context.Context, payload chatRequest) (Completion, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Completion{}, fmt.Errorf("llm request: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("llm request: build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Completion{}, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Completion{}, &statusError{
			code:       resp.StatusCode,
			body:       snippet(raw, 512),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Completion{}, fmt.Errorf("llm request: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Completion{}, &emptyContentError{usage: decoded.Usage, snippet: snippet(raw, 256)}
	}
	choice := decoded.Choices[0]
	text := choice.content()
	if text == "" {
		return Completion{}, &emptyContentError{
			usage:        decoded.Usage,
			finishReason: choice.FinishReason,
			refusal:      choice.Message.Refusal,
			snippet:      snippet(raw, 256),
		}
	}
	return Completion{Content: text, Usage: decoded.Usage}, nil
}

func snippet(raw []byte, limit int) string {
	s := strings.Join(strings.Fields(string(raw)), " ")
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
