package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// Config holds the connection settings for the chat completion endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// DefaultHTTPTimeout is the per-request timeout used when Config leaves it unset.
func DefaultHTTPTimeout() time.Duration {
	return 15 * time.Second
}

// Client sends JSON-mode chat completions.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts caps the number of requests per completion. Values
// below one mean a single attempt.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first retry delay and the ceiling.
func WithRetryBackoff(base, ceiling time.Duration) Option {
	return func(c *Client) {
		c.retry.base = base
		c.retry.ceiling = ceiling
	}
}

// WithSleeper swaps the function used to wait between attempts.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleep = sleep }
}

// NewClient builds a client from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}

	timeout := DefaultHTTPTimeout()
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: timeout},
		retry: defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Usage reports token consumption for one completion. Providers that omit
// usage leave it zero.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the text produced by the model plus its usage. Usage is the
// sum over every answered attempt, including empty answers that were retried;
// Attempts holds the per-attempt figures.
type Completion struct {
	Content  string
	Usage    Usage
	Attempts []Usage
}

func (u Usage) plus(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// CompleteJSON asks the model for a JSON object answering userPrompt under
// systemPrompt. Transient failures and empty answers are retried. On error the
// returned Completion still carries the usage of answered attempts.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return Completion{}, errors.New("llm: system prompt is empty")
	}
	if strings.TrimSpace(userPrompt) == "" {
		return Completion{}, errors.New("llm: user prompt is empty")
	}
	if c.cfg.APIKey == "" {
		return Completion{}, errors.New("llm: api key is not configured")
	}

	req := chatRequest{
		Model:          c.cfg.Model,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	var out Completion
	err := c.retry.do(ctx, func() error {
		completion, err := c.send(ctx, req)
		var empty *emptyContentError
		switch {
		case errors.As(err, &empty):
			out.Attempts = append(out.Attempts, empty.usage)
			out.Usage = out.Usage.plus(empty.usage)
			return err
		case err != nil:
			return err
		}
		out.Content = completion.Content
		out.Attempts = append(out.Attempts, completion.Usage)
		out.Usage = out.Usage.plus(completion.Usage)
		return nil
	})
	return out, err
}

// HealthCheck sends a one-shot prompt to confirm the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.CompleteJSON(ctx,
		"Reply with a JSON object.",
		`Return {"ok": true}.`)
	return err
}
