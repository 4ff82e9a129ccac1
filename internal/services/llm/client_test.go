package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// reply builds a chat completion body whose first choice carries choice.
func reply(choice map[string]any, usage map[string]any) map[string]any {
	body := map[string]any{"choices": []any{choice}}
	if usage != nil {
		body["usage"] = usage
	}
	return body
}

func message(content string) map[string]any {
	return map[string]any{"finish_reason": "stop", "message": map[string]any{"content": content}}
}

// scriptedServer answers the nth request with responses[n], repeating the
// last one. A response with an int "status" key is sent with that code.
func scriptedServer(t *testing.T, responses ...map[string]any) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		resp := responses[min(n, len(responses)-1)]
		if status, ok := resp["status"].(int); ok {
			if after, ok := resp["retry_after"].(string); ok {
				w.Header().Set("Retry-After", after)
			}
			w.WriteHeader(status)
			_, _ = fmt.Fprint(w, `{"error":"nope"}`)
			return
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testClient(url string, opts ...Option) *Client {
	opts = append([]Option{WithRetryBackoff(0, 0), WithSleeper(func(time.Duration) {})}, opts...)
	return NewClient(Config{APIKey: "test", BaseURL: url, Model: "demo-model"}, opts...)
}

func TestCompleteJSONRequestShapeAndUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "Backlog" {
			t.Errorf("X-Title = %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "https://example.test" {
			t.Errorf("HTTP-Referer = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "demo-model" || len(req.Messages) != 2 || req.ResponseFormat["type"] != "json_object" {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.Messages[0].Role != "system" || req.Messages[1].Content != "user prompt" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(reply(message(`{"genres":{}}`),
			map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}))
	}))
	defer srv.Close()

	client := NewClient(Config{
		APIKey:  " test ",
		BaseURL: srv.URL,
		Model:   "demo-model",
		Referer: "https://example.test",
		Title:   "Backlog",
	})
	got, err := client.CompleteJSON(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if got.Content != `{"genres":{}}` {
		t.Fatalf("Content = %q", got.Content)
	}
	if got.Usage != (Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150}) {
		t.Fatalf("Usage = %+v", got.Usage)
	}
}

func TestCompleteJSONContentSources(t *testing.T) {
	cases := map[string]map[string]any{
		"message":    message(`{"x":1}`),
		"delta":      {"delta": map[string]any{"content": `{"x":1}`}},
		"text":       {"finish_reason": "stop", "text": `{"x":1}`},
		"no usage":   message(" {\"x\":1}\n"),
		"whitespace": {"message": map[string]any{"content": "  "}, "text": `{"x":1}`},
	}
	for name, choice := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := scriptedServer(t, reply(choice, nil))
			got, err := testClient(srv.URL).CompleteJSON(context.Background(), "s", "u")
			if err != nil {
				t.Fatalf("CompleteJSON: %v", err)
			}
			if got.Content != `{"x":1}` {
				t.Fatalf("Content = %q", got.Content)
			}
			if got.Usage != (Usage{}) {
				t.Fatalf("expected zero usage, got %+v", got.Usage)
			}
		})
	}
}

func TestCompleteJSONRejectsMissingInputs(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	ctx := context.Background()
	if _, err := client.CompleteJSON(ctx, "", "user"); err == nil {
		t.Fatal("expected error for empty system prompt")
	}
	if _, err := client.CompleteJSON(ctx, "system", " "); err == nil {
		t.Fatal("expected error for empty user prompt")
	}
	if _, err := client.CompleteJSON(ctx, "system", "user"); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestCompleteJSONRetries(t *testing.T) {
	tests := []struct {
		name      string
		responses []map[string]any
		attempts  int
		wantCalls int32
		wantErr   string
	}{
		{
			name:      "server error then success",
			responses: []map[string]any{{"status": 503}, reply(message(`{"ok":true}`), nil)},
			attempts:  3,
			wantCalls: 2,
		},
		{
			name:      "empty content until third try",
			responses: []map[string]any{reply(message(""), nil), reply(message(""), nil), reply(message(`{"ok":true}`), nil)},
			attempts:  5,
			wantCalls: 3,
		},
		{
			name:      "bad request is final",
			responses: []map[string]any{{"status": 400}},
			attempts:  5,
			wantCalls: 1,
			wantErr:   "http 400",
		},
		{
			name:      "empty content exhausts attempts",
			responses: []map[string]any{reply(message(""), nil)},
			attempts:  2,
			wantCalls: 2,
			wantErr:   "response_snippet=",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := scriptedServer(t, tt.responses...)
			_, err := testClient(srv.URL, WithRetryMaxAttempts(tt.attempts)).CompleteJSON(context.Background(), "s", "u")
			if tt.wantErr == "" && err != nil {
				t.Fatalf("CompleteJSON: %v", err)
			}
			if tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
			}
			if calls.Load() != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestCompleteJSONSumsUsageAcrossAttempts(t *testing.T) {
	billed := map[string]any{"prompt_tokens": 100, "completion_tokens": 10, "total_tokens": 110}
	want := Usage{PromptTokens: 200, CompletionTokens: 20, TotalTokens: 220}

	t.Run("empty then answered", func(t *testing.T) {
		srv, calls := scriptedServer(t, reply(message(""), billed), reply(message(`{"ok":true}`), billed))
		got, err := testClient(srv.URL).CompleteJSON(context.Background(), "s", "u")
		if err != nil {
			t.Fatalf("CompleteJSON: %v", err)
		}
		if calls.Load() != 2 || got.Usage != want || len(got.Attempts) != 2 {
			t.Fatalf("calls=%d usage=%+v attempts=%v", calls.Load(), got.Usage, got.Attempts)
		}
	})

	t.Run("empty until attempts run out", func(t *testing.T) {
		srv, _ := scriptedServer(t, reply(message(""), billed))
		got, err := testClient(srv.URL, WithRetryMaxAttempts(2)).CompleteJSON(context.Background(), "s", "u")
		if err == nil {
			t.Fatal("expected error")
		}
		if got.Content != "" || got.Usage != want || len(got.Attempts) != 2 {
			t.Fatalf("completion on error = %+v", got)
		}
	})

	t.Run("server errors bill nothing", func(t *testing.T) {
		srv, _ := scriptedServer(t, map[string]any{"status": 503}, reply(message(`{"ok":true}`), billed))
		got, err := testClient(srv.URL).CompleteJSON(context.Background(), "s", "u")
		if err != nil {
			t.Fatalf("CompleteJSON: %v", err)
		}
		if len(got.Attempts) != 1 || got.Usage.PromptTokens != 100 {
			t.Fatalf("usage=%+v attempts=%v", got.Usage, got.Attempts)
		}
	})
}

func TestCompleteJSONHonoursRetryAfter(t *testing.T) {
	srv, _ := scriptedServer(t,
		map[string]any{"status": http.StatusTooManyRequests, "retry_after": "1"},
		reply(message(`{"ok":true}`), nil))

	var slept []time.Duration
	client := NewClient(Config{APIKey: "test", BaseURL: srv.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second))
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("slept = %v, want [1s]", slept)
	}
}

func TestCompleteJSONStopsOnCancel(t *testing.T) {
	srv, calls := scriptedServer(t, map[string]any{"status": 503})
	ctx, cancel := context.WithCancel(context.Background())
	client := testClient(srv.URL, WithSleeper(func(time.Duration) { cancel() }))

	_, err := client.CompleteJSON(ctx, "s", "u")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestHealthCheck(t *testing.T) {
	ok, _ := scriptedServer(t, reply(message(`{"ok":true}`), nil))
	if err := testClient(ok.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	denied, _ := scriptedServer(t, map[string]any{"status": http.StatusUnauthorized})
	err := testClient(denied.URL).HealthCheck(context.Background())
	if code, found := StatusCode(err); !found || code != http.StatusUnauthorized {
		t.Fatalf("StatusCode(%v) = %d, %v", err, code, found)
	}
}

func TestStatusCodeUnwraps(t *testing.T) {
	err := fmt.Errorf("batch 1: %w", &statusError{code: http.StatusBadGateway})
	if code, ok := StatusCode(err); !ok || code != http.StatusBadGateway {
		t.Fatalf("StatusCode = %d, %v", code, ok)
	}
	if _, ok := StatusCode(errors.New("plain")); ok {
		t.Fatal("plain error should carry no status")
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := retryPolicy{base: time.Second, ceiling: 5 * time.Second}
	want := map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second, 4: 5 * time.Second}
	for attempt, d := range want {
		if got := p.delay(attempt, errors.New("boom")); got != d {
			t.Errorf("delay(%d) = %v, want %v", attempt, got, d)
		}
	}
	if got := p.delay(1, &statusError{code: 429, retryAfter: 3 * time.Second}); got != 3*time.Second {
		t.Errorf("Retry-After ignored: %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := map[string]time.Duration{
		"7": 7 * time.Second,
		now.Add(30 * time.Second).Format(http.TimeFormat): 30 * time.Second,
		"soon": 0,
		"":     0,
		"-3":   0,
	}
	for value, want := range tests {
		if got := parseRetryAfter(value, now); got != want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain", `{"ok":true}`, false},
		{"code fence", "```json\n{\"ok\":true}\n```", false},
		{"prose around object", "Here you go: {\"ok\":true} hope it helps", false},
		{"empty", "  ", true},
		{"garbage", "no json here", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				OK bool `json:"ok"`
			}
			err := DecodeLLMJSON(tt.content, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeLLMJSON error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !out.OK {
				t.Fatal("expected ok=true")
			}
		})
	}
}
