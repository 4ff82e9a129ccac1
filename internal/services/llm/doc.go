// Package llm talks to an OpenRouter-compatible chat completion endpoint in
// JSON mode. The genre classifier sends it batches of titles; the CLI uses
// HealthCheck to verify credentials.
//
// Requests answered with 408, 429 or 5xx, timeouts and empty answers are
// retried with doubling backoff (1s up to 10s, five attempts by default).
// A Retry-After header overrides the computed delay.
package llm
