// Package logging assembles structured slog loggers and formatting helpers used
// across backlog.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so enrichment code can tag log
// lines with the run ID, the game being resolved, and the classification
// batch. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
