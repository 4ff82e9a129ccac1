// Package history keeps a SQLite ledger of enrichment runs: one row per run
// with its timings, terminal state, record counts, and token spend. The
// ledger is informational; nothing in an enrichment run reads it back.
package history
