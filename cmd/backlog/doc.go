// Command backlog enriches a video game backlog spreadsheet with genres,
// release years, completion times, and review scores.
//
// The enrich command runs one enrichment pass using the configuration at
// ~/.config/backlog/config.toml (or ./backlog.toml, or --config). The cache,
// history, and lookup commands inspect the state shared between runs, and
// config init writes a commented sample configuration.
package main
