// Package catalog models the game catalog that backlog enriches.
//
// It owns the Record type and its composite identity key, the field
// normalization rules that fold every flavour of "missing" into the Unknown
// sentinel, quarter-hour rounding for completion times, first-wins
// deduplication, and the CSV reader/writer for the fixed column layout
// (Game, Platform, Year, Genre, Game Id, Time to Beat, Score, Status).
//
// Legacy headers written by the original spreadsheet tooling (Game Title,
// Game ID, Main Story) are accepted on read; output always uses the canonical
// headers in canonical order.
package catalog
