// Package lookupcache persists enrichment results keyed by game name.
//
// The cache file is a single JSON object whose keys are lowercased, trimmed
// game names and whose values are partial field maps using the catalog column
// names ("Genre", "Game Id", "Year", "Time to Beat", "Score"). Entries never
// expire; merges overwrite individual fields and every merge is flushed with
// an atomic rewrite so an interrupted run never leaves a torn file behind.
//
// A sibling "<cache>.lock" file guarded by gofrs/flock keeps two backlog
// processes from writing the same cache concurrently.
package lookupcache
