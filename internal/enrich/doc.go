// Package enrich runs one enrichment pass over a catalog.
//
// A run loads the catalog, drops duplicate records, normalizes every field,
// and queues the records that still miss at least one enrichable field. Queued
// records are classified by genre in sequential batches, then resolved against
// the lookup service by a bounded pool of concurrent tasks, each owning one
// record. The full deduplicated catalog is written back in input order.
//
// All collaborators are passed in through Deps; the package keeps no global
// state.
package enrich
