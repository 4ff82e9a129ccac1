// Package duration fills year, external id, completion time, and review score
// for catalog records from the lookup service.
//
// Each record is resolved independently: excluded platforms and fully
// populated records are skipped, cached matches are copied without a network
// call, and everything else is searched by name. The best candidate is picked
// by a single linear scan over similarity (ties keep the earliest result) and
// accepted only when its similarity reaches the configured threshold. Accepted
// matches are written through to the lookup cache; rejected or failed lookups
// leave the record untouched so the next run tries again.
package duration
