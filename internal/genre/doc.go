// Package genre assigns genre labels to catalog records with an LLM.
//
// Classify first serves titles from the lookup cache, then sends the rest in
// fixed-size batches, one chat completion per batch. The system prompt lists
// the allowed labels; the model answers with a JSON object mapping each title
// to one label. Labels outside the allowed set are discarded and titles the
// model skips stay Unknown, so both are retried on the next run.
//
// Batches run strictly in order. Accepted labels are merged into the cache
// and flushed before the next batch starts, and a failed batch is logged and
// skipped without affecting later ones. Token usage from every completion is
// reported to the configured UsageRecorder.
package genre
