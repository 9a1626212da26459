// Package ingestion provides the pipeline that turns a directory of documents
// into vector records.
//
// A Pipeline runs its stages strictly in order:
//
//	Idle -> Loading -> Splitting -> Embedding -> Upserting -> Done
//
// and enters Failed from any stage on the first classified failure. Within
// Embedding and Upserting, batches are dispatched to a worker pool bounded by
// the configured concurrency. Cancellation is observed between stages and
// before each batch is dispatched; batches already in flight run to
// completion.
//
// Records are keyed by source path and chunk index, so running the pipeline
// again over unchanged documents overwrites records in place. Records of
// removed source files are not deleted, and when a document now splits into
// fewer chunks than before, the records of its trailing chunks remain with
// their old text.
package ingestion
