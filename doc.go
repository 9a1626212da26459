// Package vectorize ingests a directory of documents into a vector store.
//
// Documents are parsed, split into overlapping chunks, embedded in batches
// and upserted into a namespace of the configured vector store. New builds
// the pipeline from a config.Config; Ingest runs it once:
//
//	cfg := config.Default()
//	cfg.Source.RootPath = "docs"
//	outcome := vectorize.Ingest(ctx, cfg)
//	if !outcome.Success {
//	    report.Write(os.Stderr, outcome, false)
//	}
//
// Records are keyed by source path and chunk index, so ingesting the same
// documents again overwrites records in place. Records of removed files are
// not deleted.
package vectorize
