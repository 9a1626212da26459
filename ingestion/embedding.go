package ingestion

import (
	"context"
	"fmt"
	"maps"
	"strconv"

	"github.com/poiesic/vectorize/core"
)

// embedBatch embeds the chunks of one batch with a single embedder call and
// stores the vectors at their global positions.
func (r *run) embedBatch(ctx context.Context, batch core.BatchRange) (int, error) {
	texts := make([]string, batch.Len())
	for i := range texts {
		texts[i] = r.chunks[batch.Start+i].Text
	}

	r.logger.Debug("generating embeddings", "batch", batch.Index+1, "chunks", len(texts))
	vectors, err := core.CallWithTimeout(ctx, r.p.callTimeout, "embed", func(ctx context.Context) ([][]float32, error) {
		return r.p.embedder.EmbedTexts(ctx, texts)
	})
	if err != nil {
		return 0, core.Classify("embed", err)
	}

	if len(vectors) != len(texts) {
		return 0, core.NewError(core.KindUnknown, "embed",
			fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingCountMismatch, len(texts), len(vectors)))
	}
	for _, v := range vectors {
		if err := r.checkDimension(len(v)); err != nil {
			return 0, core.NewError(core.KindUnknown, "embed", err)
		}
	}

	copy(r.vectors[batch.Start:batch.End], vectors)
	return len(vectors), nil
}

// checkDimension fixes the run's dimension on the first vector and rejects
// vectors of any other dimension.
func (r *run) checkDimension(dim int) error {
	if dim == 0 {
		return ErrEmptyVector
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dimension == 0 {
		r.dimension = dim
		return nil
	}
	if dim != r.dimension {
		return fmt.Errorf("%w: expected %d, received %d", ErrDimensionMismatch, r.dimension, dim)
	}
	return nil
}

// upsertBatch writes the records of one batch with a single sink call.
func (r *run) upsertBatch(ctx context.Context, batch core.BatchRange) (int, error) {
	records := r.records[batch.Start:batch.End]

	r.logger.Debug("upserting records", "batch", batch.Index+1, "records", len(records))
	_, err := core.CallWithTimeout(ctx, r.p.callTimeout, "upsert", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.p.sink.Upsert(ctx, r.p.namespace, records...)
	})
	if err != nil {
		return 0, core.Classify("upsert", err)
	}
	return len(records), nil
}

// buildRecords joins every chunk with its vector and document metadata.
func (r *run) buildRecords() {
	r.records = make([]*core.IngestionRecord, len(r.chunks))
	for i, c := range r.chunks {
		metadata := make(map[string]string, len(r.metadata[c.SourcePath])+4)
		maps.Copy(metadata, r.metadata[c.SourcePath])
		metadata[core.MetaChunkIndex] = strconv.Itoa(c.Index)
		metadata[core.MetaChunkStart] = strconv.Itoa(c.Start)
		metadata[core.MetaChunkEnd] = strconv.Itoa(c.End)
		metadata[core.MetaContentHash] = core.ContentHash(c.Text)

		r.records[i] = &core.IngestionRecord{
			ID:        core.RecordID(c.SourcePath, c.Index),
			Vector:    r.vectors[i],
			Text:      c.Text,
			Namespace: r.p.namespace,
			Metadata:  metadata,
		}
	}
}
