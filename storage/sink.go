package storage

import (
	"context"
	"errors"

	"github.com/poiesic/vectorize/core"
)

// VectorSink writes embedded chunks into a vector index.
type VectorSink interface {
	// Upsert writes records into namespace, replacing records with the same id.
	// Either every record of the call is written or an error is returned.
	Upsert(ctx context.Context, namespace string, records ...*core.IngestionRecord) error

	// Close releases resources held by the sink.
	Close() error
}

// RecordReader is implemented by sinks that can read back what they wrote.
type RecordReader interface {
	Get(ctx context.Context, namespace, id string) (*core.IngestionRecord, error)
	Count(ctx context.Context, namespace string) (int, error)
}

// Classify maps a backend failure onto the core failure taxonomy.
// isRateLimit reports backend specific throttling errors and may be nil.
// Errors that are already classified keep their kind.
func Classify(op string, err error, isRateLimit func(error) bool) error {
	if err == nil {
		return nil
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return core.NewError(core.KindCancelled, op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return core.NewError(core.KindTimeout, op, err)
	case isRateLimit != nil && isRateLimit(err):
		return core.NewError(core.KindRateLimit, op, err)
	}
	return core.NewError(core.KindVectorStore, op, err)
}

// CheckRecords validates records before a write and returns their common
// vector dimension.
func CheckRecords(namespace string, records []*core.IngestionRecord) (int, error) {
	if namespace == "" {
		return 0, ErrNamespaceRequired
	}
	dim := 0
	for _, r := range records {
		if err := core.ValidateRecord(r); err != nil {
			return 0, err
		}
		if dim == 0 {
			dim = len(r.Vector)
		} else if len(r.Vector) != dim {
			return 0, ErrDimensionMismatch
		}
	}
	return dim, nil
}
