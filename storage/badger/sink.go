// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/storage"
)

// Sink implements storage.VectorSink on a local BadgerDB.
type Sink struct {
	backend     *Backend
	ownsBackend bool
	logger      *slog.Logger
}

var (
	_ storage.VectorSink   = (*Sink)(nil)
	_ storage.RecordReader = (*Sink)(nil)
)

// NewSink creates a sink over an existing backend. The backend stays open
// when the sink is closed.
func NewSink(backend *Backend) (*Sink, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &Sink{
		backend: backend,
		logger:  slog.Default().With("component", "badger-sink"),
	}, nil
}

// Open opens (or creates) a database at path and returns a sink that owns it.
//
// Returns storage.VectorSink interface to enforce abstraction.
func Open(path string) (storage.VectorSink, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, storage.Classify("open", err, nil)
	}
	return &Sink{
		backend:     backend,
		ownsBackend: true,
		logger:      slog.Default().With("component", "badger-sink", "path", path),
	}, nil
}

// Close releases the backend if the sink opened it.
func (s *Sink) Close() error {
	if s.ownsBackend && !s.backend.IsClosed() {
		return s.backend.Close()
	}
	return nil
}

// Upsert writes all records in one transaction.
func (s *Sink) Upsert(ctx context.Context, namespace string, records ...*core.IngestionRecord) error {
	if len(records) == 0 {
		return nil
	}
	if _, err := storage.CheckRecords(namespace, records); err != nil {
		return core.NewError(core.KindVectorStore, "upsert", err)
	}
	if err := ctx.Err(); err != nil {
		return storage.Classify("upsert", err, nil)
	}
	if s.backend.IsClosed() {
		return core.NewError(core.KindVectorStore, "upsert", storage.ErrStorageClosed)
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			stored := *record
			stored.Namespace = namespace
			if err := tx.Set(makeRecordKey(namespace, record.ID), storage.MarshalRecord(&stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return storage.Classify("upsert", err, nil)
	}

	s.logger.Debug("upserted records", "namespace", namespace, "count", len(records))
	return nil
}

// Get reads one record.
func (s *Sink) Get(ctx context.Context, namespace, id string) (*core.IngestionRecord, error) {
	var record *core.IngestionRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRecordKey(namespace, id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// List returns every record in namespace, ordered by id.
func (s *Sink) List(ctx context.Context, namespace string) ([]*core.IngestionRecord, error) {
	var records []*core.IngestionRecord
	err := s.scan(ctx, namespace, true, func(record *core.IngestionRecord) {
		records = append(records, record)
	})
	return records, err
}

// Count returns the number of records in namespace.
func (s *Sink) Count(ctx context.Context, namespace string) (int, error) {
	count := 0
	err := s.scan(ctx, namespace, false, func(*core.IngestionRecord) {
		count++
	})
	return count, err
}

// SearchResult is a record with its similarity to a query vector.
type SearchResult struct {
	Record *core.IngestionRecord
	Score  float32
}

// FindSimilar returns up to limit records of namespace whose dot product with
// vector is at least minSimilarity, best first. Vectors are expected to be
// normalized, making the dot product their cosine similarity.
func (s *Sink) FindSimilar(ctx context.Context, namespace string, vector []float32, minSimilarity float32, limit int) ([]*SearchResult, error) {
	var results []*SearchResult
	err := s.scan(ctx, namespace, true, func(record *core.IngestionRecord) {
		if len(record.Vector) == 0 {
			return
		}
		if similarity := dotProduct(vector, record.Vector); similarity >= minSimilarity {
			results = append(results, &SearchResult{Record: record, Score: similarity})
		}
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scan visits every record of namespace. Values are decoded only when
// withValues is set; otherwise fn receives nil.
func (s *Sink) scan(ctx context.Context, namespace string, withValues bool, fn func(*core.IngestionRecord)) error {
	prefix := makeNamespacePrefix(namespace)
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = withValues
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Skip keys of a longer namespace sharing this prefix ("a" vs "a:b").
			if bytes.IndexByte(iter.Item().Key()[len(prefix):], ':') >= 0 {
				continue
			}
			if !withValues {
				fn(nil)
				continue
			}
			var record *core.IngestionRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			fn(record)
		}
		return nil
	}, false)
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range min(len(a), len(b)) {
		sum += a[i] * b[i]
	}
	return sum
}
