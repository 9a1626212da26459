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


// Package storage provides the vector sink abstraction for the ingestion pipeline.
//
// A VectorSink persists IngestionRecords into an external vector index.
// Writes are idempotent: records are keyed by (namespace, id), and record
// ids are derived from the source path and chunk index, so re-ingesting
// unchanged content overwrites records in place instead of duplicating them.
// Records whose source file was removed are not deleted.
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the storage.VectorSink interface to
// enforce abstraction:
//
//	sink, err := pgvector.NewSink(ctx, dsn, "documents")  // returns storage.VectorSink
//
// The badger backend additionally exposes its concrete type through
// badger.NewMemorySink for tests that inspect what was written.
//
// # Backends
//
//   - storage/badger: embedded local store, the default
//   - storage/pgvector: PostgreSQL with the pgvector extension
//   - storage/milvus: Milvus, one partition per namespace
//
// # Failure Classification
//
// Backends report failures as *core.Error values: rate limiting is
// core.KindRateLimit, deadlines core.KindTimeout, cancellation
// core.KindCancelled, everything else core.KindVectorStore.
//
// # Thread Safety
//
// All sink implementations must be safe for concurrent Upsert calls.
package storage
