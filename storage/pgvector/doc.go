// Package pgvector implements storage.VectorSink on PostgreSQL with the
// pgvector extension.
//
// Each index is one table, named after the index, with the primary key
// (namespace, id). The table and its HNSW cosine index are created on the
// first write, sized to the dimension of the first vector. Upserts use
// INSERT ... ON CONFLICT DO UPDATE, so re-ingesting a chunk overwrites it.
package pgvector
