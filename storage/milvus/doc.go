// Package milvus implements storage.VectorSink on a Milvus server.
//
// Each index is one collection and each namespace is one partition of that
// collection. The collection holds a VarChar primary key, the chunk text, a
// JSON metadata column and a float vector column indexed with HNSW under the
// cosine metric. Collections and partitions are created on first use.
//
// Primary keys are unique across the whole collection, so the key of a record
// is "<namespace>:<id>". The same file ingested into two namespaces yields two
// rows, one per partition.
package milvus
