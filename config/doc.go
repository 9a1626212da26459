// Package config loads the configuration of an ingestion run.
//
// Configuration starts from Default, is overlaid by an optional TOML file
// (Load) and by secrets from the environment (ApplyEnv), and is finally
// overridden by command line flags. A file that names an unknown key is
// rejected rather than silently ignored.
//
// Example file:
//
//	[source]
//	root_path = "docs"
//
//	[chunking]
//	max_chunk_size = 2000
//	chunk_overlap = 400
//
//	[embedding]
//	batch_size = 50
//
//	[vector_store]
//	backend = "pgvector"
//	index_name = "handbook"
//	namespace = "team-a"
package config
