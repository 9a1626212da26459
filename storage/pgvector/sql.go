package pgvector

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

func tableIdent(indexName string) string {
	return pgx.Identifier{indexName}.Sanitize()
}

func createExtensionSQL() string {
	return "CREATE EXTENSION IF NOT EXISTS vector"
}

func createTableSQL(indexName string, dim int) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	namespace  text        NOT NULL,
	id         text        NOT NULL,
	content    text        NOT NULL,
	metadata   jsonb       NOT NULL DEFAULT '{}',
	embedding  vector(%d)  NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, id)
)`, tableIdent(indexName), dim)
}

func createIndexSQL(indexName string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)",
		pgx.Identifier{indexName + "_embedding_idx"}.Sanitize(), tableIdent(indexName))
}

func upsertSQL(indexName string) string {
	return fmt.Sprintf(`INSERT INTO %s (namespace, id, content, metadata, embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (namespace, id) DO UPDATE
SET content = EXCLUDED.content,
    metadata = EXCLUDED.metadata,
    embedding = EXCLUDED.embedding,
    updated_at = now()`, tableIdent(indexName))
}

func countSQL(indexName string) string {
	return fmt.Sprintf("SELECT count(*) FROM %s WHERE namespace = $1", tableIdent(indexName))
}
