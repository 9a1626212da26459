package pgvector

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/storage"
)

// PostgreSQL error codes with special classification.
const (
	codeTooManyConnections = "53300"
	codeQueryCanceled      = "57014"
)

// db is the subset of *pgxpool.Pool the sink uses.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

// Sink writes records into a pgvector table.
type Sink struct {
	db        db
	indexName string
	logger    *slog.Logger

	mu      sync.Mutex
	created bool
}

var _ storage.VectorSink = (*Sink)(nil)

// NewSink connects to dsn and returns a sink writing to the table indexName.
//
// Returns storage.VectorSink interface to enforce abstraction.
func NewSink(ctx context.Context, dsn, indexName string) (storage.VectorSink, error) {
	if indexName == "" {
		return nil, storage.ErrIndexNameRequired
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, core.NewError(core.KindVectorStore, "connect", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, classify("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, classify("connect", err)
	}
	return newSink(pool, indexName), nil
}

func newSink(conn db, indexName string) *Sink {
	return &Sink{
		db:        conn,
		indexName: indexName,
		logger:    slog.Default().With("component", "pgvector-sink", "index", indexName),
	}
}

// Close closes the connection pool.
func (s *Sink) Close() error {
	s.db.Close()
	return nil
}

// Upsert writes records in a single batch. pgx runs a batch in one implicit
// transaction, so a failing record rolls back the whole call.
func (s *Sink) Upsert(ctx context.Context, namespace string, records ...*core.IngestionRecord) error {
	if len(records) == 0 {
		return nil
	}
	dim, err := storage.CheckRecords(namespace, records)
	if err != nil {
		return core.NewError(core.KindVectorStore, "upsert", err)
	}
	if err := s.ensureTable(ctx, dim); err != nil {
		return err
	}

	query := upsertSQL(s.indexName)
	batch := &pgx.Batch{}
	for _, r := range records {
		metadata := r.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		vector := pgvector.NewVector(r.Vector)
		batch.Queue(query, namespace, r.ID, r.Text, metadata, &vector)
	}

	results := s.db.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return classify("upsert", err)
		}
	}
	if err := results.Close(); err != nil {
		return classify("upsert", err)
	}

	s.logger.Debug("upserted records", "namespace", namespace, "count", len(records))
	return nil
}

// Count returns the number of rows in namespace.
func (s *Sink) Count(ctx context.Context, namespace string) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, countSQL(s.indexName), namespace).Scan(&count); err != nil {
		return 0, classify("count", err)
	}
	return count, nil
}

// ensureTable creates the extension, table and index once per sink.
func (s *Sink) ensureTable(ctx context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		return nil
	}

	s.logger.Info("creating vector store", "dimension", dim)
	for _, stmt := range []string{createExtensionSQL(), createTableSQL(s.indexName, dim), createIndexSQL(s.indexName)} {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return classify("create table", err)
		}
	}
	s.created = true
	return nil
}

func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeQueryCanceled {
		return core.NewError(core.KindTimeout, op, err)
	}
	return storage.Classify(op, err, isRateLimit)
}

func isRateLimit(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeTooManyConnections
}
