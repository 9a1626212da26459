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

package vectorize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/ai/mock"
	"github.com/poiesic/vectorize/ai/openai"
	"github.com/poiesic/vectorize/chunker"
	"github.com/poiesic/vectorize/config"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/ingestion"
	"github.com/poiesic/vectorize/source"
	"github.com/poiesic/vectorize/source/parsers"
	"github.com/poiesic/vectorize/storage"
	"github.com/poiesic/vectorize/storage/badger"
	"github.com/poiesic/vectorize/storage/milvus"
	"github.com/poiesic/vectorize/storage/pgvector"
)

// Ingester wires a configuration into a ready to run ingestion pipeline.
type Ingester struct {
	config   *config.Config
	source   *source.Directory
	embedder ai.Embedder
	sink     storage.VectorSink
	ownsSink bool
	pipeline *ingestion.Pipeline
	logger   *slog.Logger
}

// Option configures an Ingester.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	progress io.Writer
	registry *source.Registry
	embedder ai.Embedder
	sink     storage.VectorSink
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProgress writes pipeline progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// WithRegistry replaces the default parser registry.
func WithRegistry(registry *source.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithEmbedder uses embedder instead of the configured provider.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *options) {
		o.embedder = embedder
	}
}

// WithSink uses sink instead of the configured backend. The caller keeps
// ownership and closes it.
func WithSink(sink storage.VectorSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// New validates cfg and builds every component of the pipeline.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Ingester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = parsers.Default(o.logger)
	}

	chunkOpts := []chunker.Option{
		chunker.WithMaxChunkSize(cfg.Chunking.MaxChunkSize),
		chunker.WithChunkOverlap(cfg.Chunking.ChunkOverlap),
	}
	if len(cfg.Chunking.Separators) > 0 {
		chunkOpts = append(chunkOpts, chunker.WithSeparators(cfg.Chunking.Separators...))
	}
	splitter, err := chunker.New(chunkOpts...)
	if err != nil {
		return nil, err
	}

	dir, err := source.NewDirectory(cfg.Source.RootPath, o.registry,
		source.WithSkipParseErrors(cfg.Source.SkipParseErrors),
		source.WithParseTimeout(cfg.Source.ParseTimeout.Duration),
		source.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}

	embedder := o.embedder
	if embedder == nil {
		if embedder, err = NewEmbedder(cfg.Embedding); err != nil {
			return nil, err
		}
	}

	sink, ownsSink := o.sink, false
	if sink == nil {
		if sink, err = OpenSink(ctx, cfg.VectorStore); err != nil {
			return nil, err
		}
		ownsSink = true
	}

	pipeline, err := ingestion.NewPipeline(dir, splitter, embedder, sink,
		ingestion.WithNamespace(cfg.VectorStore.Namespace),
		ingestion.WithBatchSize(cfg.Embedding.BatchSize),
		ingestion.WithUpsertBatchSize(cfg.VectorStore.UpsertBatchSize),
		ingestion.WithConcurrency(cfg.Pipeline.Concurrency),
		ingestion.WithCallTimeout(cfg.Pipeline.CallTimeout.Duration),
		ingestion.WithBatchDelay(cfg.Pipeline.BatchDelay.Duration),
		ingestion.WithProgress(o.progress),
		ingestion.WithLogger(o.logger),
	)
	if err != nil {
		if ownsSink {
			sink.Close()
		}
		return nil, err
	}

	return &Ingester{
		config:   cfg,
		source:   dir,
		embedder: embedder,
		sink:     sink,
		ownsSink: ownsSink,
		pipeline: pipeline,
		logger:   o.logger,
	}, nil
}

// Run executes one ingestion run.
func (i *Ingester) Run(ctx context.Context) core.IngestionOutcome {
	return i.pipeline.Run(ctx)
}

// Pipeline returns the underlying pipeline.
func (i *Ingester) Pipeline() *ingestion.Pipeline {
	return i.pipeline
}

// Sink returns the vector sink records are written to.
func (i *Ingester) Sink() storage.VectorSink {
	return i.sink
}

// Close releases the pipeline and closes the sink if the Ingester opened it.
func (i *Ingester) Close() error {
	i.pipeline.Release()
	if !i.ownsSink {
		return nil
	}
	if err := i.sink.Close(); err != nil {
		i.logger.Error("error closing vector sink", "err", err)
		return err
	}
	return nil
}

// NewEmbedder builds the configured embedding provider, wrapped with retry
// and normalization when enabled.
func NewEmbedder(cfg config.EmbeddingConfig) (ai.Embedder, error) {
	var embedder ai.Embedder
	switch cfg.Provider {
	case config.ProviderOpenAI:
		e, err := openai.NewEmbedder(ai.NewConfig(
			ai.WithEmbeddingHost(cfg.Host),
			ai.WithEmbeddingModel(cfg.Model),
			ai.WithAPIKey(cfg.APIKey),
		))
		if err != nil {
			return nil, fmt.Errorf("invalid AI configuration: %w", err)
		}
		embedder = e
	case config.ProviderMock:
		embedder = mock.NewMockEmbedder()
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}

	if cfg.Normalize {
		embedder = ai.NewNormalizingEmbedder(embedder)
	}
	return ai.NewRetryingEmbedder(embedder, cfg.MaxAttempts, cfg.RetryDelay.Duration), nil
}

// OpenSink opens the configured vector store backend.
func OpenSink(ctx context.Context, cfg config.VectorStoreConfig) (storage.VectorSink, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		return badger.Open(cfg.Path)
	case config.BackendPgvector:
		return pgvector.NewSink(ctx, cfg.DSN, cfg.IndexName)
	case config.BackendMilvus:
		return milvus.NewSink(ctx, cfg.Address, cfg.IndexName)
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
}

// Ingest runs one ingestion with cfg and closes everything it opened.
// Setup failures are reported as a failed outcome.
func Ingest(ctx context.Context, cfg *config.Config, opts ...Option) core.IngestionOutcome {
	ingester, err := New(ctx, cfg, opts...)
	if err != nil {
		ce := core.Classify("setup", err)
		if errors.Is(err, config.ErrInvalidConfig) {
			ce = core.NewError(core.KindUnknown, "configure", err)
		}
		return core.IngestionOutcome{
			Namespace:   cfg.VectorStore.Namespace,
			FailureKind: ce.Kind,
			Message:     ce.Error(),
			Err:         ce,
		}
	}
	defer ingester.Close()
	return ingester.Run(ctx)
}
