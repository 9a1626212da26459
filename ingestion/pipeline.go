package ingestion

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/storage"
	"golang.org/x/time/rate"
)

// Defaults applied by NewPipeline.
const (
	DefaultNamespace       = "default"
	DefaultBatchSize       = 50
	DefaultUpsertBatchSize = 100
	DefaultConcurrency     = 1
)

// DocumentSource produces the documents of one run.
type DocumentSource interface {
	Documents(ctx context.Context) iter.Seq2[*core.RawDocument, error]
}

// Chunker splits a document into chunks.
type Chunker interface {
	Chunk(doc *core.RawDocument) []core.Chunk
}

// skipReporter is implemented by sources that can skip unparseable files.
type skipReporter interface {
	Skipped() []string
}

// Pipeline orchestrates one ingestion run from documents to vector records.
// A Pipeline runs one Run at a time.
type Pipeline struct {
	docs     DocumentSource
	chunker  Chunker
	embedder ai.Embedder
	sink     storage.VectorSink

	namespace       string
	batchSize       int
	upsertBatchSize int
	concurrency     int
	callTimeout     time.Duration
	limiter         *rate.Limiter
	progress        io.Writer
	logger          *slog.Logger

	pool  *ants.Pool
	state atomic.Int32
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithNamespace sets the namespace records are written to.
// Default is DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(p *Pipeline) error {
		if namespace == "" {
			return ErrNamespaceRequired
		}
		p.namespace = namespace
		return nil
	}
}

// WithBatchSize sets the number of chunks sent to the embedder per call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: embedding batch size %d", ErrInvalidBatchSize, size)
		}
		p.batchSize = size
		return nil
	}
}

// WithUpsertBatchSize sets the number of records written to the sink per call.
// Default is DefaultUpsertBatchSize.
func WithUpsertBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: upsert batch size %d", ErrInvalidBatchSize, size)
		}
		p.upsertBatchSize = size
		return nil
	}
}

// WithConcurrency sets how many batches may be in flight at once.
// Default is DefaultConcurrency, which processes batches sequentially.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
		return nil
	}
}

// WithCallTimeout bounds every embedder and sink call.
// Zero, the default, means no bound.
func WithCallTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		p.callTimeout = max(timeout, 0)
		return nil
	}
}

// WithBatchDelay sets the minimum interval between two batch dispatches.
// Zero, the default, dispatches batches as fast as slots free up.
func WithBatchDelay(delay time.Duration) Option {
	return func(p *Pipeline) error {
		if delay <= 0 {
			p.limiter = nil
			return nil
		}
		p.limiter = rate.NewLimiter(rate.Every(delay), 1)
		return nil
	}
}

// WithProgress writes per-stage progress lines to w.
// Default is no progress output.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	docs DocumentSource,
	chunker Chunker,
	embedder ai.Embedder,
	sink storage.VectorSink,
	opts ...Option,
) (*Pipeline, error) {
	if docs == nil {
		return nil, ErrDocumentSourceRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}

	p := &Pipeline{
		docs:            docs,
		chunker:         chunker,
		embedder:        embedder,
		sink:            sink,
		namespace:       DefaultNamespace,
		batchSize:       DefaultBatchSize,
		upsertBatchSize: DefaultUpsertBatchSize,
		concurrency:     DefaultConcurrency,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline")

	pool, err := ants.NewPool(p.concurrency)
	if err != nil {
		return nil, err
	}
	p.pool = pool

	return p, nil
}

// State returns the current stage of the pipeline.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Namespace returns the namespace records are written to.
func (p *Pipeline) Namespace() string {
	return p.namespace
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// run holds the state of one Run.
type run struct {
	p      *Pipeline
	logger *slog.Logger

	docs      []*core.RawDocument
	documents int
	metadata  map[string]map[string]string
	chunks    []core.Chunk
	vectors   [][]float32
	records   []*core.IngestionRecord
	written   int

	mu        sync.Mutex
	dimension int
}

// Run executes the pipeline to completion and reports the outcome.
// The first failure is terminal; stages that completed are not retried.
func (p *Pipeline) Run(ctx context.Context) core.IngestionOutcome {
	r := &run{
		p:        p,
		logger:   p.logger.With("run_id", uuid.NewString(), "namespace", p.namespace),
		metadata: make(map[string]map[string]string),
	}
	started := time.Now()
	p.state.Store(int32(StateIdle))

	stages := []struct {
		state State
		run   func(context.Context) *core.Error
	}{
		{StateLoading, r.load},
		{StateSplitting, r.split},
		{StateEmbedding, r.embed},
		{StateUpserting, r.upsert},
	}
	for _, stage := range stages {
		r.transition(stage.state)
		if err := ctx.Err(); err != nil {
			return r.fail(core.NewError(core.KindCancelled, stage.state.String(), err))
		}
		if err := stage.run(ctx); err != nil {
			return r.fail(err)
		}
	}
	r.transition(StateDone)

	r.logger.Info("Ingestion complete",
		"chunks", r.written,
		"documents", r.documents,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return r.outcome(nil)
}

func (r *run) transition(to State) {
	from := State(r.p.state.Swap(int32(to)))
	r.logger.Info("state transition", "from", from, "to", to)
}

func (r *run) fail(err *core.Error) core.IngestionOutcome {
	r.transition(StateFailed)
	r.logger.Error("ingestion failed", "kind", err.Kind, "err", err)
	return r.outcome(err)
}

func (r *run) outcome(err *core.Error) core.IngestionOutcome {
	out := core.IngestionOutcome{
		Success:       err == nil,
		ChunkCount:    r.written,
		DocumentCount: r.documents,
		Namespace:     r.p.namespace,
	}
	if s, ok := r.p.docs.(skipReporter); ok {
		out.Skipped = s.Skipped()
	}
	if err != nil {
		out.FailureKind = err.Kind
		out.Message = err.Error()
		out.Err = err
	}
	return out
}

// load reads every document from the source.
func (r *run) load(ctx context.Context) *core.Error {
	for doc, err := range r.p.docs.Documents(ctx) {
		if err != nil {
			return core.Classify("load", err)
		}
		r.docs = append(r.docs, doc)
	}
	r.documents = len(r.docs)
	r.logger.Info("loaded documents", "documents", r.documents)
	if r.documents == 0 {
		r.logger.Warn("no documents found")
	}
	return nil
}

// split chunks every loaded document and releases the document text.
func (r *run) split(context.Context) *core.Error {
	for _, doc := range r.docs {
		chunks := r.p.chunker.Chunk(doc)
		for i := range chunks {
			if err := core.ValidateChunk(&chunks[i], 0); err != nil {
				ce := core.NewError(core.KindUnknown, "split", err)
				ce.Path = doc.SourcePath
				return ce
			}
		}
		r.metadata[doc.SourcePath] = doc.Metadata
		r.chunks = append(r.chunks, chunks...)
	}
	r.docs = nil

	r.logger.Info(fmt.Sprintf("Split docs into %d chunks", len(r.chunks)), "documents", r.documents)
	return nil
}

// embed embeds all chunks in batches of p.batchSize.
func (r *run) embed(ctx context.Context) *core.Error {
	r.vectors = make([][]float32, len(r.chunks))
	batches := core.Partition(len(r.chunks), r.p.batchSize)
	progress := newProgressTracker(r.p.progress, "Embedding", len(r.chunks), r.p.batchSize)

	_, err := r.p.dispatch(ctx, "embed", batches, progress, r.embedBatch)
	progress.finish()
	if err != nil {
		return err
	}
	r.logger.Info("embedded chunks", "chunks", len(r.chunks), "batches", len(batches), "dimension", r.dimension)
	return nil
}

// upsert writes all records in batches of p.upsertBatchSize.
func (r *run) upsert(ctx context.Context) *core.Error {
	r.buildRecords()
	r.vectors = nil
	batches := core.Partition(len(r.records), r.p.upsertBatchSize)
	progress := newProgressTracker(r.p.progress, "Upserting", len(r.records), r.p.upsertBatchSize)

	written, err := r.p.dispatch(ctx, "upsert", batches, progress, r.upsertBatch)
	progress.finish()
	r.written = written
	return err
}
