package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/vectorize/ai/mock"
	"github.com/poiesic/vectorize/chunker"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/storage"
	"github.com/poiesic/vectorize/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource yields fixed documents, then err if set.
type sliceSource struct {
	docs    []*core.RawDocument
	err     error
	skipped []string
}

func (s *sliceSource) Documents(ctx context.Context) iter.Seq2[*core.RawDocument, error] {
	return func(yield func(*core.RawDocument, error) bool) {
		for _, d := range s.docs {
			if !yield(d, nil) {
				return
			}
		}
		if s.err != nil {
			yield(nil, s.err)
		}
	}
}

func (s *sliceSource) Skipped() []string {
	return s.skipped
}

// failingSink fails every upsert after the first failAfter calls.
type failingSink struct {
	mu        sync.Mutex
	calls     int
	failAfter int
	written   int
}

func (f *failingSink) Upsert(_ context.Context, _ string, records ...*core.IngestionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls > f.failAfter {
		return core.NewError(core.KindVectorStore, "upsert", errors.New("index unavailable"))
	}
	f.written += len(records)
	return nil
}

func (f *failingSink) Close() error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func document(path, content string) *core.RawDocument {
	return &core.RawDocument{
		Content:    content,
		SourcePath: path,
		Metadata:   map[string]string{core.MetaSource: path},
	}
}

// shortDocuments returns n documents that each fit in one chunk.
func shortDocuments(n int) []*core.RawDocument {
	docs := make([]*core.RawDocument, n)
	for i := range n {
		path := fmt.Sprintf("doc-%03d.txt", i)
		docs[i] = document(path, "contents of "+path)
	}
	return docs
}

func newMemorySink(t *testing.T) *badger.Sink {
	t.Helper()
	sink, err := badger.NewMemorySink()
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func newTestPipeline(t *testing.T, docs DocumentSource, embedder *mock.MockEmbedder, sink storage.VectorSink, opts ...Option) *Pipeline {
	t.Helper()
	c, err := chunker.New()
	require.NoError(t, err)
	opts = append([]Option{WithLogger(testLogger()), WithNamespace("test")}, opts...)
	p, err := NewPipeline(docs, c, embedder, sink, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNewPipeline_RequiresCapabilities(t *testing.T) {
	c, err := chunker.New()
	require.NoError(t, err)
	docs := &sliceSource{}
	embedder := mock.NewMockEmbedder()
	sink := &failingSink{}

	tests := []struct {
		name string
		fn   func() (*Pipeline, error)
		want error
	}{
		{"source", func() (*Pipeline, error) { return NewPipeline(nil, c, embedder, sink) }, ErrDocumentSourceRequired},
		{"chunker", func() (*Pipeline, error) { return NewPipeline(docs, nil, embedder, sink) }, ErrChunkerRequired},
		{"embedder", func() (*Pipeline, error) { return NewPipeline(docs, c, nil, sink) }, ErrEmbedderRequired},
		{"sink", func() (*Pipeline, error) { return NewPipeline(docs, c, embedder, nil) }, ErrSinkRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.fn()
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewPipeline_Options(t *testing.T) {
	c, err := chunker.New()
	require.NoError(t, err)
	docs := &sliceSource{}
	embedder := mock.NewMockEmbedder()
	sink := &failingSink{}

	p, err := NewPipeline(docs, c, embedder, sink)
	require.NoError(t, err)
	defer p.Release()
	assert.Equal(t, DefaultNamespace, p.Namespace())
	assert.Equal(t, DefaultBatchSize, p.batchSize)
	assert.Equal(t, DefaultUpsertBatchSize, p.upsertBatchSize)
	assert.Equal(t, DefaultConcurrency, p.concurrency)
	assert.Equal(t, StateIdle, p.State())

	_, err = NewPipeline(docs, c, embedder, sink, WithBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	_, err = NewPipeline(docs, c, embedder, sink, WithUpsertBatchSize(-1))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	_, err = NewPipeline(docs, c, embedder, sink, WithNamespace(""))
	assert.ErrorIs(t, err, ErrNamespaceRequired)

	p, err = NewPipeline(docs, c, embedder, sink, WithConcurrency(0), WithBatchDelay(time.Second), WithCallTimeout(-time.Second))
	require.NoError(t, err)
	defer p.Release()
	assert.Equal(t, 1, p.concurrency)
	assert.NotNil(t, p.limiter)
	assert.Zero(t, p.callTimeout)
}

func TestRun_EndToEnd(t *testing.T) {
	content := strings.Repeat("x", 5000)
	sink := newMemorySink(t)
	p := newTestPipeline(t, &sliceSource{docs: []*core.RawDocument{document("big.txt", content)}},
		mock.NewMockEmbedder(), sink)

	outcome := p.Run(context.Background())

	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, 3, outcome.ChunkCount)
	assert.Equal(t, 1, outcome.DocumentCount)
	assert.Equal(t, "test", outcome.Namespace)
	assert.Zero(t, outcome.FailureKind)
	assert.Equal(t, StateDone, p.State())

	records, err := sink.List(context.Background(), "test")
	require.NoError(t, err)
	require.Len(t, records, 3)

	byIndex := make(map[string]*core.IngestionRecord)
	for _, r := range records {
		assert.LessOrEqual(t, len([]rune(r.Text)), 2000)
		byIndex[r.Metadata[core.MetaChunkIndex]] = r
	}
	first, second := byIndex["0"].Text, byIndex["1"].Text
	assert.Equal(t, first[len(first)-400:], second[:400])
}

func TestRun_RecordContents(t *testing.T) {
	sink := newMemorySink(t)
	doc := document("notes/a.md", "A short note.")
	doc.Metadata[core.MetaExtension] = ".md"
	p := newTestPipeline(t, &sliceSource{docs: []*core.RawDocument{doc}}, mock.NewMockEmbedder(), sink)

	outcome := p.Run(context.Background())
	require.True(t, outcome.Success, outcome.Message)

	id := core.RecordID("notes/a.md", 0)
	record, err := sink.Get(context.Background(), "test", id)
	require.NoError(t, err)
	assert.Equal(t, "A short note.", record.Text)
	assert.Equal(t, mock.Vector("A short note.", mock.DefaultDimension), []float32(record.Vector))
	assert.Equal(t, map[string]string{
		core.MetaSource:      "notes/a.md",
		core.MetaExtension:   ".md",
		core.MetaChunkIndex:  "0",
		core.MetaChunkStart:  "0",
		core.MetaChunkEnd:    "13",
		core.MetaContentHash: core.ContentHash("A short note."),
	}, record.Metadata)
}

func TestRun_BatchIntegrity(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	sink := newMemorySink(t)
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(137)}, embedder, sink)

	outcome := p.Run(context.Background())
	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, 137, outcome.ChunkCount)

	batches := embedder.Batches()
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 50)
	assert.Len(t, batches[1], 50)
	assert.Len(t, batches[2], 37)
	assert.Equal(t, "contents of doc-050.txt", batches[1][0])

	count, err := sink.Count(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 137, count)
}

func TestRun_BatchFailureReportsRange(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	var calls atomic.Int32
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 2 {
			return nil, core.NewError(core.KindRateLimit, "embed", errors.New("429 Too Many Requests"))
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.Vector(text, 8)
		}
		return out, nil
	}
	sink := newMemorySink(t)
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(137)}, embedder, sink)

	outcome := p.Run(context.Background())

	assert.False(t, outcome.Success)
	assert.Equal(t, core.KindRateLimit, outcome.FailureKind)
	assert.Equal(t, StateFailed, p.State())
	assert.Equal(t, 2, embedder.CallCount(), "no batch is dispatched after a failure")

	var ce *core.Error
	require.ErrorAs(t, outcome.Err, &ce)
	require.NotNil(t, ce.Batch)
	assert.Equal(t, core.BatchRange{Index: 1, Start: 50, End: 100}, *ce.Batch)
	assert.Contains(t, outcome.Message, "batch 2 (chunks 51-100)")

	count, err := sink.Count(context.Background(), "test")
	require.NoError(t, err)
	assert.Zero(t, count, "embedding failures write nothing")
	assert.Zero(t, outcome.ChunkCount)
}

func TestRun_ConcurrentReportsLowestFailingBatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		switch texts[0] {
		case "contents of doc-010.txt":
			time.Sleep(30 * time.Millisecond)
			return nil, core.NewError(core.KindUnknown, "embed", errors.New("bad batch two"))
		case "contents of doc-020.txt":
			return nil, core.NewError(core.KindUnknown, "embed", errors.New("bad batch three"))
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.Vector(text, 8)
		}
		return out, nil
	}
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(40)}, embedder, newMemorySink(t),
		WithBatchSize(10), WithConcurrency(4))

	outcome := p.Run(context.Background())

	require.False(t, outcome.Success)
	var ce *core.Error
	require.ErrorAs(t, outcome.Err, &ce)
	require.NotNil(t, ce.Batch)
	assert.Equal(t, 1, ce.Batch.Index)
	assert.Contains(t, outcome.Message, "bad batch two")
}

func TestRun_ConcurrentCountsEachChunkOnce(t *testing.T) {
	sink := newMemorySink(t)
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(95)}, mock.NewMockEmbedder(), sink,
		WithBatchSize(7), WithUpsertBatchSize(9), WithConcurrency(5))

	outcome := p.Run(context.Background())
	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, 95, outcome.ChunkCount)

	count, err := sink.Count(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 95, count)
}

func TestRun_Idempotent(t *testing.T) {
	sink := newMemorySink(t)
	docs := &sliceSource{docs: append(shortDocuments(3), document("big.txt", strings.Repeat("word ", 1000)))}

	first := newTestPipeline(t, docs, mock.NewMockEmbedder(), sink).Run(context.Background())
	require.True(t, first.Success, first.Message)
	before, err := sink.List(context.Background(), "test")
	require.NoError(t, err)

	second := newTestPipeline(t, docs, mock.NewMockEmbedder(), sink).Run(context.Background())
	require.True(t, second.Success, second.Message)
	after, err := sink.List(context.Background(), "test")
	require.NoError(t, err)

	assert.Equal(t, first.ChunkCount, second.ChunkCount)
	assert.Equal(t, len(before), len(after))
	assert.ElementsMatch(t, before, after)
}

func TestRun_ShrunkDocumentKeepsTrailingRecords(t *testing.T) {
	sink := newMemorySink(t)
	ctx := context.Background()

	long := &sliceSource{docs: []*core.RawDocument{document("guide.txt", strings.Repeat("x", 5000))}}
	first := newTestPipeline(t, long, mock.NewMockEmbedder(), sink).Run(ctx)
	require.True(t, first.Success, first.Message)
	require.Equal(t, 3, first.ChunkCount)

	short := &sliceSource{docs: []*core.RawDocument{document("guide.txt", "now a single chunk")}}
	second := newTestPipeline(t, short, mock.NewMockEmbedder(), sink).Run(ctx)
	require.True(t, second.Success, second.Message)
	assert.Equal(t, 1, second.ChunkCount)

	count, err := sink.Count(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	head, err := sink.Get(ctx, "test", core.RecordID("guide.txt", 0))
	require.NoError(t, err)
	assert.Equal(t, "now a single chunk", head.Text)

	stale, err := sink.Get(ctx, "test", core.RecordID("guide.txt", 2))
	require.NoError(t, err)
	require.NotEmpty(t, stale.Text)
	assert.Equal(t, strings.Repeat("x", len(stale.Text)), stale.Text)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	sink := newMemorySink(t)
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(3)}, embedder, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome := p.Run(ctx)

	assert.False(t, outcome.Success)
	assert.Equal(t, core.KindCancelled, outcome.FailureKind)
	assert.Equal(t, StateFailed, p.State())
	assert.Zero(t, embedder.CallCount())
}

func TestRun_CancelledMidRunFinishesInFlightBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(callCtx context.Context, texts []string) ([][]float32, error) {
		cancel()
		time.Sleep(10 * time.Millisecond)
		if err := callCtx.Err(); err != nil {
			return nil, err
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.Vector(text, 8)
		}
		return out, nil
	}
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(137)}, embedder, newMemorySink(t))

	outcome := p.Run(ctx)

	assert.False(t, outcome.Success)
	assert.Equal(t, core.KindCancelled, outcome.FailureKind)
	assert.Equal(t, 1, embedder.CallCount(), "the in-flight batch completes, no new batch starts")
}

func TestRun_CallTimeout(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		time.Sleep(200 * time.Millisecond)
		return nil, errors.New("too late")
	}
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(1)}, embedder, newMemorySink(t),
		WithCallTimeout(20*time.Millisecond))

	start := time.Now()
	outcome := p.Run(context.Background())

	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, core.KindTimeout, outcome.FailureKind)
	assert.True(t, outcome.FailureKind.Transient())
}

func TestRun_EmbeddingContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		vectors func(texts []string) [][]float32
		want    error
	}{
		{
			name:    "count mismatch",
			vectors: func(texts []string) [][]float32 { return [][]float32{{1, 2}} },
			want:    ErrEmbeddingCountMismatch,
		},
		{
			name: "dimension mismatch",
			vectors: func(texts []string) [][]float32 {
				out := make([][]float32, len(texts))
				for i := range texts {
					out[i] = make([]float32, 2+i)
				}
				return out
			},
			want: ErrDimensionMismatch,
		},
		{
			name: "empty vector",
			vectors: func(texts []string) [][]float32 {
				return make([][]float32, len(texts))
			},
			want: ErrEmptyVector,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := mock.NewMockEmbedder()
			embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
				return tt.vectors(texts), nil
			}
			p := newTestPipeline(t, &sliceSource{docs: shortDocuments(3)}, embedder, newMemorySink(t))

			outcome := p.Run(context.Background())
			assert.Equal(t, core.KindUnknown, outcome.FailureKind)
			assert.ErrorIs(t, outcome.Err, tt.want)
		})
	}
}

func TestRun_SinkFailure(t *testing.T) {
	sink := &failingSink{failAfter: 1}
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(120)}, mock.NewMockEmbedder(), sink,
		WithUpsertBatchSize(50))

	outcome := p.Run(context.Background())

	assert.False(t, outcome.Success)
	assert.Equal(t, core.KindVectorStore, outcome.FailureKind)
	assert.Equal(t, 50, outcome.ChunkCount, "only the first upsert batch was written")
	assert.Contains(t, outcome.Message, "batch 2 (chunks 51-100)")
	assert.Equal(t, 2, sink.calls)
}

func TestRun_SourceFailure(t *testing.T) {
	fsErr := &core.Error{Kind: core.KindFileSystem, Op: "open root", Path: "/missing", Err: errors.New("no such file")}
	embedder := mock.NewMockEmbedder()
	p := newTestPipeline(t, &sliceSource{err: fsErr, skipped: []string{"bad.pdf"}}, embedder, newMemorySink(t))

	outcome := p.Run(context.Background())

	assert.False(t, outcome.Success)
	assert.Equal(t, core.KindFileSystem, outcome.FailureKind)
	assert.Same(t, fsErr, outcome.Err)
	assert.Equal(t, []string{"bad.pdf"}, outcome.Skipped)
	assert.Zero(t, embedder.CallCount())
}

func TestRun_NoDocuments(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	p := newTestPipeline(t, &sliceSource{}, embedder, newMemorySink(t))

	outcome := p.Run(context.Background())

	assert.True(t, outcome.Success)
	assert.Zero(t, outcome.ChunkCount)
	assert.Zero(t, embedder.CallCount())
}

func TestRun_Progress(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(5)}, mock.NewMockEmbedder(), newMemorySink(t),
		WithBatchSize(2), WithProgress(&buf))

	outcome := p.Run(context.Background())
	require.True(t, outcome.Success, outcome.Message)

	out := buf.String()
	assert.Contains(t, out, "Embedding: 5/5 (100.0%)")
	assert.Contains(t, out, "Upserting: 5/5 (100.0%)")
}

func TestRun_BatchDelay(t *testing.T) {
	p := newTestPipeline(t, &sliceSource{docs: shortDocuments(3)}, mock.NewMockEmbedder(), newMemorySink(t),
		WithBatchSize(1), WithBatchDelay(20*time.Millisecond))

	start := time.Now()
	outcome := p.Run(context.Background())

	require.True(t, outcome.Success, outcome.Message)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "upserting", StateUpserting.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(42)", State(42).String())
	assert.True(t, StateDone.Terminal())
	assert.False(t, StateEmbedding.Terminal())
}
