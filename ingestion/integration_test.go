package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/vectorize/ai/mock"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/source"
	"github.com/poiesic/vectorize/source/parsers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newDirectory(t *testing.T, root string, opts ...source.DirectoryOption) *source.Directory {
	t.Helper()
	opts = append([]source.DirectoryOption{source.WithLogger(testLogger())}, opts...)
	dir, err := source.NewDirectory(root, parsers.Default(testLogger()), opts...)
	require.NoError(t, err)
	return dir
}

func TestIntegration_DirectoryToSink(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.txt", strings.Repeat("x", 5000))
	writeFile(t, root, "guides/intro.md", "# Intro\n\nWelcome to the guide.\n")
	writeFile(t, root, "image.png", "not a document")
	writeFile(t, root, ".hidden/secret.txt", "ignored")

	sink := newMemorySink(t)
	p := newTestPipeline(t, newDirectory(t, root), mock.NewMockEmbedder(), sink)

	outcome := p.Run(context.Background())

	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, 2, outcome.DocumentCount)
	assert.Equal(t, 4, outcome.ChunkCount)

	record, err := sink.Get(context.Background(), "test", core.RecordID("guides/intro.md", 0))
	require.NoError(t, err)
	assert.Equal(t, "guides/intro.md", record.Metadata[core.MetaSource])
	assert.Equal(t, "intro.md", record.Metadata[core.MetaFileName])
}

func TestIntegration_MissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	p := newTestPipeline(t, newDirectory(t, missing), mock.NewMockEmbedder(), newMemorySink(t))

	outcome := p.Run(context.Background())

	assert.False(t, outcome.Success)
	assert.Equal(t, core.KindFileSystem, outcome.FailureKind)
	assert.Contains(t, outcome.Message, missing)
	assert.Equal(t, StateFailed, p.State())
}

func TestIntegration_SkipParseErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.txt", "fine text")
	writeFile(t, root, "bad.txt", string([]byte{0xff, 0xfe, 0xfd}))

	abort := newTestPipeline(t, newDirectory(t, root), mock.NewMockEmbedder(), newMemorySink(t))
	outcome := abort.Run(context.Background())
	assert.Equal(t, core.KindParse, outcome.FailureKind)

	skip := newTestPipeline(t, newDirectory(t, root, source.WithSkipParseErrors(true)), mock.NewMockEmbedder(), newMemorySink(t))
	outcome = skip.Run(context.Background())
	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, 1, outcome.ChunkCount)
	assert.Equal(t, []string{"bad.txt"}, outcome.Skipped)
}
