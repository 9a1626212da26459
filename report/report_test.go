package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/vectorize/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failed(err *core.Error) core.IngestionOutcome {
	return core.IngestionOutcome{
		Namespace:   "docs",
		FailureKind: err.Kind,
		Message:     err.Error(),
		Err:         err,
	}
}

func TestSummary(t *testing.T) {
	ok := core.IngestionOutcome{Success: true, ChunkCount: 3, DocumentCount: 1, Namespace: "docs"}
	assert.Equal(t, "Ingestion complete: 3 chunks from 1 documents written to namespace docs", Summary(ok))

	bad := failed(core.NewError(core.KindRateLimit, "embed", errors.New("429")))
	assert.Equal(t, "An error occurred during data ingestion: RateLimitError", Summary(bad))
}

func TestRemediation(t *testing.T) {
	tests := []struct {
		name     string
		err      *core.Error
		contains []string
	}{
		{
			name:     "rate limit",
			err:      core.NewError(core.KindRateLimit, "embed", errors.New("429")),
			contains: []string{"1. Increasing the delay between batches", "2. Reducing the batch size", "3. Waiting a few minutes"},
		},
		{
			name:     "timeout",
			err:      core.NewError(core.KindTimeout, "upsert", context.DeadlineExceeded),
			contains: []string{"--call-timeout"},
		},
		{
			name:     "file system",
			err:      &core.Error{Kind: core.KindFileSystem, Op: "open root", Path: "/data/docs", Err: errors.New("no such file")},
			contains: []string{"Could not find directory or file at '/data/docs'"},
		},
		{
			name:     "parse",
			err:      &core.Error{Kind: core.KindParse, Op: "parse", Path: "/data/docs/a.pdf", Err: errors.New("bad xref")},
			contains: []string{"'/data/docs/a.pdf'", "--skip-parse-errors"},
		},
		{
			name:     "vector store",
			err:      core.NewError(core.KindVectorStore, "upsert", errors.New("index not found")),
			contains: []string{"Vector store error: index not found"},
		},
		{
			name:     "cancelled",
			err:      core.NewError(core.KindCancelled, "embed", context.Canceled),
			contains: []string{"cancelled", "namespace docs"},
		},
		{
			name:     "unknown",
			err:      core.NewError(core.KindUnknown, "embed", errors.New("boom")),
			contains: []string{"Unexpected error: boom", "--verbose"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := Remediation(failed(tt.err))
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}

	assert.Empty(t, Remediation(core.IngestionOutcome{Success: true}))
}

func TestRemediation_MissingPath(t *testing.T) {
	outcome := core.IngestionOutcome{FailureKind: core.KindFileSystem}
	assert.Contains(t, Remediation(outcome), "unknown path")
}

func TestDetail(t *testing.T) {
	root := errors.New("connection refused")
	err := core.NewError(core.KindVectorStore, "upsert", fmt.Errorf("dial: %w", root))

	detail := Detail(err)
	assert.Contains(t, detail, "*core.Error: VectorStoreError: upsert: dial: connection refused")
	assert.Contains(t, detail, "*fmt.wrapError: dial: connection refused")
	assert.Contains(t, detail, "*errors.errorString: connection refused")

	joined := Detail(errors.Join(errors.New("a"), errors.New("b")))
	assert.Contains(t, joined, "  *errors.errorString: a")
	assert.Contains(t, joined, "  *errors.errorString: b")

	assert.Empty(t, Detail(nil))
}

func TestWrite(t *testing.T) {
	err := core.NewError(core.KindUnknown, "embed", errors.New("boom"))

	var quiet bytes.Buffer
	require.NoError(t, Write(&quiet, failed(err), false))
	assert.Contains(t, quiet.String(), "UnknownError")
	assert.NotContains(t, quiet.String(), "Full error details")

	var verbose bytes.Buffer
	require.NoError(t, Write(&verbose, failed(err), true))
	assert.Contains(t, verbose.String(), "Full error details:\n*core.Error")

	var ok bytes.Buffer
	outcome := core.IngestionOutcome{Success: true, ChunkCount: 2, DocumentCount: 2, Namespace: "docs", Skipped: []string{"bad.pdf"}}
	require.NoError(t, Write(&ok, outcome, true))
	assert.Equal(t, "Ingestion complete: 2 chunks from 2 documents written to namespace docs\n"+
		"Skipped 1 unparseable files:\n  bad.pdf\n", ok.String())
}
