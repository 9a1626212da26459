package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/vectorize/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	throttled := func(err error) bool { return strings.Contains(err.Error(), "throttled") }

	tests := []struct {
		name string
		err  error
		want core.Kind
	}{
		{"rate limit", errors.New("request throttled"), core.KindRateLimit},
		{"deadline", fmt.Errorf("insert: %w", context.DeadlineExceeded), core.KindTimeout},
		{"cancelled", context.Canceled, core.KindCancelled},
		{"other", errors.New("relation does not exist"), core.KindVectorStore},
		{"already classified", core.NewError(core.KindUnknown, "x", errors.New("y")), core.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.KindOf(Classify("upsert", tt.err, throttled)))
		})
	}

	assert.NoError(t, Classify("upsert", nil, throttled))
	assert.Equal(t, core.KindVectorStore, core.KindOf(Classify("upsert", errors.New("throttled"), nil)))
}

func TestCheckRecords(t *testing.T) {
	ok := &core.IngestionRecord{ID: "a", Text: "t", Vector: core.Vector{1, 2}}

	dim, err := CheckRecords("ns", []*core.IngestionRecord{ok, ok})
	require.NoError(t, err)
	assert.Equal(t, 2, dim)

	_, err = CheckRecords("", []*core.IngestionRecord{ok})
	assert.ErrorIs(t, err, ErrNamespaceRequired)

	_, err = CheckRecords("ns", []*core.IngestionRecord{ok, {ID: "b", Text: "t", Vector: core.Vector{1}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = CheckRecords("ns", []*core.IngestionRecord{{ID: "", Text: "t", Vector: core.Vector{1}}})
	assert.ErrorIs(t, err, core.ErrEmptyID)
}
