package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChunk_Valid(t *testing.T) {
	chunk := &Chunk{Text: "hello world", Start: 10, End: 21}
	require.NoError(t, ValidateChunk(chunk, 2000))
}

func TestValidateChunk_Nil(t *testing.T) {
	err := ValidateChunk(nil, 2000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChunk)
}

func TestValidateChunk_EmptyText(t *testing.T) {
	err := ValidateChunk(&Chunk{}, 2000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChunk)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestValidateChunk_TooLarge(t *testing.T) {
	text := strings.Repeat("a", 11)
	err := ValidateChunk(&Chunk{Text: text, End: len(text)}, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChunkTooLarge)
}

func TestValidateChunk_SizeCountsRunes(t *testing.T) {
	text := strings.Repeat("é", 10) // 20 bytes, 10 runes
	require.NoError(t, ValidateChunk(&Chunk{Text: text, End: len(text)}, 10))
}

func TestValidateChunk_BadOffsets(t *testing.T) {
	err := ValidateChunk(&Chunk{Text: "abc", Start: 0, End: 5}, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChunk)

	err = ValidateChunk(&Chunk{Text: "abc", End: 3, OverlapStart: 4}, 10)
	require.Error(t, err)
}

func TestValidateRecord(t *testing.T) {
	valid := &IngestionRecord{ID: "abc", Vector: Vector{0.1}, Text: "hi"}
	require.NoError(t, ValidateRecord(valid))

	testCases := []struct {
		name   string
		record *IngestionRecord
		want   error
	}{
		{"nil", nil, ErrInvalidRecord},
		{"empty id", &IngestionRecord{Vector: Vector{0.1}, Text: "hi"}, ErrEmptyID},
		{"empty vector", &IngestionRecord{ID: "abc", Text: "hi"}, ErrEmptyVector},
		{"empty text", &IngestionRecord{ID: "abc", Vector: Vector{0.1}}, ErrEmptyText},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRecord(tc.record)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
