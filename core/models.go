package core

import (
	"encoding/hex"
	"strconv"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
)

// Metadata keys written by the pipeline.
const (
	MetaSource      = "source"
	MetaFileName    = "file_name"
	MetaExtension   = "extension"
	MetaChunkIndex  = "chunk_index"
	MetaChunkStart  = "chunk_start"
	MetaChunkEnd    = "chunk_end"
	MetaContentHash = "content_hash"
)

// RawDocument is the extracted text of one source file.
// It is immutable once created and discarded after chunking.
type RawDocument struct {
	Content    string
	SourcePath string            // Slash-separated path relative to the ingestion root
	Metadata   map[string]string // Source metadata (file name, extension, parser keys)
}

// Chunk is a bounded-size segment of a RawDocument.
//
// Start and End are byte offsets into the document content. OverlapStart is the
// byte length of the prefix shared with the previous chunk and OverlapEnd the
// byte length of the suffix shared with the next chunk, so Text[OverlapStart:]
// over all chunks in Index order reconstructs the document.
type Chunk struct {
	Text         string
	Index        int
	SourcePath   string
	Start        int
	End          int
	OverlapStart int
	OverlapEnd   int
}

// Fresh returns the part of the chunk not shared with the previous chunk.
func (c Chunk) Fresh() string {
	return c.Text[c.OverlapStart:]
}

// Size returns the chunk length in Unicode code points.
func (c Chunk) Size() int {
	return utf8.RuneCountInString(c.Text)
}

// Vector is an embedding vector.
type Vector []float32

// Dimension returns the number of components in the vector.
func (v Vector) Dimension() int {
	return len(v)
}

// IngestionRecord joins a chunk, its embedding and the target namespace.
// It is written once to a vector sink and not retained after the run.
type IngestionRecord struct {
	ID        string
	Vector    Vector
	Text      string
	Namespace string
	Metadata  map[string]string
}

// IngestionOutcome is the terminal result of one pipeline run.
type IngestionOutcome struct {
	Success       bool
	ChunkCount    int
	DocumentCount int
	Namespace     string
	FailureKind   Kind   // Zero when Success is true
	Message       string // Human-readable failure summary
	Err           error  // Full classified error, for verbose diagnostics
	Skipped       []string
}

// RecordID derives the deterministic record identifier for a chunk.
// The same source path and chunk index always produce the same id, so
// re-ingesting unchanged content overwrites records in place.
func RecordID(sourcePath string, chunkIndex int) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(sourcePath))
	h.Write([]byte{'#'})
	h.Write([]byte(strconv.Itoa(chunkIndex)))
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns a short BLAKE2b digest of text.
// Identical text always produces the identical hash.
func ContentHash(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
