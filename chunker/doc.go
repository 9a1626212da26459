// Package chunker splits document text into bounded, overlapping chunks.
//
// Split is a pure function over the text and its Options: it recursively cuts
// the text at a priority-ordered list of separators, greedily packs the pieces
// into chunks of at most MaxChunkSize code points, and starts each following
// chunk ChunkOverlap code points before the previous chunk's end. Chunker
// applies Split to a core.RawDocument and produces core.Chunk values whose
// non-overlapping text concatenates back to the original document.
package chunker
