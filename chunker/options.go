package chunker

import (
	"fmt"
	"slices"
)

const (
	DefaultMaxChunkSize = 2000
	DefaultChunkOverlap = 400
)

// DefaultSeparators lists paragraph, line, sentence and word breaks, then raw characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Options controls how Split cuts text. Sizes count Unicode code points.
type Options struct {
	MaxChunkSize int
	ChunkOverlap int
	Separators   []string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxChunkSize: DefaultMaxChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   slices.Clone(DefaultSeparators),
	}
}

// Validate checks the size constraints.
func (o Options) Validate() error {
	if o.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, o.MaxChunkSize)
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.MaxChunkSize {
		return fmt.Errorf("%w: overlap %d, size %d", ErrInvalidOverlap, o.ChunkOverlap, o.MaxChunkSize)
	}
	return nil
}

// normalize fills defaults and guarantees the raw character separator is last.
// Out of range values are clamped so Split never loops or panics.
func (o Options) normalize() Options {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	if o.ChunkOverlap < 0 {
		o.ChunkOverlap = 0
	}
	if o.ChunkOverlap >= o.MaxChunkSize {
		o.ChunkOverlap = o.MaxChunkSize - 1
	}
	if len(o.Separators) == 0 {
		o.Separators = slices.Clone(DefaultSeparators)
	}
	if i := slices.Index(o.Separators, ""); i != len(o.Separators)-1 {
		seps := make([]string, 0, len(o.Separators)+1)
		for _, s := range o.Separators {
			if s != "" {
				seps = append(seps, s)
			}
		}
		o.Separators = append(seps, "")
	}
	return o
}

// Option configures a Chunker.
type Option func(*Options)

// WithMaxChunkSize sets the maximum chunk size in code points.
// Default is 2000.
func WithMaxChunkSize(size int) Option {
	return func(o *Options) {
		o.MaxChunkSize = size
	}
}

// WithChunkOverlap sets how many code points consecutive chunks share.
// Default is 400.
func WithChunkOverlap(overlap int) Option {
	return func(o *Options) {
		o.ChunkOverlap = overlap
	}
}

// WithSeparators sets the separator priority list. The empty separator is
// appended when missing.
func WithSeparators(separators ...string) Option {
	return func(o *Options) {
		o.Separators = slices.Clone(separators)
	}
}
