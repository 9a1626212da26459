package chunker

import (
	"github.com/poiesic/vectorize/core"
)

// Chunker splits documents into core.Chunk values.
type Chunker struct {
	opts Options
}

// New creates a Chunker with the default sizes and separators, overridden by opts.
func New(opts ...Option) (*Chunker, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{opts: o.normalize()}, nil
}

// Options returns the effective options.
func (c *Chunker) Options() Options {
	return c.opts
}

// Chunk splits doc into ordered chunks. Blank documents yield none.
func (c *Chunker) Chunk(doc *core.RawDocument) []core.Chunk {
	if doc == nil {
		return nil
	}
	spans := Split(doc.Content, c.opts)
	chunks := make([]core.Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = core.Chunk{
			Text:         doc.Content[s.Start:s.End],
			Index:        i,
			SourcePath:   doc.SourcePath,
			Start:        s.Start,
			End:          s.End,
			OverlapStart: s.Overlap,
		}
		if i > 0 {
			chunks[i-1].OverlapEnd = s.Overlap
		}
	}
	return chunks
}
