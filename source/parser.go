package source

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Parsed is the text and metadata extracted from one file.
type Parsed struct {
	Text     string
	Metadata map[string]string
}

// Parser extracts text from a file.
type Parser interface {
	Parse(ctx context.Context, path string) (*Parsed, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(ctx context.Context, path string) (*Parsed, error)

func (f ParserFunc) Parse(ctx context.Context, path string) (*Parsed, error) {
	return f(ctx, path)
}

// Registry maps file extensions to parsers. Extensions are matched
// case-insensitively, with or without the leading dot.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register associates parser with each extension, replacing any previous one.
func (r *Registry) Register(parser Parser, extensions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range extensions {
		r.parsers[normalizeExt(ext)] = parser
	}
}

// Lookup returns the parser for ext.
func (r *Registry) Lookup(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[normalizeExt(ext)]
	return p, ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
