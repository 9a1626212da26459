package chunker

import (
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Span is a chunk's byte range within the text it was split from.
type Span struct {
	Start int
	End   int
	// Overlap is the number of bytes at the start of the span that are
	// shared with the previous span.
	Overlap int
}

// Split cuts text into overlapping spans of at most MaxChunkSize code points.
// The spans are ordered, the first starts at 0, the last ends at len(text),
// and text[s.Start+s.Overlap:s.End] over all spans reconstructs text exactly.
// Blank text yields no spans.
func Split(text string, opts Options) []Span {
	opts = opts.normalize()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= opts.MaxChunkSize {
		return []Span{{Start: 0, End: len(text)}}
	}

	idx := newRuneIndex(text)
	ends := cut(text, 0, opts.Separators, opts.MaxChunkSize, nil)
	bounds := make([]int, len(ends))
	for i, b := range ends {
		bounds[i] = idx.runeAt(b)
	}

	var spans []Span
	start, overlap := 0, 0
	for {
		// Last piece end that still fits.
		j := sort.SearchInts(bounds, start+opts.MaxChunkSize+1) - 1
		end := bounds[j]
		spans = append(spans, Span{Start: idx.byteAt(start), End: idx.byteAt(end), Overlap: overlap})
		if j == len(bounds)-1 {
			return spans
		}

		next := bounds[j+1] - end
		window := min(opts.ChunkOverlap, opts.MaxChunkSize-next)
		nextStart := end
		if window > 0 {
			target := max(end-window, start+1)
			nextStart = idx.runeAt(clip(text, idx.byteAt(target), idx.byteAt(end), opts.Separators))
		}
		overlap = idx.byteAt(end) - idx.byteAt(nextStart)
		start = nextStart
	}
}

// cut appends the absolute end offsets of the atomic pieces of text, each no
// longer than size code points. Separators stay attached to the piece they end.
func cut(text string, offset int, seps []string, size int, ends []int) []int {
	if utf8.RuneCountInString(text) <= size {
		return append(ends, offset+len(text))
	}
	sep, rest := seps[0], seps[1:]
	if sep == "" {
		for i := range text {
			if i > 0 {
				ends = append(ends, offset+i)
			}
		}
		return append(ends, offset+len(text))
	}
	if !strings.Contains(text, sep) {
		return cut(text, offset, rest, size, ends)
	}
	for _, part := range strings.SplitAfter(text, sep) {
		if part == "" {
			continue
		}
		ends = cut(part, offset, rest, size, ends)
		offset += len(part)
	}
	return ends
}

// clip moves an overlap start forward to the earliest position just after a
// non-empty separator within text[from:to]. It returns from when there is none.
func clip(text string, from, to int, seps []string) int {
	window := text[from:to]
	best := -1
	for _, sep := range seps {
		if sep == "" {
			continue
		}
		i := strings.Index(window, sep)
		if i < 0 {
			continue
		}
		pos := i + len(sep)
		if pos < len(window) && (best < 0 || pos < best) {
			best = pos
		}
	}
	if best < 0 {
		return from
	}
	return from + best
}

// runeIndex converts between code point and byte offsets.
type runeIndex struct {
	starts []int // byte offset of each rune, plus len(text)
}

func newRuneIndex(text string) runeIndex {
	starts := make([]int, 0, len(text)+1)
	for i := range text {
		starts = append(starts, i)
	}
	return runeIndex{starts: append(starts, len(text))}
}

func (r runeIndex) byteAt(runePos int) int {
	return r.starts[runePos]
}

func (r runeIndex) runeAt(bytePos int) int {
	i, _ := slices.BinarySearch(r.starts, bytePos)
	return i
}
