package core

import "fmt"

// BatchRange identifies a consecutive slice of chunks.
// Index, Start and End are 0-based; End is exclusive.
type BatchRange struct {
	Index int
	Start int
	End   int
}

// Len returns the number of chunks in the batch.
func (b BatchRange) Len() int {
	return b.End - b.Start
}

// String renders the batch with 1-based numbering, e.g. "batch 2 (chunks 51-100)".
func (b BatchRange) String() string {
	return fmt.Sprintf("batch %d (chunks %d-%d)", b.Index+1, b.Start+1, b.End)
}

// Partition splits n items into consecutive batches of at most size items.
// Returns nil when n is zero. A non-positive size yields a single batch.
func Partition(n, size int) []BatchRange {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	batches := make([]BatchRange, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		batches = append(batches, BatchRange{Index: len(batches), Start: start, End: end})
	}
	return batches
}
