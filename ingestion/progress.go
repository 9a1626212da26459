package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progressTracker reports chunk progress of one stage to a writer.
// A nil tracker discards all calls.
type progressTracker struct {
	writer       io.Writer
	label        string
	total        int
	current      int
	interval     int
	lastReported int
	startTime    time.Time
	mu           sync.Mutex
}

// newProgressTracker returns a tracker for total chunks, reporting every
// interval chunks, or nil when writer is nil.
func newProgressTracker(writer io.Writer, label string, total, interval int) *progressTracker {
	if writer == nil {
		return nil
	}
	return &progressTracker{
		writer:    writer,
		label:     label,
		total:     total,
		interval:  max(interval, 1),
		startTime: time.Now(),
	}
}

// add records delta more completed chunks.
func (p *progressTracker) add(delta int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = min(p.current+delta, p.total)
	if p.current-p.lastReported >= p.interval {
		p.report()
		p.lastReported = p.current
	}
}

// finish prints the final line and ends it with a newline.
func (p *progressTracker) finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.report()
	fmt.Fprintln(p.writer)
}

// report prints the current progress. Must be called with lock held.
func (p *progressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\r%s: %d/%d (%.1f%%) - %.1f chunks/s",
		p.label, p.current, p.total, percentage, rate)
}
