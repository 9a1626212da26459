package ingestion

import (
	"context"
	"sync"

	"github.com/poiesic/vectorize/core"
)

// batchFunc processes one batch and returns the number of chunks it completed.
type batchFunc func(ctx context.Context, batch core.BatchRange) (int, error)

// dispatch runs fn over batches on the worker pool, at most p.concurrency at
// a time and in batch order. It stops dispatching after the first failure or
// on cancellation of ctx. Dispatched batches run on a context detached from
// ctx so they can finish after cancellation; fn bounds them with the call
// timeout.
//
// The returned error is the failure of the lowest failing batch, or a
// KindCancelled error when ctx was cancelled and no batch failed. The count
// is the sum of the chunks completed by all batches.
func (p *Pipeline) dispatch(ctx context.Context, op string, batches []core.BatchRange, progress *progressTracker, fn batchFunc) (int, *core.Error) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		failure   *core.Error
		cancelled *core.Error
	)
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failure != nil
	}

	inflight := context.WithoutCancel(ctx)
	slots := make(chan struct{}, p.concurrency)

	for _, batch := range batches {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
		}
		if err := ctx.Err(); err != nil {
			cancelled = core.NewError(core.KindCancelled, op, err)
			break
		}
		if failed() {
			<-slots
			break
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				<-slots
				cancelled = core.NewError(core.KindCancelled, op, err)
				break
			}
		}

		p.logger.Debug("dispatching batch", "op", op, "batch", batch.Index+1, "chunks", batch.Len())
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			n, err := fn(inflight, batch)

			mu.Lock()
			completed += n
			if err != nil {
				ce := core.WithBatch(core.Classify(op, err), batch)
				if failure == nil || batch.Index < failure.Batch.Index {
					failure = ce
				}
			}
			mu.Unlock()

			progress.add(n)
			<-slots
		})
		if err != nil {
			wg.Done()
			<-slots
			mu.Lock()
			if failure == nil {
				failure = core.WithBatch(core.NewError(core.KindUnknown, op, err), batch)
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if failure != nil {
		return completed, failure
	}
	return completed, cancelled
}
