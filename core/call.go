package core

import (
	"context"
	"fmt"
	"time"
)

// CallWithTimeout runs fn bounded by timeout. A non-positive timeout runs fn
// directly. When the deadline passes first, CallWithTimeout returns a
// KindTimeout error for op without waiting for fn to return.
func CallWithTimeout[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-callCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, NewError(KindCancelled, op, ctx.Err())
		}
		return zero, NewError(KindTimeout, op, fmt.Errorf("%w after %s", context.DeadlineExceeded, timeout))
	}
}
