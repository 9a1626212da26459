// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/vectorize/core"
)

// RetryWithBackoff retries an operation with exponential backoff while
// retryable reports the error as worth retrying.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration, retryable func(error) bool) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if attempt == maxAttempts || (retryable != nil && !retryable(lastErr)) {
			break
		}
		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		// baseDelay * 2^(attempt-1)
		delay := baseDelay << (attempt - 1)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// IsTransient reports whether err is a rate limit or timeout failure.
func IsTransient(err error) bool {
	return core.KindOf(err).Transient()
}

type retryingEmbedder struct {
	next        Embedder
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetryingEmbedder wraps e so that transient failures are retried up to
// maxAttempts times in total. Non-transient failures are returned at once.
// A maxAttempts below 2 returns e unchanged.
func NewRetryingEmbedder(e Embedder, maxAttempts int, baseDelay time.Duration) Embedder {
	if e == nil || maxAttempts < 2 {
		return e
	}
	return &retryingEmbedder{next: e, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

func (r *retryingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = r.next.EmbedText(ctx, text)
		return err
	}, r.maxAttempts, r.baseDelay, IsTransient)
	return vector, err
}

func (r *retryingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = r.next.EmbedTexts(ctx, texts)
		return err
	}, r.maxAttempts, r.baseDelay, IsTransient)
	return vectors, err
}
