package scraper

import (
	"context"
	"sync"
	"time"
)

// BatchError pairs a failed item with its error.
type BatchError[T any] struct {
	Item T
	Err  error
}

// ProcessBatch drives op over items in fixed windows of at most concurrency
// items. Each window runs concurrently and fully resolves before the next
// window starts; a pacing pause is inserted between windows and skipped
// after the last one. Per-item failures are collected and never abort
// sibling items or later windows, so len(results)+len(errs) == len(items).
func ProcessBatch[T, R any](ctx context.Context, items []T, op func(context.Context, T) (R, error), concurrency int, pause time.Duration) (results []R, errs []BatchError[T]) {
	if concurrency <= 0 {
		concurrency = 1
	}

	for start := 0; start < len(items); start += concurrency {
		if err := ctx.Err(); err != nil {
			for _, item := range items[start:] {
				errs = append(errs, BatchError[T]{Item: item, Err: err})
			}
			return results, errs
		}

		end := start + concurrency
		if end > len(items) {
			end = len(items)
		}
		window := items[start:end]

		windowResults := make([]R, len(window))
		windowErrs := make([]error, len(window))

		var wg sync.WaitGroup
		for i, item := range window {
			wg.Add(1)
			go func(i int, item T) {
				defer wg.Done()
				windowResults[i], windowErrs[i] = op(ctx, item)
			}(i, item)
		}
		wg.Wait()

		for i, item := range window {
			if windowErrs[i] != nil {
				errs = append(errs, BatchError[T]{Item: item, Err: windowErrs[i]})
				continue
			}
			results = append(results, windowResults[i])
		}

		if end < len(items) && pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
			}
		}
	}
	return results, errs
}
