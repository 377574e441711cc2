package service

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// fileExecutor runs a function over a list of files with bounded
// concurrency. Results are delivered by index so callers keep input
// order regardless of completion order.
type fileExecutor struct {
	maxConcurrency int
	timeout        time.Duration
}

func newFileExecutor(maxConcurrency int, timeout time.Duration) *fileExecutor {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}
	return &fileExecutor{
		maxConcurrency: maxConcurrency,
		timeout:        timeout,
	}
}

// run invokes fn for every file. fn must be safe to call from multiple
// goroutines. Cancellation stops scheduling new files; files already in
// flight observe it through their own context
func (e *fileExecutor) run(ctx context.Context, files []string, fn func(ctx context.Context, index int, path string)) error {
	if len(files) == 0 {
		return nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	semaphore := make(chan struct{}, e.maxConcurrency)
	var wg sync.WaitGroup

	for i, path := range files {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(index int, p string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			fn(ctx, index, p)
		}(i, path)
	}

	wg.Wait()
	return ctx.Err()
}
