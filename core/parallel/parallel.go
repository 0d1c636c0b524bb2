// Package parallel splits row loops into chunks processed by one goroutine
// per CPU core.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// chunks returns the [start, end) ranges covering items, one per worker.
func chunks(items int) [][2]int {
	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	ranges := make([][2]int, 0, numWorkers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// Parallelize divides items according to the number of CPU cores and
// executes fn in parallel for each range (start, end).
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	var wg sync.WaitGroup
	for _, r := range chunks(items) {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(r[0], r[1])
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of
// items exceeds threshold. A threshold <= 0 always runs sequentially.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if threshold <= 0 || items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEachRow calls fn for every row in [0, items), in parallel chunks when
// items exceeds threshold. ctx is checked before each row; the first error
// returned by fn or by ctx stops the remaining rows and is returned.
func ForEachRow(ctx context.Context, items, threshold int, fn func(i int) error) error {
	if items <= 0 {
		return ctx.Err()
	}
	run := func(start, end int, stop func() bool) error {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if stop() {
				return nil
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	if threshold <= 0 || items <= threshold {
		return run(0, items, func() bool { return false })
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	stopped := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}
	Parallelize(items, func(start, end int) {
		if err := run(start, end, stopped); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	})
	return firstErr
}
