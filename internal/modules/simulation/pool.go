package simulation

import (
	"context"
	"sync"
)

// WorkerPool runs independent path simulations on a fixed number of goroutines
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 10 // Default to 10 workers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// jobItem is a path index waiting to be simulated
type jobItem struct {
	index int
}

// resultItem carries a finished job back with its index
type resultItem[T any] struct {
	index int
	value T
	err   error
}

// RunIndexed calls fn for every index in [0, n) across the pool and returns
// the results in index order, so the output never depends on scheduling.
// The first error (or context cancellation) is returned after all workers stop.
func RunIndexed[T any](ctx context.Context, wp *WorkerPool, n int, fn func(i int) (T, error)) ([]T, error) {
	if n <= 0 {
		return []T{}, nil
	}

	jobs := make(chan jobItem, n)
	results := make(chan resultItem[T], n)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if n < numActualWorkers {
		numActualWorkers = n // Don't spawn more workers than jobs
	}

	for w := 0; w < numActualWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := ctx.Err(); err != nil {
					results <- resultItem[T]{index: job.index, err: err}
					continue
				}
				v, err := fn(job.index)
				results <- resultItem[T]{index: job.index, value: v, err: err}
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- jobItem{index: i}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]T, n)
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		out[r.index] = r.value
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
