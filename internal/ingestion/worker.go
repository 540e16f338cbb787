package ingestion

import (
	"context"
	"sync"
)

// Processor is what a worker runs for each job.
type Processor interface {
	Process(ctx context.Context, inputKey string) (*RunResult, error)
}

type WorkerPool struct {
	workers   int
	processor Processor
	jobQueue  chan Job
	wg        sync.WaitGroup
}

type Job struct {
	InputKey string
	Result   chan<- JobResult
}

type JobResult struct {
	InputKey string
	Run      *RunResult
	Error    error
}

func NewWorkerPool(workers int, processor Processor) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers:   workers,
		processor: processor,
		jobQueue:  make(chan Job, workers*2),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx)
	}
}

func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
}

// Submit queues job and reports false if ctx ended first.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) bool {
	select {
	case wp.jobQueue <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

func (wp *WorkerPool) worker(ctx context.Context) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			run, err := wp.processor.Process(ctx, job.InputKey)
			job.Result <- JobResult{
				InputKey: job.InputKey,
				Run:      run,
				Error:    err,
			}
		}
	}
}

// ProcessAll runs every key through the pool and returns the results in the
// order the keys were given.
func ProcessAll(ctx context.Context, workers int, processor Processor, keys []string) []JobResult {
	pool := NewWorkerPool(workers, processor)
	pool.Start(ctx)

	results := make(chan JobResult, len(keys))
	go func() {
		for _, key := range keys {
			if !pool.Submit(ctx, Job{InputKey: key, Result: results}) {
				break
			}
		}
		pool.Stop()
		close(results)
	}()

	byKey := make(map[string]JobResult, len(keys))
	for result := range results {
		byKey[result.InputKey] = result
	}

	ordered := make([]JobResult, 0, len(keys))
	for _, key := range keys {
		result, ok := byKey[key]
		if !ok {
			result = JobResult{InputKey: key, Error: ctx.Err()}
		}
		ordered = append(ordered, result)
	}
	return ordered
}
