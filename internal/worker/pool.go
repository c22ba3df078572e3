package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of workers
type Pool struct {
	workers int
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the configured worker count
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes every job and returns the results in job order: results[i]
// belongs to jobs[i] regardless of completion order. Jobs are expected to
// observe ctx themselves; Run does not abandon started jobs.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = jobs[i].Execute(ctx)
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)

	wg.Wait()
	return results
}
