package scrape

import (
	"context"
	"fmt"
	"sync"
)

type poolResult struct {
	extraction Extraction
	err        error
}

type poolTask struct {
	run    func() (Extraction, error)
	result chan poolResult
}

// Pool is the bounded worker pool that absorbs blocking extractors. Its size
// never exceeds the throttle limit, so a batch of slow synchronous calls
// occupies at most that many OS-thread-bound goroutines while the scheduler
// keeps driving the context-aware tasks.
type Pool struct {
	tasks chan poolTask
	wg    sync.WaitGroup
}

// NewPool starts a pool with the given number of workers (minimum 1).
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{tasks: make(chan poolTask)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit schedules run on a pool worker and waits for its result. If ctx is
// done before a worker picks the task up, or while the task executes, Submit
// returns ctx.Err(); an already-running task finishes on its worker and the
// buffered result is discarded.
func (p *Pool) Submit(ctx context.Context, run func() (Extraction, error)) (Extraction, error) {
	task := poolTask{run: run, result: make(chan poolResult, 1)}
	select {
	case p.tasks <- task:
	case <-ctx.Done():
		return Extraction{}, ctx.Err()
	}
	select {
	case res := <-task.result:
		return res.extraction, res.err
	case <-ctx.Done():
		return Extraction{}, ctx.Err()
	}
}

// Close stops accepting work and waits for the workers to drain.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task.result <- runGuarded(task.run)
	}
}

// runGuarded converts a panicking extractor into an error so one bad task
// cannot take the worker down.
func runGuarded(run func() (Extraction, error)) (res poolResult) {
	defer func() {
		if r := recover(); r != nil {
			res = poolResult{err: fmt.Errorf("extractor panic: %v", r)}
		}
	}()
	extraction, err := run()
	return poolResult{extraction: extraction, err: err}
}
