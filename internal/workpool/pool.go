// Package workpool provides a small bounded goroutine pool used to bound
// fan-out when pure, parallelizable work needs to run concurrently without
// spawning one goroutine per item.
//
// Adapted from gitrdm-gokando's internal/parallel.WorkerPool, which bounded
// concurrent miniKanren goal evaluation. schedcore's workload is
// structurally different (short, bounded batches per scheduling step rather
// than long-lived goal streams), so the dynamic worker-count scaling and
// deadlock detector from the original are not carried over. What's kept
// is the same shape: a fixed worker count, a task
// channel, and a WaitGroup draining submitted work.
package workpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool runs submitted tasks on a fixed number of worker goroutines.
type Pool struct {
	tasks     chan func()
	wg        sync.WaitGroup
	once      sync.Once
	closeOnce sync.Once
	done      chan struct{}

	submitted int64
	completed int64
}

// New creates a Pool with workers goroutines. If workers <= 0, it defaults
// to runtime.NumCPU().
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		tasks: make(chan func(), workers*4),
		done:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case fn, ok := <-p.tasks:
			if !ok {
				return
			}
			fn()
			atomic.AddInt64(&p.completed, 1)
		case <-p.done:
			return
		}
	}
}

// Go submits fn to run on a worker goroutine.
func (p *Pool) Go(fn func()) {
	atomic.AddInt64(&p.submitted, 1)
	p.tasks <- fn
}

// Stats reports how many tasks have been submitted and completed so far.
func (p *Pool) Stats() (submitted, completed int64) {
	return atomic.LoadInt64(&p.submitted), atomic.LoadInt64(&p.completed)
}

// Close stops accepting new tasks and waits for in-flight tasks to drain.
// Close is idempotent.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}

// MapBounded runs fn(i) for i in [0,n) across the pool's workers and
// blocks until all calls complete. It is the shape the predictor's
// aggregation sweep uses to compute per-partner contributions
// concurrently (spec.md §4.4/§5: "may be computed in parallel... the work
// is pure").
func MapBounded(p *Pool, n int, fn func(i int)) {
	if p == nil || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		p.Go(func() {
			defer wg.Done()
			fn(i)
		})
	}
	wg.Wait()
}
