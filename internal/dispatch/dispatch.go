// Package dispatch implements a bounded worker pool for fanning copy and
// fetch work out across goroutines. It generalizes the library's
// internal/preload.Preloader[T] - a single goroutine gated by a
// notify-load-more channel, handing results back on a result channel -
// into a fixed-size pool of goroutines draining a shared job channel, so a
// level's plan generation, cache fill and copy execution can all run with
// worker-count parallelism instead of one task at a time.
package dispatch

import (
	"sync"
	"sync/atomic"
)

// Pool runs jobs submitted via Submit on a fixed number of worker
// goroutines. Unlike Preloader, jobs are plain closures rather than an
// indexed load function; ordering across jobs is the caller's concern
// (the ordering front-end, C9, handles that at the view level).
type Pool struct {
	jobs   chan func()
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New starts workers goroutines, each draining jobs from a shared channel.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{jobs: make(chan func(), workers*4)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Submit enqueues job to run on a worker goroutine. Submit after Stop is a
// no-op; the job is dropped.
func (p *Pool) Submit(job func()) {
	if p.closed.Load() {
		return
	}
	p.jobs <- job
}

// Stop closes the job channel and waits for every worker to drain and
// exit. Safe to call more than once.
func (p *Pool) Stop() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.jobs)
	}
	p.wg.Wait()
}
