package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of goroutines fed from one job queue. Map splits the
// index range into chunks so workers that finish early pick up more work.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	jobs    chan func()
	wg      sync.WaitGroup
	running atomic.Bool
	mu      sync.RWMutex
}

// NewPool starts workers goroutines. Zero or negative workers means GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		jobs:    make(chan func(), workers*4),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Map runs fn over [0, n) on the pool and waits for it. After Close it runs
// on the calling goroutine instead.
func (p *Pool) Map(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	p.mu.RLock()
	if !p.running.Load() {
		p.mu.RUnlock()
		Serial{}.Map(n, fn)
		return
	}

	var done sync.WaitGroup
	for _, r := range chunks(n, p.workers, 4) {
		done.Add(1)
		start, end := r[0], r[1]
		p.jobs <- func() {
			defer done.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}
	}
	p.mu.RUnlock()

	done.Wait()
}

// Workers returns the number of goroutines in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Close stops the workers once queued work is done. It is safe to call
// more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.jobs)
	p.wg.Wait()
}
