// Package parallel runs a function over an index range on several
// goroutines. Renderers take an Executor so the caller owns the lifetime and
// size of the goroutines.
package parallel

import (
	"fmt"
	"runtime"
)

// Executor calls fn once for every index in [0, n) and returns when all
// calls have returned. fn must be safe to call concurrently.
type Executor interface {
	Map(n int, fn func(i int))
}

// Runner is an Executor holding resources that Close releases.
type Runner interface {
	Executor
	Workers() int
	Close()
}

// Serial runs every index on the calling goroutine in order.
type Serial struct{}

func (Serial) Map(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

func (Serial) Workers() int { return 1 }

func (Serial) Close() {}

// New builds the executor called kind ("pool", "group" or "serial") with
// the given number of workers. Zero or negative workers means GOMAXPROCS.
func New(kind string, workers int) (Runner, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	switch kind {
	case "", "pool":
		return NewPool(workers), nil
	case "group":
		return NewGroup(workers), nil
	case "serial":
		return Serial{}, nil
	}
	return nil, fmt.Errorf("unknown executor %q", kind)
}

// chunks splits [0, n) into about perWorker*workers contiguous ranges.
func chunks(n int, workers int, perWorker int) [][2]int {
	if n <= 0 {
		return nil
	}
	size := (n + workers*perWorker - 1) / (workers * perWorker)
	if size < 1 {
		size = 1
	}
	ranges := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}
