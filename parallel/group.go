package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Group starts goroutines per Map call through an errgroup, never more than
// workers at a time.
type Group struct {
	workers int
}

func NewGroup(workers int) *Group {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Group{workers: workers}
}

func (g *Group) Map(n int, fn func(i int)) {
	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for _, r := range chunks(n, g.workers, 4) {
		start, end := r[0], r[1]
		eg.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = eg.Wait()
}

func (g *Group) Workers() int {
	return g.workers
}

func (g *Group) Close() {}
