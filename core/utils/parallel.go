package utils

import (
	"golang.org/x/sync/errgroup"
)

// ParallelFor calls f(i) for i in [start, end) with the given step,
// each in its own goroutine, and returns the first non-nil error after
// all calls returned.
func ParallelFor(start, end, step int, f func(i int) error) error {
	var g errgroup.Group
	for i := start; i < end; i += step {
		i := i
		g.Go(func() error { return f(i) })
	}
	return g.Wait()
}
