// Package job runs the top-level tasks of a generated program.
package job

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is a task of the program. It returns when ctx is done or its work is
// finished.
type Job func(ctx context.Context) error

// Run starts every job and waits for all of them. The first failure cancels
// the others and is returned.
func Run(ctx context.Context, jobs ...Job) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		if j == nil {
			continue
		}
		j := j
		g.Go(func() error { return j(ctx) })
	}
	return g.Wait()
}

// Noop does nothing.
func Noop() Job {
	return func(context.Context) error { return nil }
}
