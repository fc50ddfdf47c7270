// Package limiter bounds how many tasks run at once.
package limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate admits at most a fixed number of concurrent tasks. Waiting callers are
// admitted in arrival order.
type Gate struct {
	sem *semaphore.Weighted
	max int64
}

// New creates a gate with the given width. Non-positive widths are treated as 1.
func New(max int) *Gate {
	if max < 1 {
		max = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(max)), max: int64(max)}
}

// Width returns the maximum number of concurrently admitted tasks.
func (g *Gate) Width() int {
	return int(g.max)
}

// Run blocks until a slot is free, executes task and releases the slot
// whether task returns or panics.
func (g *Gate) Run(ctx context.Context, task func(context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return task(ctx)
}

// Do is Run for tasks producing a value.
func Do[T any](ctx context.Context, g *Gate, task func(context.Context) (T, error)) (T, error) {
	var out T
	err := g.Run(ctx, func(ctx context.Context) error {
		v, err := task(ctx)
		out = v
		return err
	})
	return out, err
}
