package database

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// ConnGate bounds how many logical units of work (insert/remove/update/
// rekey pass, per spec.md §5) may hold a connection concurrently, ahead
// of the driver pool's own limits. Acquisition is FIFO and blocks until a
// slot frees up or ctx is done.
type ConnGate struct {
	sem *semaphore.Weighted
}

// NewConnGate returns a gate admitting up to weight concurrent units of
// work.
func NewConnGate(weight int64) *ConnGate {
	return &ConnGate{sem: semaphore.NewWeighted(weight)}
}

// Do acquires a slot, runs fn, and releases the slot afterward. It
// returns ctx.Err() without running fn if the slot cannot be acquired
// before ctx is done.
func (g *ConnGate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn(ctx)
}
