// Package initguard runs a startup function at most once no matter how many triggers fire.
package initguard

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
)

// Func is the startup function guarded by a Guard. The context it receives is marked so that
// triggers fired from within the function are recognised as re-entrant.
type Func func(ctx context.Context) error

// Guard coordinates startup triggers.
type Guard interface {
	// Do starts the startup function on the first call and waits for it to finish. Every
	// other call joins the same run and returns its cached result. A call made from within
	// the startup function returns ErrReentrantInit without waiting.
	Do(ctx context.Context) error
	// Done reports whether the startup function has finished.
	Done() bool
	// Wait blocks until a run that has already started finishes. It never starts one.
	Wait(ctx context.Context) error
}

type markerKey struct {
	g *guard
}

type guard struct {
	fn      Func
	once    sync.Once
	started atomic.Bool
	done    chan struct{}
	err     error
}

// New returns a Guard for fn.
func New(fn Func) Guard {
	return &guard{
		fn:   fn,
		done: make(chan struct{}),
	}
}

func (g *guard) Do(ctx context.Context) error {
	if ctx.Value(markerKey{g: g}) != nil {
		return errors.ErrReentrantInit
	}

	g.once.Do(func() {
		g.started.Store(true)
		runCtx := context.WithValue(context.WithoutCancel(ctx), markerKey{g: g}, struct{}{})
		go g.run(runCtx)
	})

	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *guard) Done() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

func (g *guard) Wait(ctx context.Context) error {
	if !g.started.Load() {
		return nil
	}
	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *guard) run(ctx context.Context) {
	defer close(g.done)
	g.err = g.fn(ctx)
}
