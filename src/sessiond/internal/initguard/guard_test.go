package initguard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDo(t *testing.T) {
	t.Run("concurrent triggers share one run", func(t *testing.T) {
		var calls atomic.Int32
		release := make(chan struct{})
		g := New(func(ctx context.Context) error {
			calls.Add(1)
			<-release
			return nil
		})

		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = g.Do(context.Background())
			}(i)
		}
		time.Sleep(10 * time.Millisecond)
		assert.False(t, g.Done())
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.True(t, g.Done())
	})

	t.Run("result is cached", func(t *testing.T) {
		var calls atomic.Int32
		want := errors.New("boom")
		g := New(func(ctx context.Context) error {
			calls.Add(1)
			return want
		})
		assert.ErrorIs(t, g.Do(context.Background()), want)
		assert.ErrorIs(t, g.Do(context.Background()), want)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("re-entrant trigger does not deadlock", func(t *testing.T) {
		var inner error
		var g Guard
		g = New(func(ctx context.Context) error {
			inner = g.Do(ctx)
			return nil
		})
		require.NoError(t, g.Do(context.Background()))
		assert.ErrorIs(t, inner, errors.ErrReentrantInit)
	})

	t.Run("cancelled trigger leaves the run going", func(t *testing.T) {
		release := make(chan struct{})
		g := New(func(ctx context.Context) error {
			<-release
			return ctx.Err()
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, g.Do(ctx), context.Canceled)

		close(release)
		assert.NoError(t, g.Do(context.Background()))
	})
}

func TestWait(t *testing.T) {
	t.Run("never started", func(t *testing.T) {
		var calls atomic.Int32
		g := New(func(ctx context.Context) error {
			calls.Add(1)
			return nil
		})
		assert.NoError(t, g.Wait(context.Background()))
		assert.False(t, g.Done())
		assert.Zero(t, calls.Load())
	})

	t.Run("waits for a started run", func(t *testing.T) {
		release := make(chan struct{})
		want := errors.New("late")
		g := New(func(ctx context.Context) error {
			<-release
			return want
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = g.Do(ctx)

		timeout, stop := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer stop()
		assert.ErrorIs(t, g.Wait(timeout), context.DeadlineExceeded)

		close(release)
		assert.ErrorIs(t, g.Wait(context.Background()), want)
		assert.True(t, g.Done())
	})
}
