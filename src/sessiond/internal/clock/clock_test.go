package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleep(t *testing.T) {
	c := New()
	start := time.Now()
	c.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestAfterFunc(t *testing.T) {
	c := New()
	var fired atomic.Bool
	done := make(chan struct{})
	c.AfterFunc(5*time.Millisecond, func() {
		fired.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.True(t, fired.Load())
}

func TestAfterFuncStop(t *testing.T) {
	c := New()
	timer := c.AfterFunc(time.Hour, func() {})
	assert.True(t, timer.Stop())
}

func TestFixed(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := Fixed{At: at}

	assert.Equal(t, at, c.Now())
	assert.Equal(t, 15*time.Second, c.Since(at.Add(-15*time.Second)))
	assert.False(t, c.AfterFunc(time.Millisecond, func() { t.Fatal("fired") }).Stop())
}
