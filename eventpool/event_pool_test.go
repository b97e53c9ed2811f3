package eventpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecutesTasks(t *testing.T) {
	t.Run("single task runs", func(t *testing.T) {
		p := NewPool(2, 4)
		defer p.Close()

		done := make(chan struct{})
		require.NoError(t, p.Submit(func() { close(done) }))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("task was not executed")
		}
	})

	t.Run("all submitted tasks run", func(t *testing.T) {
		p := NewPool(4, 16)

		const tasks = 100
		var counter atomic.Int64
		var wg sync.WaitGroup

		for i := 0; i < tasks; i++ {
			wg.Add(1)
			require.NoError(t, p.Submit(func() {
				defer wg.Done()
				counter.Add(1)
			}))
		}

		wg.Wait()
		p.Close()
		assert.Equal(t, int64(tasks), counter.Load())
	})

	t.Run("nil task is ignored", func(t *testing.T) {
		p := NewPool(1, 1)
		defer p.Close()
		assert.NoError(t, p.Submit(nil))
	})
}

func TestPoolClose(t *testing.T) {
	t.Run("submit after close is rejected", func(t *testing.T) {
		p := NewPool(1, 1)
		p.Close()

		assert.True(t, p.IsClosed())
		assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
	})

	t.Run("close drains queued tasks", func(t *testing.T) {
		p := NewPool(1, 8)

		var counter atomic.Int64
		for i := 0; i < 8; i++ {
			require.NoError(t, p.Submit(func() { counter.Add(1) }))
		}

		p.Close()
		assert.Equal(t, int64(8), counter.Load())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		p := NewPool(1, 1)
		assert.NotPanics(t, func() {
			p.Close()
			p.Close()
		})
	})

	t.Run("concurrent submit and close do not panic", func(t *testing.T) {
		p := NewPool(2, 4)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					_ = p.Submit(func() {})
				}
			}()
		}

		time.Sleep(time.Millisecond)
		p.Close()
		wg.Wait()
	})
}

func TestPoolPanicRecovery(t *testing.T) {
	p := NewPool(1, 4)
	defer p.Close()

	require.NoError(t, p.Submit(func() { panic("task blew up") }))

	// The same worker must survive and keep executing.
	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
}

func TestPoolClampsSizes(t *testing.T) {
	p := NewPool(0, -3)
	defer p.Close()

	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("clamped pool did not execute")
	}
}
