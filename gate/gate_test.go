package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_AcquireRelease(t *testing.T) {
	g := New()

	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
}

func TestGate_TryAcquire(t *testing.T) {
	g := New()

	assert.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire())
	g.Release()
	assert.True(t, g.TryAcquire())
	g.Release()
}

func TestGate_AcquireHonorsCancellation(t *testing.T) {
	g := New()
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Acquire(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}

	g.Release()
}

func TestGate_MutualExclusion(t *testing.T) {
	g := New()

	var inside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, g.Acquire(context.Background()))
			defer g.Release()

			assert.Equal(t, int32(1), atomic.AddInt32(&inside, 1))
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
}

func TestGate_ReleaseUnheldPanics(t *testing.T) {
	g := New()
	assert.Panics(t, func() { g.Release() })
}
