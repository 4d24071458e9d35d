package semaphore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSemaphore_CeilingNeverExceeded verifies at most N concurrent holders.
func TestSemaphore_CeilingNeverExceeded(t *testing.T) {
	const permits = 3
	const workers = 20

	sem := New(permits)

	var current atomic.Int64
	var peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			require.NoError(t, sem.Acquire(context.Background()))
			defer sem.Release()

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}

	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int64(permits))
	assert.Greater(t, peak.Load(), int64(0))
}

// TestSemaphore_TryAcquire verifies non-blocking acquisition.
func TestSemaphore_TryAcquire(t *testing.T) {
	sem := New(1)

	assert.True(t, sem.TryAcquire())
	assert.False(t, sem.TryAcquire(), "no permit should be free")

	sem.Release()
	assert.True(t, sem.TryAcquire())
	sem.Release()
}

// TestSemaphore_ReleaseWakesWaiter verifies a blocked acquire completes once
// a permit is returned.
func TestSemaphore_ReleaseWakesWaiter(t *testing.T) {
	sem := New(1)
	require.NoError(t, sem.Acquire(context.Background()))

	acquired := make(chan struct{})
	go func() {
		if err := sem.Acquire(context.Background()); err == nil {
			close(acquired)
			sem.Release()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("waiter acquired while permit was held")
	case <-time.After(20 * time.Millisecond):
	}

	sem.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken after release")
	}
}

// TestSemaphore_AcquireRespectsContext verifies cancellation unblocks waiters.
func TestSemaphore_AcquireRespectsContext(t *testing.T) {
	sem := New(1)
	require.NoError(t, sem.Acquire(context.Background()))
	defer sem.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sem.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
