// Package semaphore provides a counting semaphore for bounding concurrent
// work against rate-limited external services.
package semaphore

import (
	"context"

	xsemaphore "golang.org/x/sync/semaphore"
)

// Semaphore is a counting semaphore with FIFO wakeup. At most N holders at
// any instant; waiters are woken in acquisition order.
//
// Callers are responsible for releasing on every path:
//
//	if err := sem.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer sem.Release()
type Semaphore struct {
	w *xsemaphore.Weighted
}

// New creates a semaphore with n permits. n must be >= 1.
func New(n int64) *Semaphore {
	if n < 1 {
		n = 1
	}

	return &Semaphore{w: xsemaphore.NewWeighted(n)}
}

// Acquire blocks until a permit is free or ctx is done. On error no permit
// is held and Release must not be called.
func (s *Semaphore) Acquire(ctx context.Context) error {
	return s.w.Acquire(ctx, 1)
}

// TryAcquire takes a permit without blocking, reporting whether it succeeded.
func (s *Semaphore) TryAcquire() bool {
	return s.w.TryAcquire(1)
}

// Release returns a permit, waking the oldest waiter if any.
func (s *Semaphore) Release() {
	s.w.Release(1)
}
