package ring

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds the number of concurrent readers of one bucket.
const maxReaders = 1 << 30

// rwLock is a reader/writer lock whose write side can be abandoned through
// a context. A writer takes the whole semaphore; waiters are served FIFO,
// so readers arriving after a waiting writer queue behind it.
type rwLock struct {
	sem *semaphore.Weighted
}

func newRWLock() *rwLock {
	return &rwLock{sem: semaphore.NewWeighted(maxReaders)}
}

func (l *rwLock) rLock() {
	// Acquire only fails on context cancellation.
	_ = l.sem.Acquire(context.Background(), 1)
}

func (l *rwLock) rUnlock() {
	l.sem.Release(1)
}

// tryLock acquires the write side only if it is free right now.
func (l *rwLock) tryLock() bool {
	return l.sem.TryAcquire(maxReaders)
}

// lock acquires the write side or returns ctx.Err() without holding it.
// Acquire reports a done ctx even when the lock is free, so callers try
// tryLock first.
func (l *rwLock) lock(ctx context.Context) error {
	return l.sem.Acquire(ctx, maxReaders)
}

func (l *rwLock) unlock() {
	l.sem.Release(maxReaders)
}
