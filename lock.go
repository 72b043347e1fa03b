package report

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// LockPolicy selects how a resolve-and-render pass coordinates with
// concurrent writers of the live data it reads.
type LockPolicy int

const (
	// LockShared holds a read lock: other readers proceed, writers wait.
	LockShared LockPolicy = iota
	// LockNone reads optimistically and accepts inconsistent snapshots.
	LockNone
	// LockExclusive serializes against all other readers and writers.
	LockExclusive
)

var lockPolicyNames = map[LockPolicy]string{
	LockShared:    "shared",
	LockNone:      "none",
	LockExclusive: "exclusive",
}

// String returns the policy name accepted by ParseLockPolicy.
func (p LockPolicy) String() string {
	if s, ok := lockPolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("LockPolicy(%d)", int(p))
}

// ParseLockPolicy parses "none", "shared", or "exclusive".
func ParseLockPolicy(s string) (LockPolicy, error) {
	for p, name := range lockPolicyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown lock policy %q", ErrValidation, s)
}

// Locker guards live state shared with background writers. Both methods
// block until the lock is held or ctx is done and return the release
// function.
type Locker interface {
	RLock(ctx context.Context) (release func(), err error)
	Lock(ctx context.Context) (release func(), err error)
}

// Guard runs fn while holding l under policy p and releases the lock on every
// exit path. A nil Locker or [LockNone] runs fn without coordination.
func Guard(ctx context.Context, l Locker, p LockPolicy, fn func(context.Context) error) error {
	var (
		release func()
		err     error
	)
	switch {
	case l == nil || p == LockNone:
		return fn(ctx)
	case p == LockShared:
		release, err = l.RLock(ctx)
	case p == LockExclusive:
		release, err = l.Lock(ctx)
	default:
		return fmt.Errorf("%w: unknown lock policy %v", ErrValidation, p)
	}
	if err != nil {
		return fmt.Errorf("acquire %v lock: %w", p, err)
	}
	defer release()
	return fn(ctx)
}

const maxReaders = 1 << 30

// SemaphoreLocker is a reader/writer lock whose acquisition honours context
// cancellation. Readers take one unit of a weighted semaphore, writers take
// all of them. Waiters are served in FIFO order, so a waiting writer holds
// back readers that arrive after it.
type SemaphoreLocker struct {
	sem *semaphore.Weighted
}

// NewSemaphoreLocker returns an unlocked SemaphoreLocker.
func NewSemaphoreLocker() *SemaphoreLocker {
	return &SemaphoreLocker{sem: semaphore.NewWeighted(maxReaders)}
}

// RLock takes one reader slot, waiting until ctx is done.
func (l *SemaphoreLocker) RLock(ctx context.Context) (func(), error) {
	return l.acquire(ctx, 1)
}

// Lock takes every slot, waiting until ctx is done.
func (l *SemaphoreLocker) Lock(ctx context.Context) (func(), error) {
	return l.acquire(ctx, maxReaders)
}

func (l *SemaphoreLocker) acquire(ctx context.Context, n int64) (func(), error) {
	if err := l.sem.Acquire(ctx, n); err != nil {
		return nil, err
	}
	return func() { l.sem.Release(n) }, nil
}

// RWMutexLocker adapts an existing sync.RWMutex shared with writers that do
// not know about contexts. An acquisition abandoned on ctx is released as
// soon as it completes.
type RWMutexLocker struct {
	Mu *sync.RWMutex
}

// RLock read-locks Mu, giving up when ctx is done.
func (l RWMutexLocker) RLock(ctx context.Context) (func(), error) {
	return waitFor(ctx, l.Mu.RLock, l.Mu.RUnlock)
}

// Lock write-locks Mu, giving up when ctx is done.
func (l RWMutexLocker) Lock(ctx context.Context) (func(), error) {
	return waitFor(ctx, l.Mu.Lock, l.Mu.Unlock)
}

func waitFor(ctx context.Context, lock, unlock func()) (func(), error) {
	acquired := make(chan struct{})
	go func() {
		lock()
		close(acquired)
	}()
	select {
	case <-acquired:
		return unlock, nil
	case <-ctx.Done():
		go func() {
			<-acquired
			unlock()
		}()
		return nil, ctx.Err()
	}
}
