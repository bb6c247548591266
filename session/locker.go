package session

import (
	"context"
	"fmt"
	"sync"
)

// Locker provides per-identity mutual exclusion with FIFO hand-off: waiters
// for the same identity acquire the lock in the order they called Lock.
// Different identities never block each other.
type Locker struct {
	mu     sync.Mutex
	queues map[string][]chan struct{}
}

// NewLocker creates an empty locker.
func NewLocker() *Locker {
	return &Locker{queues: make(map[string][]chan struct{})}
}

// Lock blocks until the caller holds the lock for key or ctx is done. The
// returned unlock function MUST be called exactly once when the work is
// complete; extra calls are ignored.
func (l *Locker) Lock(ctx context.Context, key string) (unlock func(), err error) {
	ticket := make(chan struct{})

	l.mu.Lock()
	queue := append(l.queues[key], ticket)
	l.queues[key] = queue
	if len(queue) == 1 {
		close(ticket)
	}
	l.mu.Unlock()

	select {
	case <-ticket:
		return l.releaser(key, ticket), nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-ticket:
		// granted while giving up; pass it on
		l.releaseLocked(key, ticket)
	default:
		l.removeLocked(key, ticket)
	}

	return nil, fmt.Errorf("session lock: %w", ctx.Err())
}

// TryLock acquires the lock for key only if nobody holds or awaits it.
func (l *Locker) TryLock(key string) (unlock func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queues[key]) > 0 {
		return nil, false
	}

	ticket := make(chan struct{})
	close(ticket)
	l.queues[key] = []chan struct{}{ticket}

	return l.releaser(key, ticket), true
}

// ActiveCount returns the number of keys with a holder or waiters.
func (l *Locker) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.queues)
}

func (l *Locker) releaser(key string, ticket chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.releaseLocked(key, ticket)
		})
	}
}

// releaseLocked drops the head ticket and wakes the next waiter.
func (l *Locker) releaseLocked(key string, ticket chan struct{}) {
	queue := l.queues[key]
	if len(queue) == 0 || queue[0] != ticket {
		return
	}

	queue = queue[1:]
	if len(queue) == 0 {
		delete(l.queues, key)
		return
	}

	l.queues[key] = queue
	close(queue[0])
}

func (l *Locker) removeLocked(key string, ticket chan struct{}) {
	queue := l.queues[key]
	for i, t := range queue {
		if t == ticket {
			queue = append(queue[:i:i], queue[i+1:]...)
			break
		}
	}

	if len(queue) == 0 {
		delete(l.queues, key)
		return
	}

	l.queues[key] = queue
}
