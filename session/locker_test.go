package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Basic(t *testing.T) {
	l := NewLocker()

	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, l.ActiveCount())

	unlock()
	unlock() // idempotent
	assert.Equal(t, 0, l.ActiveCount())
}

func TestLocker_FIFOOrder(t *testing.T) {
	l := NewLocker()

	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	const waiters = 5
	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			u, err := l.Lock(context.Background(), "a")
			if err != nil {
				t.Errorf("Lock %d: %v", n, err)
				return
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			u()
		}(i)
		// let waiter i enqueue before i+1
		require.Eventually(t, func() bool {
			l.mu.Lock()
			defer l.mu.Unlock()
			return len(l.queues["a"]) == i+2
		}, time.Second, time.Millisecond)
	}

	unlock()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, l.ActiveCount())
}

func TestLocker_IndependentKeys(t *testing.T) {
	l := NewLocker()

	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocker_CancelledWaiterLeavesQueue(t *testing.T) {
	l := NewLocker()

	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, 0, l.ActiveCount())

	next, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	next()
}

func TestLocker_TryLock(t *testing.T) {
	l := NewLocker()

	unlock, ok := l.TryLock("a")
	require.True(t, ok)

	_, ok = l.TryLock("a")
	assert.False(t, ok)

	unlock()
	_, ok = l.TryLock("a")
	assert.True(t, ok)
}
