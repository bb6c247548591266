package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/core"
)

func TestJanitor_SweepEvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	locker := NewLocker()

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Create(ctx, id)
		require.NoError(t, err)
	}

	later := time.Now().Add(2 * time.Hour)
	j, err := NewJanitor(store, locker, time.Hour, func(o *JanitorOptions) {
		o.Now = func() time.Time { return later }
	})
	require.NoError(t, err)

	busy, err := locker.Lock(ctx, "b")
	require.NoError(t, err)

	removed, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, store.Len())

	busy()
	removed, err = j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, store.Len())
}

func TestJanitor_KeepsFreshSessions(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	_, err := store.Create(ctx, "a")
	require.NoError(t, err)

	j, err := NewJanitor(store, nil, time.Hour)
	require.NoError(t, err)

	removed, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 1, store.Len())
}

func TestJanitor_StartStop(t *testing.T) {
	j, err := NewJanitor(NewInMemoryStore(), nil, time.Hour, func(o *JanitorOptions) {
		o.Interval = 50 * time.Millisecond
	})
	require.NoError(t, err)

	require.NoError(t, j.Start())
	require.NoError(t, j.Start())
	j.Stop()
	j.Stop()
}

func TestNewJanitor_Validation(t *testing.T) {
	_, err := NewJanitor(nil, nil, time.Hour)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = NewJanitor(NewInMemoryStore(), nil, 0)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = NewJanitor(NewInMemoryStore(), nil, time.Hour, func(o *JanitorOptions) { o.Interval = -1 })
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
