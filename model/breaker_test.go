package model

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/core"
)

func TestBreaker_PassesThrough(t *testing.T) {
	mock := NewMockModel("mock", "mock")
	mock.EnqueueText("olá")

	b := NewBreaker(mock)
	resp, err := Complete(context.Background(), b, Request{Contents: []core.Content{userContent("oi")}})
	require.NoError(t, err)
	assert.Equal(t, "olá", resp.Content.Text())
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	failing := Func(func(context.Context, Request) (core.Content, error) {
		calls.Add(1)
		return core.Content{}, errors.New("upstream down")
	})

	b := NewBreaker(failing, func(o *BreakerOptions) {
		o.MaxFailures = 2
		o.Timeout = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := Complete(context.Background(), b, Request{})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrExternalService)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := Complete(context.Background(), b, Request{})
	assert.ErrorIs(t, err, core.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load(), "open circuit must not reach the backend")
}

func TestBreaker_CancellationDoesNotTrip(t *testing.T) {
	mock := NewMockModel("mock", "mock")
	mock.SetBlocking(true)

	b := NewBreaker(mock, func(o *BreakerOptions) { o.MaxFailures = 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Complete(ctx, b, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
