package keepalive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/core"
)

func TestNew_RejectsShortInterval(t *testing.T) {
	_, err := New("http://example.com", 0)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestPinger_NoURLDoesNotStart(t *testing.T) {
	p, err := New("", DefaultIntervalMinutes)
	require.NoError(t, err)

	assert.False(t, p.Start())
	assert.False(t, p.Running())
	p.Stop()
}

func TestPinger_PingsUntilStopped(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := New(srv.URL+"/health", 1, func(o *Options) { o.Interval = 10 * time.Millisecond })
	require.NoError(t, err)

	require.True(t, p.Start())
	assert.True(t, p.Start(), "second start is a no-op")

	assert.Eventually(t, func() bool { return hits.Load() >= 3 }, time.Second, 5*time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())

	after := hits.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, after, hits.Load(), "no pings after Stop returns")

	p.Stop()
}

func TestPinger_PingReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	p, err := New(srv.URL, 1, func(o *Options) { o.Timeout = time.Second })
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, p.Ping(context.Background()))

	srv.Close()
	assert.Zero(t, p.Ping(context.Background()))
}

func TestPinger_PingTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p, err := New(srv.URL, 1, func(o *Options) { o.Timeout = 20 * time.Millisecond })
	require.NoError(t, err)

	start := time.Now()
	assert.Zero(t, p.Ping(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}
