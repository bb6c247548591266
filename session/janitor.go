package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/logging"
)

// JanitorOptions configures a Janitor.
type JanitorOptions struct {
	Interval time.Duration // sweep period; defaults to 1m
	Logger   logging.Logger
	Now      func() time.Time
}

// Janitor periodically deletes sessions idle for longer than a TTL. Sessions
// whose identity is currently locked are skipped and retried on the next
// sweep.
type Janitor struct {
	store    core.SessionStore
	locker   *Locker
	ttl      time.Duration
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// NewJanitor creates a janitor for store. A ttl < 1 is a configuration error.
func NewJanitor(store core.SessionStore, locker *Locker, ttl time.Duration, optFns ...func(o *JanitorOptions)) (*Janitor, error) {
	const op = "session.NewJanitor"

	if store == nil {
		return nil, core.ConfigErrorf(op, "session store is required")
	}
	if ttl <= 0 {
		return nil, core.ConfigErrorf(op, "session ttl must be positive, got %s", ttl)
	}

	opts := JanitorOptions{
		Interval: time.Minute,
		Logger:   logging.NoOpLogger{},
		Now:      time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Interval <= 0 {
		return nil, core.ConfigErrorf(op, "sweep interval must be positive, got %s", opts.Interval)
	}
	if locker == nil {
		locker = NewLocker()
	}

	return &Janitor{
		store:    store,
		locker:   locker,
		ttl:      ttl,
		interval: opts.Interval,
		logger:   opts.Logger,
		now:      opts.Now,
	}, nil
}

// Start schedules periodic sweeps. Calling Start twice is a no-op.
func (j *Janitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.started {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		if _, err := j.Sweep(context.Background()); err != nil {
			j.logger.Warn("session.janitor.sweep_failed", "error", err.Error())
		}
	}); err != nil {
		return core.ConfigErrorf("session.Janitor.Start", "invalid sweep schedule: %v", err)
	}

	c.Start()
	j.cron = c
	j.started = true

	j.logger.Info("session.janitor.started", "ttl", j.ttl.String(), "interval", j.interval.String())

	return nil
}

// Stop cancels future sweeps and waits for a running one to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.started = false
	j.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Sweep deletes idle sessions once and returns how many were removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.ttl)
	idle, err := j.store.Idle(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, identity := range idle {
		unlock, ok := j.locker.TryLock(identity)
		if !ok {
			continue
		}
		deleted, err := j.evict(ctx, identity, cutoff)
		unlock()
		if err != nil {
			return removed, err
		}
		if deleted {
			removed++
		}
	}

	if removed > 0 {
		j.logger.Info("session.janitor.evicted", "count", removed)
	}

	return removed, nil
}

// evict deletes the session unless it was touched after the idle listing.
func (j *Janitor) evict(ctx context.Context, identity string, cutoff time.Time) (bool, error) {
	sess, err := j.store.Get(ctx, identity)
	if errors.Is(err, core.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !sess.Updated.Before(cutoff) {
		return false, nil
	}

	return true, j.store.Delete(ctx, identity)
}
