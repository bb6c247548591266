// Package keepalive pings the service's own public URL so that hosting
// platforms which idle inactive apps keep it awake.
package keepalive

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/logging"
)

const (
	// DefaultIntervalMinutes is used when no interval is configured.
	DefaultIntervalMinutes = 15
	// DefaultTimeout bounds one ping.
	DefaultTimeout = 10 * time.Second
)

// Options holds overrides for New.
type Options struct {
	// Interval overrides the minute-based interval; tests use sub-minute values.
	Interval time.Duration
	Timeout  time.Duration
	Client   *http.Client
	Logger   logging.Logger
}

// Pinger periodically sends a GET to a URL. Start and Stop are safe to call
// repeatedly and from multiple goroutines.
type Pinger struct {
	url      string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
	logger   logging.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a pinger for url every intervalMinutes. An interval below one
// minute is a configuration error. An empty url is allowed; such a pinger
// refuses to start.
func New(url string, intervalMinutes int, optFns ...func(o *Options)) (*Pinger, error) {
	if intervalMinutes < 1 {
		return nil, core.ConfigErrorf("keepalive.New", "interval must be at least 1 minute, got %d", intervalMinutes)
	}

	opts := Options{
		Timeout: DefaultTimeout,
		Client:  http.DefaultClient,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	interval := time.Duration(intervalMinutes) * time.Minute
	if opts.Interval > 0 {
		interval = opts.Interval
	}

	return &Pinger{
		url:      url,
		interval: interval,
		timeout:  opts.Timeout,
		client:   opts.Client,
		logger:   opts.Logger,
	}, nil
}

// Start launches the ping loop and reports whether it is running. Without a
// URL it logs a warning and returns false.
func (p *Pinger) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.logger.Info("keepalive.already_running", "url", p.url)
		return true
	}
	if p.url == "" {
		p.logger.Warn("keepalive.disabled", "reason", "no URL configured, set APP_URL")
		return false
	}

	p.running = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})

	go p.loop(p.stopCh, p.done)

	p.logger.Info("keepalive.started", "url", p.url, "interval", p.interval.String())

	return true
}

// Stop ends the loop and waits for it to exit.
func (p *Pinger) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.done
	p.mu.Unlock()

	<-done
	p.logger.Info("keepalive.stopped", "url", p.url)
}

// Running reports whether the loop is active.
func (p *Pinger) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pinger) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Ping(ctx)

	for {
		select {
		case <-ticker.C:
			p.Ping(ctx)
		case <-stop:
			return
		}
	}
}

// Ping sends one GET and logs the outcome. It never fails the caller and
// returns the status code, or 0 when the request failed.
func (p *Pinger) Ping(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.logger.Error("keepalive.ping.failed", "url", p.url, "error", err.Error())
		return 0
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("keepalive.ping.failed", "url", p.url, "error", err.Error())
		return 0
	}
	defer resp.Body.Close()

	p.logger.Info("keepalive.ping", "url", p.url, "status", resp.StatusCode)

	return resp.StatusCode
}
