package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/logging"
)

// Default circuit breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerOptions configures the circuit breaker behavior.
type BreakerOptions struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
	Logger   logging.Logger
}

// Breaker wraps a Model with circuit breaker protection. While open, calls
// fail fast with core.ErrCircuitOpen without reaching the backend.
type Breaker struct {
	inner   Model
	breaker *gobreaker.CircuitBreaker[[]Response]
}

// NewBreaker wraps inner with a circuit breaker.
func NewBreaker(inner Model, optFns ...func(o *BreakerOptions)) *Breaker {
	opts := BreakerOptions{
		MaxFailures: defaultBreakerMaxFailures,
		Timeout:     defaultBreakerTimeout,
		Interval:    defaultBreakerInterval,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	maxFailures := opts.MaxFailures
	logger := opts.Logger

	cb := gobreaker.NewCircuitBreaker[[]Response](gobreaker.Settings{
		Name:        "model:" + inner.Info().Provider,
		MaxRequests: 1, // one probe in half-open state
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("model.breaker.state_change", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// a caller abandoning the turn says nothing about backend health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{inner: inner, breaker: cb}
}

// Generate implements Model. The inner stream is drained inside the breaker
// and replayed to the caller, so a failure anywhere in the stream counts.
func (b *Breaker) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		responses, err := b.breaker.Execute(func() ([]Response, error) {
			return drain(ctx, b.inner, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				err = fmt.Errorf("model %q: %w", b.inner.Info().Provider, core.ErrCircuitOpen)
			}
			errCh <- err
			return
		}

		for _, r := range responses {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- r:
			}
		}
	}()

	return out, errCh
}

// Info implements Model.
func (b *Breaker) Info() Info { return b.inner.Info() }

// State returns the current circuit breaker state for monitoring.
func (b *Breaker) State() gobreaker.State { return b.breaker.State() }

func drain(ctx context.Context, m Model, req Request) ([]Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var responses []Response
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			responses = append(responses, r)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %w", core.ErrExternalService, err)
			}
		}
	}

	return responses, nil
}
