package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/flow"
	"github.com/loft/finassist/logging"
	"github.com/loft/finassist/session"
)

// DefaultTurnTimeout bounds one dispatched turn when none is configured.
const DefaultTurnTimeout = 60 * time.Second

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// SessionStore persists transcripts; defaults to an in-memory store.
	SessionStore core.SessionStore
	// Locker serializes turns per identity; share it with the janitor.
	Locker *session.Locker
	// MaxHops bounds tool invocations plus delegations per turn.
	MaxHops int
	// TurnTimeout bounds one dispatched turn.
	TurnTimeout time.Duration
	// Logging services.
	Logger logging.Logger
}

// Result is the outcome of a committed turn.
type Result struct {
	ThreadID        string
	RunID           string
	Reply           string
	LastActiveAgent string
	Hops            int
	Turns           []core.Turn
}

// Runner coordinates turn execution: it serializes per identity, loads the
// session, dispatches and commits. Public methods are safe for concurrent
// use.
type Runner struct {
	dispatcher  *flow.Dispatcher
	store       core.SessionStore
	locker      *session.Locker
	maxHops     int
	turnTimeout time.Duration
	logger      logging.Logger
}

// New constructs a Runner with optional overrides.
func New(dispatcher *flow.Dispatcher, optFns ...func(o *Options)) (*Runner, error) {
	if dispatcher == nil {
		return nil, core.ConfigErrorf("runner.New", "dispatcher is required")
	}

	opts := Options{
		MaxHops:     core.DefaultMaxHops,
		TurnTimeout: DefaultTurnTimeout,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxHops < 1 {
		return nil, core.ConfigErrorf("runner.New", "max hops must be at least 1, got %d", opts.MaxHops)
	}
	if opts.TurnTimeout <= 0 {
		return nil, core.ConfigErrorf("runner.New", "turn timeout must be positive, got %s", opts.TurnTimeout)
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.Locker == nil {
		opts.Locker = session.NewLocker()
	}

	return &Runner{
		dispatcher:  dispatcher,
		store:       opts.SessionStore,
		locker:      opts.Locker,
		maxHops:     opts.MaxHops,
		turnTimeout: opts.TurnTimeout,
		logger:      opts.Logger,
	}, nil
}

// Store returns the session store the runner commits to.
func (r *Runner) Store() core.SessionStore { return r.store }

// Run executes one turn for identity. On error nothing is committed.
func (r *Runner) Run(ctx context.Context, identity, text string) (*Result, error) {
	if identity == "" {
		return nil, core.NewError("runner.Run", core.ErrInvalidArgument, "identity is required")
	}

	unlock, err := r.locker.Lock(ctx, identity)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := r.session(ctx, identity)
	if err != nil {
		return nil, err
	}

	runID := ulid.Make().String()
	logger := logging.With(r.logger, "identity", identity)

	turnCtx, cancel := context.WithTimeout(ctx, r.turnTimeout)
	defer cancel()

	runCtx := core.NewRunContext(turnCtx, identity, sess.ThreadID, runID, r.maxHops, logger)

	start := time.Now()
	outcome, err := r.dispatcher.Dispatch(turnCtx, runCtx, sess.Transcript, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s", core.ErrTurnTimeout, r.turnTimeout)
		}
		runCtx.LogWarn("runner.turn.discarded", "kind", string(core.KindOf(err)), "error", err.Error())
		return nil, err
	}

	if err := r.store.Commit(ctx, identity, outcome.Turns, outcome.LastActiveAgent); err != nil {
		return nil, fmt.Errorf("commit turn: %w", err)
	}

	runCtx.LogInfo(
		"runner.turn.committed",
		"agent", outcome.LastActiveAgent,
		"turns", len(outcome.Turns),
		"hops", outcome.Hops,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		ThreadID:        sess.ThreadID,
		RunID:           runID,
		Reply:           outcome.FinalText,
		LastActiveAgent: outcome.LastActiveAgent,
		Hops:            outcome.Hops,
		Turns:           outcome.Turns,
	}, nil
}

// Reset drops the session for identity so the next message starts fresh.
func (r *Runner) Reset(ctx context.Context, identity string) error {
	unlock, err := r.locker.Lock(ctx, identity)
	if err != nil {
		return err
	}
	defer unlock()

	return r.store.Delete(ctx, identity)
}

func (r *Runner) session(ctx context.Context, identity string) (*core.Session, error) {
	sess, err := r.store.Get(ctx, identity)
	if errors.Is(err, core.ErrSessionNotFound) {
		sess, err = r.store.Create(ctx, identity)
		if err == nil {
			r.logger.Info("runner.session.created", "identity", identity, "thread_id", sess.ThreadID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	return sess, nil
}
