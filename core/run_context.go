package core

import (
	"context"

	"github.com/loft/finassist/logging"
)

// AgentInfo carries identifying details about the active agent.
type AgentInfo struct{ Name string }

// RunContext carries the execution scope of one dispatched turn:
//   - The ambient cancellation Context (bounded by the turn timeout)
//   - Identifiers (Identity, ThreadID, RunID, active Agent)
//   - The HopLimiter shared by every step of the turn
//   - A logger pre-populated with the identifiers
type RunContext struct {
	Context  context.Context
	Identity string
	ThreadID string
	RunID    string
	Agent    AgentInfo
	Limiter  *HopLimiter

	*logScope
}

// NewRunContext constructs a RunContext for one turn.
func NewRunContext(
	ctx context.Context,
	identity, threadID, runID string,
	maxHops int,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:  ctx,
		Identity: identity,
		ThreadID: threadID,
		RunID:    runID,
		Limiter:  NewHopLimiter(maxHops),
		logScope: newLogScope(logger, "thread_id", threadID, "run_id", runID),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// WithAgent returns a shallow copy bound to another active agent. The limiter
// is shared so hops are counted across delegations.
func (rc *RunContext) WithAgent(name string) *RunContext {
	c := *rc
	c.Agent = AgentInfo{Name: name}
	return &c
}

// WithContext returns a shallow copy using ctx.
func (rc *RunContext) WithContext(ctx context.Context) *RunContext {
	c := *rc
	c.Context = ctx
	return &c
}
