// Package flow implements the dispatch loop that turns one inbound user
// message into agent output.
//
// A turn starts at the root (triage) agent. Each step asks the model of the
// active agent for a response and then either finalizes with text, runs a
// declared tool and loops, or delegates to another agent and loops. The loop
// is bounded by the hop limiter carried in core.RunContext and never writes
// to the session; the caller commits Outcome.Turns on success.
package flow

import (
	"github.com/loft/finassist/agent"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/model"
)

// RequestProcessor processes the request before it is sent to the model.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the model request for the active agent. The
	// transcript holds the prior turns plus everything produced so far in the
	// running turn.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, active *agent.Agent, transcript core.Transcript) error
}
