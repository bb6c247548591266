package core

import "context"

// ToolContext is the constrained surface handed to tool implementations. It
// accumulates TurnActions (agent transfer requests) without touching the
// transcript; the dispatcher applies them to the emitted tool turn.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string
	actions        TurnActions

	*logScope
}

// NewToolContext constructs a tool context bound to runCtx and a function call id.
func NewToolContext(runCtx *RunContext, functionCallID string) *ToolContext {
	return &ToolContext{
		runCtx:         runCtx,
		functionCallID: functionCallID,
		logScope:       newLogScope(runCtx.Logger(), "agent", runCtx.Agent.Name, "function_call_id", functionCallID),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// Identity returns the sender identity owning the session.
func (tc *ToolContext) Identity() string { return tc.runCtx.Identity }

// ThreadID returns the session thread id.
func (tc *ToolContext) ThreadID() string { return tc.runCtx.ThreadID }

// RunID returns the id of the running turn.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the name of the agent invoking the tool.
func (tc *ToolContext) AgentName() string { return tc.runCtx.Agent.Name }

// TransferToAgent signals the dispatcher to hand the turn to another agent.
func (tc *ToolContext) TransferToAgent(name string) {
	tc.actions.TransferToAgent = &name
	tc.LogInfo("tool.transfer.request", "to_agent", name)
}

// Actions returns the actions accumulated in the tool context.
func (tc *ToolContext) Actions() TurnActions { return tc.actions }

// ApplyActions merges accumulated actions into the provided turn.
func (tc *ToolContext) ApplyActions(t *Turn) {
	if tc.actions.TransferToAgent != nil {
		t.Actions.TransferToAgent = tc.actions.TransferToAgent
	}
}
