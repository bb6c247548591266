package flow

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/loft/finassist/agent"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/tool"
)

// ToolResult is the outcome of one function call.
type ToolResult struct {
	Turn    core.Turn        // tool-role response turn, actions applied
	Args    map[string]any   // decoded arguments (nil if undecodable)
	Err     error            // nil on success
	Actions core.TurnActions // actions requested by the tool
}

// FunctionExecutor executes a single function call and builds its response
// turn. Implementations must:
//   - Respect runCtx.Context cancellation
//   - Never panic (recover internally and report an execution error)
//   - Apply ToolContext accumulated actions to the response turn
type FunctionExecutor interface {
	Execute(runCtx *core.RunContext, author string, impl tool.Tool, fc core.FunctionCall) ToolResult
}

// inlineExecutor runs calls synchronously on the dispatch goroutine.
type inlineExecutor struct{}

// NewInlineExecutor returns the default executor.
func NewInlineExecutor() FunctionExecutor { return inlineExecutor{} }

func (inlineExecutor) Execute(runCtx *core.RunContext, author string, impl tool.Tool, fc core.FunctionCall) ToolResult {
	toolCtx := core.NewToolContext(runCtx, fc.ID)
	start := time.Now()

	var (
		args   map[string]any
		result any
		err    error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = &tool.ToolError{Tool: fc.Name, Message: "panic recovered", Code: tool.CodeExecution, Details: panicError(r)}
				runCtx.LogError("dispatch.tool.panic", "agent", author, "tool", fc.Name, "recover", r)
			}
		}()
		args, err = decodeArgs(fc)
		if err != nil {
			return
		}
		result, err = impl.Call(toolCtx, args)
	}()

	runCtx.LogInfo(
		"dispatch.tool.executed",
		"agent", author,
		"tool", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	turn := core.NewFunctionResponseTurn(runCtx.RunID, author, fc.ID, fc.Name, result, err)
	toolCtx.ApplyActions(&turn)

	return ToolResult{Turn: turn, Args: args, Err: err, Actions: toolCtx.Actions()}
}

// refuse builds the tool-error response for a call that was not executed.
func refuse(runCtx *core.RunContext, author string, fc core.FunctionCall, code, format string, args ...any) ToolResult {
	err := &tool.ToolError{Tool: fc.Name, Message: fmt.Sprintf(format, args...), Code: code}
	return ToolResult{
		Turn: core.NewFunctionResponseTurn(runCtx.RunID, author, fc.ID, fc.Name, nil, err),
		Err:  err,
	}
}

func decodeArgs(fc core.FunctionCall) (map[string]any, error) {
	argMap := map[string]any{}
	if fc.Arguments == "" {
		return argMap, nil
	}
	if err := json.Unmarshal([]byte(fc.Arguments), &argMap); err != nil {
		return nil, &tool.ToolError{
			Tool:    fc.Name,
			Message: fmt.Sprintf("failed to unmarshal args: %v", err),
			Code:    tool.CodeValidation,
			Details: &tool.ValidationError{Message: "arguments are not a JSON object"},
		}
	}
	return argMap, nil
}

// panicError converts a recovered panic value to an error.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// toolDefinitions lists the tools offered to the model for a.
func toolDefinitions(a *agent.Agent) []tool.Tool {
	if a.IsRouter() {
		return []tool.Tool{tool.NewTransferToAgentTool(a.DelegateNames()...)}
	}
	return a.Tools()
}
