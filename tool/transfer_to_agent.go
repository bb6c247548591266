package tool

import (
	"fmt"
	"slices"
	"strings"

	"github.com/loft/finassist/core"
)

// TransferToAgentName is the reserved name of the delegation tool.
const TransferToAgentName = "transfer_to_agent"

// transferToAgentTool requests orchestration transfer to a named delegate.
type transferToAgentTool struct {
	targets []string
}

// NewTransferToAgentTool constructs the transfer tool offered to routers. The
// target names are advertised to the model as an enum; whether the named agent
// is actually a delegate is decided by the dispatcher.
func NewTransferToAgentTool(targets ...string) Tool {
	return &transferToAgentTool{targets: slices.Clone(targets)}
}

func (t *transferToAgentTool) Name() string { return TransferToAgentName }

func (t *transferToAgentTool) Description() string {
	return "Transfer the conversation to the specialised agent best suited to answer the user."
}

func (t *transferToAgentTool) Parameters() map[string]any {
	agent := map[string]any{"type": "string", "description": "Target agent name"}
	if len(t.targets) > 0 {
		enum := make([]any, len(t.targets))
		for i, name := range t.targets {
			enum[i] = name
		}
		agent["enum"] = enum
	}

	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"agent": agent},
		"required":   []string{"agent"},
	}
}

func (t *transferToAgentTool) Fields() []Param {
	return []Param{{
		Name:        "agent",
		Type:        "string",
		Description: "Target agent name",
	}}
}

func (t *transferToAgentTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	raw, ok := args["agent"]
	if !ok {
		return nil, &ToolError{Tool: TransferToAgentName, Message: "missing required field 'agent'", Code: CodeValidation,
			Details: &ValidationError{Field: "agent", Message: "required field is missing"}}
	}
	agentName, ok := raw.(string)
	if !ok || strings.TrimSpace(agentName) == "" {
		return nil, &ToolError{Tool: TransferToAgentName, Message: fmt.Sprintf("field 'agent' must be a non-empty string, got %v", raw), Code: CodeValidation,
			Details: &ValidationError{Field: "agent", Value: raw, Message: "must be a non-empty string"}}
	}
	tc.TransferToAgent(agentName)
	return map[string]any{"transferred": true, "agent": agentName}, nil
}
