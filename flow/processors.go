package flow

import (
	"fmt"
	"time"

	"github.com/loft/finassist/agent"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/model"
)

// InstructionsProcessor renders the active agent's instructions.
type InstructionsProcessor struct {
	now func() time.Time
}

// NewInstructionsProcessor creates a new instructions processor. A nil clock
// means time.Now.
func NewInstructionsProcessor(now func() time.Time) *InstructionsProcessor {
	if now == nil {
		now = time.Now
	}
	return &InstructionsProcessor{now: now}
}

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets the rendered instructions on the request.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, active *agent.Agent, _ core.Transcript) error {
	instructions, err := active.Instruction().Render(runCtx, p.now())
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("dispatch.instruction.resolved", "agent", active.Name(), "length", len(instructions))

	req.Agent = active.Name()
	req.Instructions = instructions

	return nil
}

// ContentsProcessor copies the conversation history into the request.
type ContentsProcessor struct {
	maxHistory int
}

// NewContentsProcessor creates a new contents processor. maxHistory < 1
// keeps the whole transcript.
func NewContentsProcessor(maxHistory int) *ContentsProcessor {
	return &ContentsProcessor{maxHistory: maxHistory}
}

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest adds the transcript contents to the request. When the
// history is trimmed the cut never starts on a tool response, so every tool
// result still follows the call that produced it.
func (p *ContentsProcessor) ProcessRequest(_ *core.RunContext, req *model.Request, _ *agent.Agent, transcript core.Transcript) error {
	turns := transcript
	if p.maxHistory > 0 && len(turns) > p.maxHistory {
		turns = turns[len(turns)-p.maxHistory:]
		for len(turns) > 0 && turns[0].Role() == core.RoleTool {
			turns = turns[1:]
		}
	}

	req.Contents = turns.Contents()

	return nil
}

// ToolsProcessor declares the tools a model may call. Routers are offered
// only the transfer tool plus their delegates as handoffs.
type ToolsProcessor struct{}

// NewToolsProcessor creates a new tools processor.
func NewToolsProcessor() *ToolsProcessor { return &ToolsProcessor{} }

// Name returns the processor's identifier.
func (p *ToolsProcessor) Name() string { return "tools" }

// ProcessRequest sets Tools and Handoffs on the request.
func (p *ToolsProcessor) ProcessRequest(_ *core.RunContext, req *model.Request, active *agent.Agent, _ core.Transcript) error {
	tools := toolDefinitions(active)
	req.Tools = make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		req.Tools = append(req.Tools, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	req.Handoffs = nil
	for _, d := range active.Delegates() {
		req.Handoffs = append(req.Handoffs, model.Handoff{
			Name:        d.Name(),
			Description: d.Description(),
			Keywords:    d.RoutingKeywords(),
		})
	}

	return nil
}
