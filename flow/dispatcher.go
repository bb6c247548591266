package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/loft/finassist/agent"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/model"
	"github.com/loft/finassist/tool"
)

// TracerName names the tracer dispatch spans are recorded under.
const TracerName = "loft-whatsapp-chatbot"

// EmptyReplyText replaces a blank final answer from the model.
const EmptyReplyText = "Desculpe, não consegui gerar uma resposta. Pode reformular sua pergunta?"

// Options configures a Dispatcher.
type Options struct {
	Executor   FunctionExecutor
	Processors []RequestProcessor
	MaxHistory int              // turns of history sent to the model; < 1 means all
	Now        func() time.Time // clock used for instruction rendering
	Tracer     trace.Tracer
}

// Outcome is the result of a successful dispatch.
type Outcome struct {
	Turns           []core.Turn // new turns only, starting with the user turn
	FinalText       string
	LastActiveAgent string
	Hops            int
	States          []State
}

func (o *Outcome) enter(s State) { o.States = append(o.States, s) }

// Dispatcher runs the dispatch loop over an agent graph. It holds no
// per-session state and is safe for concurrent use.
type Dispatcher struct {
	root       *agent.Agent
	llm        model.Model
	executor   FunctionExecutor
	processors []RequestProcessor
	tracer     trace.Tracer
}

// NewDispatcher validates the agent graph and builds a dispatcher rooted at
// root. Graph problems are configuration errors.
func NewDispatcher(root *agent.Agent, llm model.Model, optFns ...func(o *Options)) (*Dispatcher, error) {
	if err := agent.ValidateGraph(root); err != nil {
		return nil, err
	}
	if llm == nil {
		return nil, core.ConfigErrorf("flow.NewDispatcher", "model is required")
	}

	opts := Options{
		Executor: NewInlineExecutor(),
		Now:      time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Processors == nil {
		opts.Processors = []RequestProcessor{
			NewInstructionsProcessor(opts.Now),
			NewContentsProcessor(opts.MaxHistory),
			NewToolsProcessor(),
		}
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(TracerName)
	}

	return &Dispatcher{
		root:       root,
		llm:        llm,
		executor:   opts.Executor,
		processors: opts.Processors,
		tracer:     opts.Tracer,
	}, nil
}

// Root returns the entry agent.
func (d *Dispatcher) Root() *agent.Agent { return d.root }

// Dispatch runs one turn for userText on top of prior. It never mutates
// prior; on error no outcome is returned and nothing should be committed.
func (d *Dispatcher) Dispatch(ctx context.Context, runCtx *core.RunContext, prior core.Transcript, userText string) (*Outcome, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.turn", trace.WithAttributes(
		attribute.String("thread_id", runCtx.ThreadID),
		attribute.String("run_id", runCtx.RunID),
	))
	defer span.End()

	outcome, err := d.run(ctx, runCtx.WithContext(ctx), prior, userText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(core.KindOf(err)))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("last_active_agent", outcome.LastActiveAgent),
		attribute.Int("hops", outcome.Hops),
	)

	return outcome, nil
}

func (d *Dispatcher) run(ctx context.Context, runCtx *core.RunContext, prior core.Transcript, userText string) (*Outcome, error) {
	out := &Outcome{}
	out.enter(StateAwaitingAgentSelection)

	active := d.root
	visited := map[string]bool{active.Name(): true}

	user := core.NewUserTurn(runCtx.RunID, userText)
	out.Turns = append(out.Turns, user)
	transcript := prior.Append(user)

	record := func(t core.Turn) {
		out.Turns = append(out.Turns, t)
		transcript = transcript.Append(t)
	}

	finalize := func(text string) *Outcome {
		if strings.TrimSpace(text) == "" {
			text = EmptyReplyText
		}
		out.enter(StateFinalizing)
		record(core.NewAssistantTurn(runCtx.RunID, active.Name(), text))
		out.FinalText = text
		out.LastActiveAgent = active.Name()
		out.enter(StateTurnComplete)
		runCtx.LogInfo("dispatch.finalized", "agent", active.Name(), "hops", out.Hops)
		return out
	}

	runCtx.LogInfo("dispatch.start", "agent", active.Name())

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out.enter(StateAgentExecuting)
		agentCtx := runCtx.WithAgent(active.Name())

		content, err := d.generate(ctx, agentCtx, active, transcript)
		if err != nil {
			return nil, err
		}

		calls := core.Turn{Content: content}.FunctionCalls()
		if len(calls) == 0 {
			return finalize(content.Text()), nil
		}

		content = withCallIDs(content)
		calls = core.Turn{Content: content}.FunctionCalls()
		record(core.NewTurn(runCtx.RunID, active.Name(), content))

		next, prompt, err := d.handleCalls(agentCtx, active, calls, visited, out, record)
		if err != nil {
			return nil, err
		}
		if prompt != "" {
			return finalize(prompt), nil
		}
		if next != nil {
			active = next
		}
	}
}

// handleCalls executes the calls of one model response. It returns the agent
// to continue with when a delegation happened, or a prompt when the turn must
// finalize asking the user for missing data.
func (d *Dispatcher) handleCalls(
	runCtx *core.RunContext,
	active *agent.Agent,
	calls []core.FunctionCall,
	visited map[string]bool,
	out *Outcome,
	record func(core.Turn),
) (*agent.Agent, string, error) {
	for i, fc := range calls {
		if err := runCtx.Limiter.Increment(); err != nil {
			runCtx.LogWarn("dispatch.hop_limit", "agent", active.Name(), "hops", out.Hops)
			return nil, "", err
		}
		out.Hops++

		if fc.Name == tool.TransferToAgentName && active.IsRouter() {
			target, res := d.transfer(runCtx, active, fc, visited)
			record(res.Turn)
			if target == nil {
				continue
			}
			out.enter(StateDelegation)
			// calls after a transfer are answered so transcripts stay well formed
			for _, rest := range calls[i+1:] {
				record(refuse(runCtx, active.Name(), rest, tool.CodeTransfer, "skipped after transfer to %s", target.Name()).Turn)
			}
			return target, "", nil
		}

		impl, ok := active.Tool(fc.Name)
		if !ok {
			runCtx.LogWarn("dispatch.tool.refused", "agent", active.Name(), "tool", fc.Name, "reason", "undeclared")
			record(refuse(runCtx, active.Name(), fc, tool.CodeNotFound, "tool %q is not available to %s", fc.Name, active.Name()).Turn)
			continue
		}

		out.enter(StateToolInvocation)
		res := d.execute(runCtx, active, impl, fc)
		record(res.Turn)

		if field, isValidation := tool.MissingField(res.Err); isValidation {
			for _, rest := range calls[i+1:] {
				record(refuse(runCtx, active.Name(), rest, tool.CodeValidation, "skipped while waiting for user input").Turn)
			}
			return nil, missingPrompt(impl.Fields(), res.Args, field), nil
		}
		if res.Err != nil && errors.Is(res.Err, context.DeadlineExceeded) {
			return nil, "", res.Err
		}
	}

	return nil, "", nil
}

func (d *Dispatcher) execute(runCtx *core.RunContext, active *agent.Agent, impl tool.Tool, fc core.FunctionCall) ToolResult {
	ctx, span := d.tracer.Start(runCtx.Context, "dispatch.tool", trace.WithAttributes(attribute.String("tool", fc.Name)))
	defer span.End()

	res := d.executor.Execute(runCtx.WithContext(ctx), active.Name(), impl, fc)
	if res.Err != nil {
		span.RecordError(res.Err)
	}
	return res
}

// transfer validates a delegation request and returns the target, or nil
// with a tool-error response when the transfer is refused.
func (d *Dispatcher) transfer(runCtx *core.RunContext, active *agent.Agent, fc core.FunctionCall, visited map[string]bool) (*agent.Agent, ToolResult) {
	res := d.executor.Execute(runCtx, active.Name(), tool.NewTransferToAgentTool(active.DelegateNames()...), fc)
	if res.Err != nil || res.Actions.TransferToAgent == nil {
		return nil, res
	}

	name := *res.Actions.TransferToAgent
	target, ok := active.Delegate(name)
	if !ok {
		runCtx.LogWarn("dispatch.delegation.refused", "from_agent", active.Name(), "to_agent", name, "reason", "not a delegate")
		return nil, refuse(runCtx, active.Name(), fc, tool.CodeTransfer, "%q is not a delegate of %s", name, active.Name())
	}
	if visited[name] {
		runCtx.LogWarn("dispatch.delegation.refused", "from_agent", active.Name(), "to_agent", name, "reason", "already visited")
		return nil, refuse(runCtx, active.Name(), fc, tool.CodeTransfer, "%s already handled this turn", name)
	}

	visited[name] = true
	runCtx.LogInfo("dispatch.delegation", "from_agent", active.Name(), "to_agent", name)

	return target, res
}

func (d *Dispatcher) generate(ctx context.Context, runCtx *core.RunContext, active *agent.Agent, transcript core.Transcript) (core.Content, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.model", trace.WithAttributes(attribute.String("agent", active.Name())))
	defer span.End()

	req := new(model.Request)
	for _, p := range d.processors {
		if err := p.ProcessRequest(runCtx, req, active, transcript); err != nil {
			return core.Content{}, core.NewError("flow.Dispatch", core.ErrConfiguration, fmt.Sprintf("request processor %s failed: %v", p.Name(), err))
		}
	}

	start := time.Now()
	resp, err := model.Complete(ctx, d.llm, *req)
	if err != nil {
		span.RecordError(err)
		runCtx.LogError("dispatch.model.error", "agent", active.Name(), "error", err.Error())
		if errors.Is(err, core.ErrExternalService) || ctx.Err() != nil {
			return core.Content{}, err
		}
		return core.Content{}, fmt.Errorf("%w: %w", core.ErrExternalService, err)
	}

	logArgs := []any{"agent", active.Name(), "duration_ms", time.Since(start).Milliseconds()}
	if u := resp.Usage; u != nil {
		logArgs = append(logArgs, "prompt_tokens", u.PromptTokens, "completion_tokens", u.CompletionTokens)
		span.SetAttributes(attribute.Int("llm.total_tokens", u.TotalTokens))
	}
	runCtx.LogDebug("dispatch.model.response", logArgs...)

	resp.Content.Role = core.RoleAssistant
	return resp.Content, nil
}

// withCallIDs assigns ids to function calls that arrived without one.
func withCallIDs(c core.Content) core.Content {
	parts := make([]core.Part, len(c.Parts))
	for i, p := range c.Parts {
		if fc, ok := p.(core.FunctionCallPart); ok && fc.FunctionCall.ID == "" {
			fc.FunctionCall.ID = core.NewID()
			p = fc
		}
		parts[i] = p
	}
	return core.Content{Role: c.Role, Parts: parts}
}
