package agent

import (
	"slices"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/tool"
)

// Options configures an Agent.
//
// Use functional options with New to override defaults.
type Options struct {
	Instruction     Instruction // overrides the instructions text when set
	Description     string      // shown to routers choosing a delegate
	RoutingKeywords []string    // words that route user text to this agent
	Tools           []tool.Tool
	Delegates       []*Agent
}

// WithTools declares the tool callbacks the agent may invoke.
func WithTools(tools ...tool.Tool) func(o *Options) {
	return func(o *Options) { o.Tools = append(o.Tools, tools...) }
}

// WithDelegates declares the agents a router may hand the turn to, in
// preference order.
func WithDelegates(delegates ...*Agent) func(o *Options) {
	return func(o *Options) { o.Delegates = append(o.Delegates, delegates...) }
}

// WithDescription sets the description routers see for this agent.
func WithDescription(description string) func(o *Options) {
	return func(o *Options) { o.Description = description }
}

// WithRoutingKeywords sets the words that identify user text meant for this agent.
func WithRoutingKeywords(keywords ...string) func(o *Options) {
	return func(o *Options) { o.RoutingKeywords = append(o.RoutingKeywords, keywords...) }
}

// WithInstruction replaces the static instructions with a dynamic provider.
func WithInstruction(inst Instruction) func(o *Options) {
	return func(o *Options) { o.Instruction = inst }
}

// Agent is a named bundle of instructions, tool callbacks and delegates. It is
// immutable once New returns and safe to share between sessions.
type Agent struct {
	name            string
	description     string
	instruction     Instruction
	routingKeywords []string
	tools           []tool.Tool
	delegates       []*Agent
}

// New builds an agent. Wiring mistakes are reported as configuration errors:
// an empty name, tools declared on a router, duplicate tool or delegate names,
// a nil delegate or tool, or a delegate graph containing a cycle.
func New(name, instructions string, optFns ...func(o *Options)) (*Agent, error) {
	const op = "agent.New"

	opts := Options{Instruction: NewInstructionFromText(instructions)}
	for _, fn := range optFns {
		fn(&opts)
	}

	if name == "" {
		return nil, core.ConfigErrorf(op, "agent name is required")
	}

	if len(opts.Delegates) > 0 && len(opts.Tools) > 0 {
		return nil, core.ConfigErrorf(op, "agent %q delegates and cannot declare tools", name)
	}

	toolNames := make(map[string]struct{}, len(opts.Tools))
	for _, t := range opts.Tools {
		if t == nil {
			return nil, core.ConfigErrorf(op, "agent %q declares a nil tool", name)
		}
		if t.Name() == tool.TransferToAgentName {
			return nil, core.ConfigErrorf(op, "agent %q declares reserved tool %q", name, t.Name())
		}
		if _, dup := toolNames[t.Name()]; dup {
			return nil, core.ConfigErrorf(op, "agent %q declares tool %q twice", name, t.Name())
		}
		toolNames[t.Name()] = struct{}{}
	}

	delegateNames := make(map[string]struct{}, len(opts.Delegates))
	for _, d := range opts.Delegates {
		if d == nil {
			return nil, core.ConfigErrorf(op, "agent %q declares a nil delegate", name)
		}
		if _, dup := delegateNames[d.name]; dup {
			return nil, core.ConfigErrorf(op, "agent %q declares delegate %q twice", name, d.name)
		}
		delegateNames[d.name] = struct{}{}
	}

	a := &Agent{
		name:            name,
		description:     opts.Description,
		instruction:     opts.Instruction,
		routingKeywords: slices.Clone(opts.RoutingKeywords),
		tools:           slices.Clone(opts.Tools),
		delegates:       slices.Clone(opts.Delegates),
	}

	if err := ValidateGraph(a); err != nil {
		return nil, err
	}

	return a, nil
}

// Name returns the unique agent name.
func (a *Agent) Name() string { return a.name }

// Description returns the description routers see.
func (a *Agent) Description() string { return a.description }

// Instruction returns the agent's instruction.
func (a *Agent) Instruction() Instruction { return a.instruction }

// RoutingKeywords returns a copy of the routing keywords.
func (a *Agent) RoutingKeywords() []string { return slices.Clone(a.routingKeywords) }

// Tools returns the declared tools in declaration order.
func (a *Agent) Tools() []tool.Tool { return slices.Clone(a.tools) }

// Tool looks up a declared tool by name.
func (a *Agent) Tool(name string) (tool.Tool, bool) {
	for _, t := range a.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Delegates returns the delegates in preference order.
func (a *Agent) Delegates() []*Agent { return slices.Clone(a.delegates) }

// Delegate looks up a direct delegate by name.
func (a *Agent) Delegate(name string) (*Agent, bool) {
	for _, d := range a.delegates {
		if d.name == name {
			return d, true
		}
	}
	return nil, false
}

// IsRouter reports whether the agent hands turns to delegates.
func (a *Agent) IsRouter() bool { return len(a.delegates) > 0 }

// DelegateNames returns the names of the direct delegates in order.
func (a *Agent) DelegateNames() []string {
	names := make([]string, len(a.delegates))
	for i, d := range a.delegates {
		names[i] = d.name
	}
	return names
}

// Find searches the graph rooted at a for an agent named name.
func (a *Agent) Find(name string) (*Agent, bool) {
	if a.name == name {
		return a, true
	}
	for _, d := range a.delegates {
		if found, ok := d.Find(name); ok {
			return found, true
		}
	}
	return nil, false
}

// Walk visits every agent reachable from a once, depth first.
func (a *Agent) Walk(visit func(*Agent)) {
	seen := map[*Agent]struct{}{}
	var walk func(*Agent)
	walk = func(n *Agent) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		visit(n)
		for _, d := range n.delegates {
			walk(d)
		}
	}
	walk(a)
}
