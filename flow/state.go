package flow

// State is a phase of the dispatch state machine.
type State int

const (
	StateAwaitingAgentSelection State = iota
	StateAgentExecuting
	StateToolInvocation
	StateDelegation
	StateFinalizing
	StateTurnComplete
)

var stateNames = [...]string{
	StateAwaitingAgentSelection: "AwaitingAgentSelection",
	StateAgentExecuting:         "AgentExecuting",
	StateToolInvocation:         "ToolInvocation",
	StateDelegation:             "Delegation",
	StateFinalizing:             "Finalizing",
	StateTurnComplete:           "TurnComplete",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// validNext lists the allowed transitions.
var validNext = map[State][]State{
	StateAwaitingAgentSelection: {StateAgentExecuting},
	StateAgentExecuting:         {StateToolInvocation, StateDelegation, StateFinalizing, StateAgentExecuting},
	StateToolInvocation:         {StateAgentExecuting, StateToolInvocation, StateFinalizing},
	StateDelegation:             {StateAgentExecuting},
	StateFinalizing:             {StateTurnComplete},
}

// CanTransition reports whether to may follow from.
func CanTransition(from, to State) bool {
	for _, s := range validNext[from] {
		if s == to {
			return true
		}
	}
	return false
}
