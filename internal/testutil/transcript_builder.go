package testutil

import (
	"encoding/json"

	"github.com/loft/finassist/core"
)

// TranscriptBuilder appends turns of a single run in order.
//
//	tr := testutil.NewTranscriptBuilder("run-1").
//		User("quero simular").
//		Call("Simulator Agent", "c1", "generate_financing_simulation", args).
//		Response("Simulator Agent", "c1", "generate_financing_simulation", result).
//		Build()
type TranscriptBuilder struct {
	runID string
	turns core.Transcript
}

// NewTranscriptBuilder starts an empty transcript for runID.
func NewTranscriptBuilder(runID string) *TranscriptBuilder {
	return &TranscriptBuilder{runID: runID}
}

// User appends a user text turn (chainable).
func (b *TranscriptBuilder) User(text string) *TranscriptBuilder {
	b.turns = append(b.turns, core.NewUserTurn(b.runID, text))
	return b
}

// Assistant appends an agent text turn (chainable).
func (b *TranscriptBuilder) Assistant(agent, text string) *TranscriptBuilder {
	b.turns = append(b.turns, core.NewAssistantTurn(b.runID, agent, text))
	return b
}

// Call appends a function call turn. args is marshalled to JSON; a string is
// used verbatim (chainable).
func (b *TranscriptBuilder) Call(agent, id, name string, args any) *TranscriptBuilder {
	fc := core.FunctionCall{ID: id, Name: name}
	switch v := args.(type) {
	case nil:
	case string:
		fc.Arguments = v
	default:
		raw, _ := json.Marshal(v)
		fc.Arguments = string(raw)
	}
	b.turns = append(b.turns, core.NewFunctionCallTurn(b.runID, agent, fc))
	return b
}

// Response appends a successful function response turn (chainable).
func (b *TranscriptBuilder) Response(agent, id, name string, result any) *TranscriptBuilder {
	b.turns = append(b.turns, core.NewFunctionResponseTurn(b.runID, agent, id, name, result, nil))
	return b
}

// Build returns a copy of the assembled transcript.
func (b *TranscriptBuilder) Build() core.Transcript { return b.turns.Clone() }
