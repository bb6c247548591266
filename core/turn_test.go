package core

import (
	"encoding/json"
	"testing"
)

func TestTranscriptAppendDoesNotMutateReceiver(t *testing.T) {
	base := Transcript{NewUserTurn("r1", "oi")}
	next := base.Append(NewAssistantTurn("r1", "Triage Agent", "olá"))

	if len(base) != 1 {
		t.Fatalf("receiver mutated: len=%d", len(base))
	}
	if len(next) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(next))
	}
	if !next.HasPrefix(base) {
		t.Fatalf("appended transcript must extend its base")
	}
}

func TestTranscriptHasPrefix(t *testing.T) {
	a := NewUserTurn("r1", "a")
	b := NewUserTurn("r1", "b")
	c := NewUserTurn("r1", "c")

	full := Transcript{a, b, c}
	if !full.HasPrefix(Transcript{a, b}) {
		t.Fatalf("expected prefix")
	}
	if full.HasPrefix(Transcript{b}) {
		t.Fatalf("out of order turns are not a prefix")
	}
	if (Transcript{a}).HasPrefix(full) {
		t.Fatalf("longer transcript cannot be a prefix")
	}
	if !full.HasPrefix(nil) {
		t.Fatalf("empty transcript is a prefix of everything")
	}
}

func TestTurnFunctionAccessors(t *testing.T) {
	call := NewFunctionCallTurn("r1", "Simulator Agent", FunctionCall{ID: "c1", Name: "generate_financing_simulation", Arguments: `{}`})
	if got := call.FunctionCalls(); len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("unexpected calls: %+v", got)
	}

	resp := NewFunctionResponseTurn("r1", "Simulator Agent", "c1", "generate_financing_simulation", map[string]any{"success": true}, nil)
	if resp.Role() != RoleTool {
		t.Fatalf("expected tool role, got %s", resp.Role())
	}
	if got := resp.FunctionResponses(); len(got) != 1 || got[0].Error != "" {
		t.Fatalf("unexpected responses: %+v", got)
	}
}

func TestContentJSONRoundTrip(t *testing.T) {
	tr := Transcript{
		NewUserTurn("r1", "quero simular"),
		NewFunctionCallTurn("r1", "Triage Agent", FunctionCall{ID: "c1", Name: "transfer_to_agent", Arguments: `{"agent":"Simulator Agent"}`}),
		NewFunctionResponseTurn("r1", "Triage Agent", "c1", "transfer_to_agent", map[string]any{"agent": "Simulator Agent"}, nil),
		NewTurn("r1", "Simulator Agent", Content{Role: RoleAssistant, Parts: []Part{DataPart{Data: map[string]any{"k": "v"}}}}),
	}

	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Transcript
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(out) != len(tr) {
		t.Fatalf("expected %d turns, got %d", len(tr), len(out))
	}
	if out[0].Text() != "quero simular" {
		t.Fatalf("text lost: %q", out[0].Text())
	}
	if calls := out[1].FunctionCalls(); len(calls) != 1 || calls[0].Name != "transfer_to_agent" {
		t.Fatalf("function call lost: %+v", calls)
	}
	if _, ok := out[3].Content.Parts[0].(DataPart); !ok {
		t.Fatalf("data part lost: %T", out[3].Content.Parts[0])
	}
}
