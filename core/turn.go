package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a Turn.
type Role string

const (
	// RoleUser marks inbound user text.
	RoleUser Role = "user"
	// RoleAssistant marks agent output (text or function calls).
	RoleAssistant Role = "assistant"
	// RoleTool marks tool / function results.
	RoleTool Role = "tool"
	// RoleSystem marks instructions; never stored in a Transcript.
	RoleSystem Role = "system"
)

// TurnActions encodes orchestration signals attached to a Turn.
type TurnActions struct {
	TransferToAgent *string `json:"transfer_to_agent,omitempty"`
}

// Turn is one immutable entry of a conversation transcript. It captures:
//   - Correlation (RunID, ID, Author)
//   - Conversational content (role-based Parts)
//   - Orchestration directives (Actions)
//   - A UTC timestamp
type Turn struct {
	ID        string      `json:"id"`
	RunID     string      `json:"run_id"`
	Author    string      `json:"author"`
	Content   Content     `json:"content"`
	Actions   TurnActions `json:"actions"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewTurn creates a bare turn authored by author within a run.
func NewTurn(runID, author string, content Content) Turn {
	return Turn{
		ID:        NewID(),
		RunID:     runID,
		Author:    author,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserTurn creates a user-authored text turn.
func NewUserTurn(runID, text string) Turn {
	return NewTurn(runID, string(RoleUser), Content{Role: RoleUser, Parts: []Part{TextPart{Text: text}}})
}

// NewAssistantTurn creates an agent-authored text turn.
func NewAssistantTurn(runID, author, text string) Turn {
	return NewTurn(runID, author, Content{Role: RoleAssistant, Parts: []Part{TextPart{Text: text}}})
}

// NewFunctionCallTurn records an agent requesting execution of named functions.
func NewFunctionCallTurn(runID, author string, calls ...FunctionCall) Turn {
	parts := make([]Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, FunctionCallPart{FunctionCall: c})
	}
	return NewTurn(runID, author, Content{Role: RoleAssistant, Parts: parts})
}

// NewFunctionResponseTurn records the result (or error) of a function call.
// If err is non-nil its message is copied into the response Error field.
func NewFunctionResponseTurn(runID, author, id, name string, result any, err error) Turn {
	fr := FunctionResponse{ID: id, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	return NewTurn(runID, author, Content{Role: RoleTool, Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}})
}

// NewID generates a new unique identifier for turns and function calls.
func NewID() string { return uuid.NewString() }

// Role returns the content role of the turn.
func (t Turn) Role() Role { return t.Content.Role }

// Text returns the concatenated text parts of the turn.
func (t Turn) Text() string { return t.Content.Text() }

// FunctionCalls returns the FunctionCall parts in their original order.
func (t Turn) FunctionCalls() []FunctionCall { return t.Content.FunctionCalls() }

// FunctionResponses returns the FunctionResponse parts in their original order.
func (t Turn) FunctionResponses() []FunctionResponse { return t.Content.FunctionResponses() }

// Transcript is the ordered, append-only history of a conversation.
type Transcript []Turn

// Clone returns a copy whose backing array is independent of t.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Append returns a new transcript with turns added after the existing ones.
// The receiver is never modified.
func (t Transcript) Append(turns ...Turn) Transcript {
	out := make(Transcript, 0, len(t)+len(turns))
	out = append(out, t...)
	return append(out, turns...)
}

// HasPrefix reports whether prefix is an ordered prefix of t, compared by turn ID.
func (t Transcript) HasPrefix(prefix Transcript) bool {
	if len(prefix) > len(t) {
		return false
	}
	for i := range prefix {
		if t[i].ID != prefix[i].ID {
			return false
		}
	}
	return true
}

// Contents returns the Content of every turn in order.
func (t Transcript) Contents() []Content {
	out := make([]Content, 0, len(t))
	for _, turn := range t {
		if len(turn.Content.Parts) == 0 {
			continue
		}
		out = append(out, turn.Content)
	}
	return out
}

// UserTexts returns the text of every user turn in order.
func (t Transcript) UserTexts() []string {
	var out []string
	for _, turn := range t {
		if turn.Role() == RoleUser {
			out = append(out, turn.Text())
		}
	}
	return out
}
