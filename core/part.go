package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// DataPart is a structured data segment (e.g., a tool result mapping).
type DataPart struct {
	Data map[string]any
}

func (DataPart) isPart() {}

// FunctionCall describes a tool/function invocation request.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`        // Stable id correlating call and response
	Name      string `json:"name"`                // Tool / function name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
}

func (FunctionCallPart) isPart() {}

// FunctionResponse describes the outcome of a function call.
type FunctionResponse struct {
	ID       string `json:"id,omitempty"`       // Matches originating FunctionCall ID
	Name     string `json:"name"`               // Function name
	Response any    `json:"response,omitempty"` // Successful result (any JSON shape)
	Error    string `json:"error,omitempty"`    // Populated on failure
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
}

func (FunctionResponsePart) isPart() {}

// Content holds role + ordered parts.
type Content struct {
	Role  Role   `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Text concatenates every TextPart of the content.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// FunctionCalls returns the FunctionCall parts in their original order.
func (c Content) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range c.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// FunctionResponses returns the FunctionResponse parts in their original order.
func (c Content) FunctionResponses() []FunctionResponse {
	var responses []FunctionResponse
	for _, p := range c.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}
	return responses
}

// wirePart is the tagged JSON form of a Part.
type wirePart struct {
	Type             string            `json:"type"`
	Text             string            `json:"text,omitempty"`
	Data             map[string]any    `json:"data,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}

// MarshalJSON encodes parts with an explicit type discriminator.
func (c Content) MarshalJSON() ([]byte, error) {
	parts := make([]wirePart, 0, len(c.Parts))
	for _, p := range c.Parts {
		switch v := p.(type) {
		case TextPart:
			parts = append(parts, wirePart{Type: "text", Text: v.Text})
		case DataPart:
			parts = append(parts, wirePart{Type: "data", Data: v.Data})
		case FunctionCallPart:
			fc := v.FunctionCall
			parts = append(parts, wirePart{Type: "function_call", FunctionCall: &fc})
		case FunctionResponsePart:
			fr := v.FunctionResponse
			parts = append(parts, wirePart{Type: "function_response", FunctionResponse: &fr})
		default:
			return nil, fmt.Errorf("unsupported part type %T", p)
		}
	}

	return json.Marshal(struct {
		Role  Role       `json:"role,omitempty"`
		Parts []wirePart `json:"parts"`
	}{Role: c.Role, Parts: parts})
}

// UnmarshalJSON decodes the tagged form produced by MarshalJSON.
func (c *Content) UnmarshalJSON(b []byte) error {
	var raw struct {
		Role  Role       `json:"role,omitempty"`
		Parts []wirePart `json:"parts"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	c.Role = raw.Role
	c.Parts = make([]Part, 0, len(raw.Parts))
	for _, wp := range raw.Parts {
		switch wp.Type {
		case "text":
			c.Parts = append(c.Parts, TextPart{Text: wp.Text})
		case "data":
			c.Parts = append(c.Parts, DataPart{Data: wp.Data})
		case "function_call":
			if wp.FunctionCall == nil {
				return fmt.Errorf("function_call part without payload")
			}
			c.Parts = append(c.Parts, FunctionCallPart{FunctionCall: *wp.FunctionCall})
		case "function_response":
			if wp.FunctionResponse == nil {
				return fmt.Errorf("function_response part without payload")
			}
			c.Parts = append(c.Parts, FunctionResponsePart{FunctionResponse: *wp.FunctionResponse})
		default:
			return fmt.Errorf("unknown part type %q", wp.Type)
		}
	}

	return nil
}
