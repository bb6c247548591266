package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/loft/finassist/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Handoff describes a delegate a router may transfer the turn to. Keywords
// feed deterministic classification; LLM backends see Name and Description
// through the transfer tool and the instructions.
type Handoff struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Request captures the normalized model input produced by the dispatcher.
type Request struct {
	Agent        string           `json:"agent"`        // Active agent name
	Instructions string           `json:"instructions"` // Rendered instructions for the model
	Contents     []core.Content   `json:"contents"`     // Transcript plus the new user turn
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Handoffs     []Handoff        `json:"handoffs,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "rules", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the dispatcher to drive generation.
//
// Generate must close both channels when done and must honour ctx
// cancellation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrEmptyResponse is returned by Complete when a model produced no final chunk.
var ErrEmptyResponse = errors.New("model returned no final response")

// Complete drains a Generate call and returns its final (non-partial)
// response. Cancellation of ctx wins over any buffered output.
func Complete(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final    Response
		gotFinal bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final = r
				gotFinal = true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !gotFinal {
		return Response{}, ErrEmptyResponse
	}

	return final, nil
}

// Func adapts an ordinary function to the Model interface.
type Func func(ctx context.Context, req Request) (core.Content, error)

// Generate implements Model.
func (f Func) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		content, err := f(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- Response{Content: content, FinishReason: "stop"}
	}()

	return respCh, errCh
}

// Info implements Model.
func (f Func) Info() Info { return Info{Name: "func", Provider: "func", SupportsTools: true} }

// TextContent builds an assistant content holding text.
func TextContent(text string) core.Content {
	return core.Content{Role: core.RoleAssistant, Parts: []core.Part{core.TextPart{Text: text}}}
}

// CallContent builds an assistant content holding a single function call.
func CallContent(id, name, arguments string) core.Content {
	return core.Content{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{
		FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: arguments},
	}}}
}

// ResponseText serializes a function response the way it is shown to hosted
// models: the result as JSON, or an {"error": ...} object on failure.
func ResponseText(fr core.FunctionResponse) string {
	var payload any = fr.Response
	if fr.Error != "" {
		payload = map[string]any{"error": fr.Error}
	}
	if s, ok := payload.(string); ok {
		return s
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(raw)
}
