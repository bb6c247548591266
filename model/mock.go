package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/loft/finassist/core"
)

// MockModel is a lightweight in-memory Model useful for tests and examples.
//
// Scripted contents are returned in order, one per Generate call. Once the
// script is exhausted the model falls back to canned text responses keyed by
// the last user text. A blocking mock never answers and returns the context
// error when the caller gives up.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	script    []core.Content
	requests  []Request
	blocking  bool
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends scripted contents.
func (m *MockModel) Enqueue(contents ...core.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, contents...)
}

// EnqueueText appends a scripted text answer.
func (m *MockModel) EnqueueText(text string) { m.Enqueue(TextContent(text)) }

// EnqueueCall appends a scripted function call with JSON-encoded args.
func (m *MockModel) EnqueueCall(name string, args map[string]any) {
	raw, err := json.Marshal(args)
	if err != nil {
		panic(fmt.Sprintf("mock call args: %v", err))
	}
	m.Enqueue(CallContent(core.NewID(), name, string(raw)))
}

// SetBlocking makes Generate wait until the context is cancelled.
func (m *MockModel) SetBlocking(blocking bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocking = blocking
}

// Requests returns the requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	blocking := m.blocking
	var next *core.Content
	if !blocking && len(m.script) > 0 {
		c := m.script[0]
		m.script = m.script[1:]
		next = &c
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if blocking {
			<-ctx.Done()
			errCh <- ctx.Err()
			return
		}

		if next != nil {
			respCh <- Response{Content: *next, FinishReason: "stop"}
			return
		}

		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		inputText := req.Contents[len(req.Contents)-1].Text()

		m.mu.Lock()
		full := m.responses[inputText]
		m.mu.Unlock()
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}

		respCh <- Response{Content: TextContent(full), FinishReason: "stop"}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
