package model

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/core"
)

type stubExtractor struct {
	seen []Exchange
	args map[string]any
}

func (s *stubExtractor) Extract(_ FunctionDefinition, exchanges []Exchange) map[string]any {
	s.seen = exchanges
	return s.args
}

type stubAnswerer struct{}

func (stubAnswerer) Answer(agent, question string) string { return agent + ": " + question }

func userContent(text string) core.Content {
	return core.Content{Role: core.RoleUser, Parts: []core.Part{core.TextPart{Text: text}}}
}

func routerRequest(texts ...string) Request {
	req := Request{
		Agent: "Triage Agent",
		Tools: []ToolDefinition{{Type: "function", Function: FunctionDefinition{Name: transferToolName}}},
	}
	for _, c := range financingCandidates() {
		req.Handoffs = append(req.Handoffs, Handoff{Name: c.Name, Keywords: c.Keywords})
	}
	for _, t := range texts {
		req.Contents = append(req.Contents, userContent(t))
	}
	return req
}

func transferTarget(t *testing.T, c core.Content) string {
	t.Helper()
	calls := core.Turn{Content: c}.FunctionCalls()
	require.Len(t, calls, 1)
	require.Equal(t, transferToolName, calls[0].Name)
	var args map[string]string
	require.NoError(t, json.Unmarshal([]byte(calls[0].Arguments), &args))
	return args["agent"]
}

func TestRuleModel_Routes(t *testing.T) {
	m := NewRuleModel()
	resp, err := Complete(context.Background(), m, routerRequest("quero simular um financiamento"))
	require.NoError(t, err)
	assert.Equal(t, "Simulator Agent", transferTarget(t, resp.Content))
}

func TestRuleModel_RouteWalksBack(t *testing.T) {
	m := NewRuleModel()
	resp, err := Complete(context.Background(), m, routerRequest("quero simular", "pessoa física"))
	require.NoError(t, err)
	assert.Equal(t, "Simulator Agent", transferTarget(t, resp.Content))
}

func TestRuleModel_RouteFallback(t *testing.T) {
	resp, err := Complete(context.Background(), NewRuleModel(), routerRequest("bom dia"))
	require.NoError(t, err)
	assert.Equal(t, "Questions Agent", transferTarget(t, resp.Content))

	m := NewRuleModel(func(o *RuleOptions) { o.Fallback = "Simulator Agent" })
	resp, err = Complete(context.Background(), m, routerRequest("bom dia"))
	require.NoError(t, err)
	assert.Equal(t, "Simulator Agent", transferTarget(t, resp.Content))
}

func TestRuleModel_ToolAgentCallsWithExtractedArgs(t *testing.T) {
	ex := &stubExtractor{args: map[string]any{"state": "SP"}}
	m := NewRuleModel(func(o *RuleOptions) { o.Extractor = ex })

	req := Request{
		Agent: "Simulator Agent",
		Tools: []ToolDefinition{{Type: "function", Function: FunctionDefinition{Name: "generate_financing_simulation"}}},
		Contents: []core.Content{
			userContent("quero simular"),
			TextContent("Em qual estado fica o imóvel?"),
			userContent("SP"),
		},
	}

	resp, err := Complete(context.Background(), m, req)
	require.NoError(t, err)

	calls := core.Turn{Content: resp.Content}.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "generate_financing_simulation", calls[0].Name)
	assert.JSONEq(t, `{"state":"SP"}`, calls[0].Arguments)

	require.Len(t, ex.seen, 2)
	assert.Equal(t, Exchange{Asked: "Em qual estado fica o imóvel?", Text: "SP"}, ex.seen[1])
}

func TestRuleModel_ExchangesStartAfterLastSuccess(t *testing.T) {
	ex := &stubExtractor{}
	m := NewRuleModel(func(o *RuleOptions) { o.Extractor = ex })

	success := core.NewFunctionResponseTurn("r", "Simulator Agent", "c1", "generate_financing_simulation", map[string]any{"success": true}, nil)
	req := Request{
		Agent: "Simulator Agent",
		Tools: []ToolDefinition{{Type: "function", Function: FunctionDefinition{Name: "generate_financing_simulation"}}},
		Contents: []core.Content{
			userContent("quero simular"),
			success.Content,
			TextContent("Aqui está"),
			userContent("quero simular outro"),
		},
	}

	_, err := Complete(context.Background(), m, req)
	require.NoError(t, err)
	require.Len(t, ex.seen, 1)
	assert.Equal(t, "quero simular outro", ex.seen[0].Text)
}

func TestRuleModel_PresentsToolResult(t *testing.T) {
	m := NewRuleModel()
	result := core.NewFunctionResponseTurn("r", "Application Agent", "c1", "apply_for_real_estate_financing",
		map[string]any{"success": true, "message": "Recebido!", "confirmation_code": "FIN-8900"}, nil)

	req := Request{
		Agent:    "Application Agent",
		Tools:    []ToolDefinition{{Type: "function", Function: FunctionDefinition{Name: "apply_for_real_estate_financing"}}},
		Contents: []core.Content{userContent("quero solicitar"), result.Content},
	}

	resp, err := Complete(context.Background(), m, req)
	require.NoError(t, err)
	assert.Contains(t, resp.Content.Text(), "Recebido!")
	assert.Contains(t, resp.Content.Text(), "FIN-8900")
}

func TestRuleModel_PlainAgentAnswers(t *testing.T) {
	m := NewRuleModel(func(o *RuleOptions) { o.Answerer = stubAnswerer{} })
	resp, err := Complete(context.Background(), m, Request{Agent: "Questions Agent", Contents: []core.Content{userContent("qual a taxa?")}})
	require.NoError(t, err)
	assert.Equal(t, "Questions Agent: qual a taxa?", resp.Content.Text())

	resp, err = Complete(context.Background(), NewRuleModel(), Request{Agent: "Questions Agent", Contents: []core.Content{userContent("oi")}})
	require.NoError(t, err)
	assert.Equal(t, DefaultAnswer, resp.Content.Text())
}
