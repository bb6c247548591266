package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/loft/finassist/core"
)

const transferToolName = "transfer_to_agent"

// DefaultAnswer is the reply of a plain agent when no Answerer is configured.
const DefaultAnswer = "Olá! Sou o assistente de financiamento imobiliário da Loft. Como posso ajudar? 😊"

// Exchange pairs a user message with the assistant text that preceded it, so
// a bare answer ("500 mil") can be attributed to the question it answers.
type Exchange struct {
	Asked string
	Text  string
}

// ArgumentExtractor fills tool arguments from the user's messages. Fields it
// cannot find are left out so the dispatcher can ask for them.
type ArgumentExtractor interface {
	Extract(def FunctionDefinition, exchanges []Exchange) map[string]any
}

// Answerer produces the reply of an agent without tools or delegates.
type Answerer interface {
	Answer(agent, question string) string
}

// Presenter renders a tool result as user-facing text.
type Presenter interface {
	Present(toolName string, response any, errText string) string
}

// RuleOptions configures a RuleModel.
type RuleOptions struct {
	Classifier Classifier
	Extractor  ArgumentExtractor
	Answerer   Answerer
	Presenter  Presenter
	// Fallback names the handoff used when no user text matches any
	// candidate. Empty means the last handoff offered.
	Fallback string
}

// RuleModel is a deterministic, offline Model. It plays three roles depending
// on the request it receives:
//
//   - router (Handoffs present): classify the user text and transfer
//   - tool agent (tools present): extract arguments and call the tool, then
//     present the tool result
//   - plain agent: answer from the Answerer
type RuleModel struct {
	opts RuleOptions
}

// NewRuleModel creates a RuleModel. The KeywordClassifier is used unless
// another classifier is configured.
func NewRuleModel(optFns ...func(o *RuleOptions)) *RuleModel {
	opts := RuleOptions{Classifier: NewKeywordClassifier()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RuleModel{opts: opts}
}

// Generate implements Model.
func (m *RuleModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	return Func(m.respond).Generate(ctx, req)
}

// Info implements Model.
func (m *RuleModel) Info() Info {
	return Info{Name: "keyword-rules", Provider: "rules", SupportsTools: true}
}

func (m *RuleModel) respond(ctx context.Context, req Request) (core.Content, error) {
	if err := ctx.Err(); err != nil {
		return core.Content{}, err
	}

	if len(req.Handoffs) > 0 {
		return m.route(ctx, req)
	}

	var defs []FunctionDefinition
	for _, t := range req.Tools {
		if t.Function.Name != transferToolName {
			defs = append(defs, t.Function)
		}
	}
	if len(defs) > 0 {
		return m.useTool(req, defs)
	}

	question := ""
	if texts := userTexts(req.Contents); len(texts) > 0 {
		question = texts[len(texts)-1]
	}
	if m.opts.Answerer == nil {
		return TextContent(DefaultAnswer), nil
	}
	return TextContent(m.opts.Answerer.Answer(req.Agent, question)), nil
}

// route classifies the newest user text first and walks back through older
// messages, so a bare answer like "pessoa física" stays with the agent that
// asked for it.
func (m *RuleModel) route(ctx context.Context, req Request) (core.Content, error) {
	candidates := make([]Candidate, len(req.Handoffs))
	for i, h := range req.Handoffs {
		candidates[i] = Candidate{Name: h.Name, Keywords: h.Keywords}
	}

	target := ""
	texts := userTexts(req.Contents)
	for i := len(texts) - 1; i >= 0 && target == ""; i-- {
		c, err := m.opts.Classifier.Classify(ctx, texts[i], candidates)
		switch {
		case err == nil:
			target = c.Name
		case errors.Is(err, ErrNoMatch):
		default:
			return core.Content{}, err
		}
	}

	if target == "" {
		target = m.fallback(req.Handoffs)
	}

	args, err := json.Marshal(map[string]any{"agent": target})
	if err != nil {
		return core.Content{}, err
	}

	return CallContent(core.NewID(), transferToolName, string(args)), nil
}

func (m *RuleModel) fallback(handoffs []Handoff) string {
	for _, h := range handoffs {
		if h.Name == m.opts.Fallback {
			return h.Name
		}
	}
	return handoffs[len(handoffs)-1].Name
}

func (m *RuleModel) useTool(req Request, defs []FunctionDefinition) (core.Content, error) {
	if n := len(req.Contents); n > 0 && req.Contents[n-1].Role == core.RoleTool {
		for _, p := range req.Contents[n-1].Parts {
			fr, ok := p.(core.FunctionResponsePart)
			if !ok || fr.FunctionResponse.Name == transferToolName {
				continue
			}
			return TextContent(m.present(fr.FunctionResponse)), nil
		}
	}

	def := defs[0]
	args := map[string]any{}
	if m.opts.Extractor != nil {
		if found := m.opts.Extractor.Extract(def, exchangesSince(req.Contents, def.Name)); found != nil {
			args = found
		}
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return core.Content{}, err
	}

	return CallContent(core.NewID(), def.Name, string(raw)), nil
}

func (m *RuleModel) present(fr core.FunctionResponse) string {
	if m.opts.Presenter != nil {
		return m.opts.Presenter.Present(fr.Name, fr.Response, fr.Error)
	}
	return PresentGeneric(fr.Response, fr.Error)
}

// PresentGeneric renders a tool result mapping as its "message" followed by
// the remaining scalar fields in key order.
func PresentGeneric(response any, errText string) string {
	if errText != "" {
		return "Desculpe, não consegui concluir sua solicitação agora. Tente novamente em instantes."
	}

	fields, ok := asMap(response)
	if !ok {
		return fmt.Sprintf("%v", response)
	}

	var b strings.Builder
	if msg, ok := fields["message"].(string); ok {
		b.WriteString(msg)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := fields[k].(type) {
		case string, float64, int, int64:
			if k == "message" || k == "success" {
				continue
			}
			fmt.Fprintf(&b, "\n%s: %v", k, v)
		}
	}

	return b.String()
}

func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// exchangesSince returns the user messages after the last successful response
// of the named tool, each paired with the assistant text preceding it.
func exchangesSince(contents []core.Content, toolName string) []Exchange {
	start := 0
	for i, c := range contents {
		if c.Role != core.RoleTool {
			continue
		}
		for _, p := range c.Parts {
			if fr, ok := p.(core.FunctionResponsePart); ok && fr.FunctionResponse.Name == toolName && fr.FunctionResponse.Error == "" {
				start = i + 1
			}
		}
	}

	var (
		out   []Exchange
		asked string
	)
	for _, c := range contents[start:] {
		switch c.Role {
		case core.RoleAssistant:
			if text := c.Text(); text != "" {
				asked = text
			}
		case core.RoleUser:
			out = append(out, Exchange{Asked: asked, Text: c.Text()})
			asked = ""
		}
	}

	return out
}

func userTexts(contents []core.Content) []string {
	var out []string
	for _, c := range contents {
		if c.Role == core.RoleUser {
			out = append(out, c.Text())
		}
	}
	return out
}
