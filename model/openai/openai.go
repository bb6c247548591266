// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API with tool calling.
package openai

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/model"
)

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string // falls back to OPENAI_API_KEY when empty
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	var probe Options
	for _, fn := range optFns {
		fn(&probe)
	}

	var clientOpts []option.RequestOption
	if probe.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(probe.APIKey))
	}

	client := openai.NewClient(clientOpts...)
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.3,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate sends one chat completion and emits a single final response.
// Replies go out as whole WhatsApp messages, so there is no streaming path.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		toolResponses, order := collectToolResponses(req)
		params := m.buildParams(req, buildMessages(req, toolResponses, order))

		resp, err := m.client.Chat.Completions.New(ctx, params)
		if err != nil {
			errCh <- core.NewError("openai.Generate", core.ErrExternalService, err.Error())
			return
		}
		if len(resp.Choices) == 0 {
			errCh <- core.NewError("openai.Generate", core.ErrExternalService, "no choices returned")
			return
		}

		out <- toResponse(resp)
	}()

	return out, errCh
}

// toResponse maps the first choice of a completion to a final model.Response.
func toResponse(resp *openai.ChatCompletion) model.Response {
	choice := resp.Choices[0]

	parts := make([]core.Part, 0, len(choice.Message.ToolCalls)+1)
	if choice.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	return model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: choice.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// collectToolResponses indexes function responses by call id, keeping the
// first one seen for each id and the order ids appeared in.
func collectToolResponses(req model.Request) (map[string]string, []string) {
	responses := map[string]string{}
	var order []string

	for _, c := range req.Contents {
		if c.Role != core.RoleTool {
			continue
		}
		for _, fr := range c.FunctionResponses() {
			if fr.ID == "" {
				continue
			}
			if _, seen := responses[fr.ID]; seen {
				continue
			}
			responses[fr.ID] = model.ResponseText(fr)
			order = append(order, fr.ID)
		}
	}

	return responses, order
}

// buildMessages converts contents into chat messages. Each tool result is
// placed right after the assistant message that requested it; results whose
// call is not in the window are appended at the end.
func buildMessages(
	req model.Request,
	toolResponses map[string]string,
	order []string,
) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, c := range req.Contents {
		text := c.Text()

		switch c.Role {
		case core.RoleTool:
			continue
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(text))
		case core.RoleAssistant:
			calls := toolCalls(c)
			if len(calls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}

			assistant := &openai.ChatCompletionAssistantMessageParam{Role: "assistant", ToolCalls: calls}
			if text != "" {
				assistant.Content.OfString = openai.String(text)
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})

			for _, call := range calls {
				if resp, ok := toolResponses[call.ID]; ok {
					messages = append(messages, openai.ToolMessage(resp, call.ID))
					delete(toolResponses, call.ID)
				}
			}
		default:
			if strings.TrimSpace(text) != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	for _, id := range order {
		if resp, ok := toolResponses[id]; ok {
			messages = append(messages, openai.ToolMessage(resp, id))
		}
	}

	return messages
}

func toolCalls(c core.Content) []openai.ChatCompletionMessageToolCallParam {
	var calls []openai.ChatCompletionMessageToolCallParam
	for _, fc := range c.FunctionCalls() {
		calls = append(calls, openai.ChatCompletionMessageToolCallParam{
			ID:   fc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.Name,
				Arguments: fc.Arguments,
			},
		})
	}
	return calls
}

// buildParams assembles the request parameters including tool definitions.
func (m *Model) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	for _, def := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Function.Name,
				Description: openai.String(def.Function.Description),
				Parameters:  def.Function.Parameters,
			},
		})
	}

	return params
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
