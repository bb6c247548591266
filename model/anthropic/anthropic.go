// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/internal/util"
	"github.com/loft/finassist/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.3,
		MaxTokens:   1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	m := NewModel(optFns...)
	m.client = client
	return m
}

// Generate sends one Messages API request and emits a single final response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		messages := m.buildMessages(req.Contents)

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    messages,
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}

		if systemBlocks := m.extractSystemMessage(req); len(systemBlocks) > 0 {
			params.System = systemBlocks
		}

		if len(req.Tools) > 0 {
			tools := m.buildTools(req.Tools)
			params.Tools = tools
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- core.NewError("anthropic.Generate", core.ErrExternalService, err.Error())
			return
		}

		var parts []core.Part

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textBlock := block.AsText()
				if textBlock.Text != "" {
					parts = append(parts, core.TextPart{Text: textBlock.Text})
				}
			case "tool_use":
				toolBlock := block.AsToolUse()
				args := ""
				if toolBlock.Input != nil {
					if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(argsBytes)
					}
				}
				parts = append(parts, core.FunctionCallPart{
					FunctionCall: core.FunctionCall{
						ID:        toolBlock.ID,
						Name:      toolBlock.Name,
						Arguments: args,
					},
				})
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}

		out <- model.Response{
			ID:           resp.ID,
			Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
			FinishReason: finishReason,
			Usage: &model.TokenUsage{
				PromptTokens:     int(resp.Usage.InputTokens),
				CompletionTokens: int(resp.Usage.OutputTokens),
				TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			},
		}
	}()

	return out, errCh
}

// buildMessages converts contents to Anthropic messages. Tool results travel
// in a user message directly after the assistant message that requested them.
func (m *Model) buildMessages(contents []core.Content) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	toolResponses := make(map[string]core.FunctionResponse)
	for _, c := range contents {
		if c.Role != core.RoleTool {
			continue
		}
		for _, fr := range c.FunctionResponses() {
			if fr.ID != "" {
				toolResponses[fr.ID] = fr
			}
		}
	}

	for _, c := range contents {
		switch c.Role {
		case core.RoleSystem, core.RoleTool:
			continue
		case core.RoleAssistant:
			content, results := m.buildAssistantContent(c.Parts, toolResponses)
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
			if len(results) > 0 {
				messages = append(messages, anthropic.NewUserMessage(results...))
			}
		default:
			content := m.buildUserContent(c.Parts)
			if len(content) > 0 {
				messages = append(messages, anthropic.NewUserMessage(content...))
			}
		}
	}

	return messages
}

// extractSystemMessage collects the rendered instructions and any system contents.
func (m *Model) extractSystemMessage(req model.Request) []anthropic.TextBlockParam {
	var systemBlocks []anthropic.TextBlockParam

	if req.Instructions != "" {
		systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: req.Instructions})
	}

	for _, c := range req.Contents {
		if c.Role != core.RoleSystem {
			continue
		}
		if text := c.Text(); text != "" {
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: text})
		}
	}

	return systemBlocks
}

// buildUserContent builds content for user messages
func (m *Model) buildUserContent(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion

	for _, p := range parts {
		if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
			content = append(content, anthropic.NewTextBlock(tp.Text))
		}
	}

	return content
}

// buildAssistantContent builds the assistant blocks plus the tool_result
// blocks answering its tool_use blocks.
func (m *Model) buildAssistantContent(
	parts []core.Part,
	toolResponses map[string]core.FunctionResponse,
) ([]anthropic.ContentBlockParamUnion, []anthropic.ContentBlockParamUnion) {
	var content, results []anthropic.ContentBlockParamUnion

	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				content = append(content, anthropic.NewTextBlock(part.Text))
			}
		case core.FunctionCallPart:
			var input any = map[string]any{}
			if part.FunctionCall.Arguments != "" {
				if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &input); err != nil {
					input = part.FunctionCall.Arguments
				}
			}

			content = append(content, anthropic.NewToolUseBlock(
				part.FunctionCall.ID,
				input,
				part.FunctionCall.Name,
			))

			if fr, ok := toolResponses[part.FunctionCall.ID]; ok {
				results = append(results, anthropic.NewToolResultBlock(fr.ID, model.ResponseText(fr), fr.Error != ""))
				delete(toolResponses, part.FunctionCall.ID)
			}
		}
	}

	return content, results
}

// buildTools converts tool definitions to the Anthropic tool format.
func (m *Model) buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))

	for i, def := range tools {
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if params := def.Function.Parameters; params != nil {
			schema.Properties = params["properties"]
			schema.Required = util.RequiredFields(params)
		}

		out[i] = anthropic.ToolUnionParamOfTool(schema, def.Function.Name)
		if out[i].OfTool != nil && def.Function.Description != "" {
			out[i].OfTool.Description = anthropic.String(def.Function.Description)
		}
	}

	return out
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
