// Package anthropic implements the chat model backend over the Anthropic
// Messages API. The API has no tool role: tool results travel as
// tool_result blocks inside user messages, and requested calls as
// tool_use blocks inside assistant messages. The adapter maps both ways
// so the orchestration loop stays backend-agnostic.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tingly-dev/mcpchat/pkg/message"
	"github.com/tingly-dev/mcpchat/pkg/model"
)

// DefaultMaxTokens bounds responses; the Messages API requires a value.
const DefaultMaxTokens = 1024

// Config holds the configuration for the backend.
type Config struct {
	// APIKey authenticates the client. Empty falls back to the SDK's
	// ANTHROPIC_API_KEY environment lookup.
	APIKey string

	// Model is the model identifier to request.
	Model string

	// MaxTokens caps each response. Defaults to DefaultMaxTokens.
	MaxTokens int
}

// Adapter implements model.ChatModel over the official SDK.
type Adapter struct {
	client    anthropic.Client
	modelName string
	maxTokens int
}

var _ model.ChatModel = (*Adapter)(nil)

// New creates a backend from the given configuration.
func New(cfg Config) *Adapter {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Model == "" {
		cfg.Model = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Adapter{
		client:    anthropic.NewClient(opts...),
		modelName: cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// ModelName returns the configured model identifier.
func (a *Adapter) ModelName() string {
	return a.modelName
}

// Call implements model.ChatModel.Call.
func (a *Adapter) Call(ctx context.Context, messages []*message.Msg, options *model.CallOptions) (*model.ChatResponse, error) {
	if options == nil {
		options = &model.CallOptions{}
	}

	sdkMessages, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.modelName),
		MaxTokens: int64(a.maxTokens),
		Messages:  sdkMessages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if options.MaxTokens != nil {
		params.MaxTokens = int64(*options.MaxTokens)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("messages API: %w", err)
	}
	return parseResponse(resp), nil
}

// convertMessages converts conversation messages to SDK params, lifting
// any system turn out into the dedicated system field.
func convertMessages(messages []*message.Msg) ([]anthropic.MessageParam, string) {
	var system string
	sdkMessages := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			system = msg.Content
		case message.RoleUser:
			sdkMessages = append(sdkMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case message.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				input := call.Arguments
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: input,
					},
				})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			sdkMessages = append(sdkMessages, anthropic.NewAssistantMessage(blocks...))
		case message.RoleTool:
			sdkMessages = append(sdkMessages, anthropic.NewUserMessage(
				anthropic.ContentBlockParamUnion{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: msg.ToolCallID,
						Content: []anthropic.ToolResultBlockParamContentUnion{
							{OfText: &anthropic.TextBlockParam{Text: msg.Content}},
						},
					},
				},
			))
		}
	}

	return sdkMessages, system
}

// convertTools converts tool definitions to SDK format.
func convertTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		schema := anthropic.ToolInputSchemaParam{Type: "object"}
		if props, ok := tool.Function.Parameters["properties"]; ok {
			schema.Properties = props
		}
		schema.Required = stringList(tool.Function.Parameters["required"])
		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Function.Name,
				Description: anthropic.String(tool.Function.Description),
				InputSchema: schema,
			},
		}
	}
	return result
}

// stringList coerces a required-parameters value to []string. Schemas
// built in-process carry []string; ones decoded from JSON carry []any.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// parseResponse converts an SDK response to a ChatResponse.
func parseResponse(resp *anthropic.Message) *model.ChatResponse {
	out := &model.ChatResponse{
		ID:  resp.ID,
		Raw: resp,
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}

	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			if out.Content != "" {
				out.Content += "\n"
			}
			out.Content += b.Text
		case anthropic.ToolUseBlock:
			arguments := make(map[string]any)
			json.Unmarshal(b.Input, &arguments)
			out.ToolCalls = append(out.ToolCalls, message.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: arguments,
			})
		}
	}
	return out
}
