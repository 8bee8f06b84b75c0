// Package openai implements the chat model backend over any
// OpenAI-compatible chat completions API. The default endpoint is a local
// Ollama server, which exposes the same wire format under /v1.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/tingly-dev/mcpchat/pkg/message"
	"github.com/tingly-dev/mcpchat/pkg/model"
)

// DefaultBaseURL points at a local Ollama server's OpenAI-compatible API.
const DefaultBaseURL = "http://localhost:11434/v1"

// DefaultModel is the model used when none is configured.
const DefaultModel = "gpt-oss:20b"

// Config holds the configuration for the backend.
type Config struct {
	// APIKey authenticates against the endpoint. Ollama ignores it; a
	// placeholder is sent when empty because the wire format requires one.
	APIKey string

	// BaseURL is the API endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the model identifier to request.
	Model string
}

// Adapter implements model.ChatModel over the official SDK.
type Adapter struct {
	client    openai.Client
	modelName string
}

var _ model.ChatModel = (*Adapter)(nil)

// New creates a backend from the given configuration.
func New(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "ollama"
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	)
	return &Adapter{client: client, modelName: cfg.Model}
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

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(a.modelName),
		Messages: convertMessages(messages),
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if options.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*options.MaxTokens))
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	return parseResponse(resp), nil
}

// convertMessages converts conversation messages to SDK unions.
func convertMessages(messages []*message.Msg) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		case message.RoleUser:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		case message.RoleAssistant:
			assistant := &openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			for _, call := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, convertToolCall(call))
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case message.RoleTool:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					ToolCallID: msg.ToolCallID,
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		}
	}

	return result
}

// convertToolCall re-encodes a requested call for conversation replay, so
// the summary call sees the assistant turn exactly as the model emitted it.
func convertToolCall(call message.ToolCall) openai.ChatCompletionMessageToolCallUnionParam {
	arguments := "{}"
	if len(call.Arguments) > 0 {
		if data, err := json.Marshal(call.Arguments); err == nil {
			arguments = string(data)
		}
	}
	return openai.ChatCompletionMessageToolCallUnionParam{
		OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
			ID: call.ID,
			Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
				Name:      call.Name,
				Arguments: arguments,
			},
		},
	}
}

// convertTools converts tool definitions to SDK format.
func convertTools(tools []model.ToolDefinition) []openai.ChatCompletionToolUnionParam {
	result := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, tool := range tools {
		result[i] = openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        tool.Function.Name,
					Description: openai.String(tool.Function.Description),
					Parameters:  tool.Function.Parameters,
				},
			},
		}
	}
	return result
}

// parseResponse converts an SDK response to a ChatResponse.
func parseResponse(resp *openai.ChatCompletion) *model.ChatResponse {
	out := &model.ChatResponse{ID: resp.ID, Raw: resp}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &model.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		}
	}
	if len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	out.Content = choice.Message.Content
	for _, tc := range choice.Message.ToolCalls {
		arguments := make(map[string]any)
		if tc.Function.Arguments != "" {
			json.Unmarshal([]byte(tc.Function.Arguments), &arguments)
		}
		out.ToolCalls = append(out.ToolCalls, message.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: arguments,
		})
	}
	return out
}
