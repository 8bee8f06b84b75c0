// Package model defines the chat model backend contract used by the
// orchestration loop, plus the function-style tool schema handed to it.
package model

import (
	"context"

	"github.com/tingly-dev/mcpchat/pkg/message"
)

// ChatModel is the interface all chat model backends implement. A call
// either returns direct text, a list of requested tool calls, or both;
// callers treat tool-call intent as taking precedence.
type ChatModel interface {
	// Call invokes the model with the conversation snapshot and options.
	Call(ctx context.Context, messages []*message.Msg, options *CallOptions) (*ChatResponse, error)

	// ModelName returns the configured model identifier.
	ModelName() string
}

// CallOptions holds per-call options. A nil Tools slice distinguishes a
// summary call from a decision call: backends must not advertise any tools
// when it is empty.
type CallOptions struct {
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
}

// ToolDefinition defines a tool for function calling.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition defines a function for tool calling. Parameters is a
// JSON Schema object with "type", "properties" and "required" keys.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatResponse is a response from a chat model backend.
type ChatResponse struct {
	ID        string             `json:"id"`
	Content   string             `json:"content"`
	ToolCalls []message.ToolCall `json:"tool_calls,omitempty"`
	Usage     *Usage             `json:"usage,omitempty"`
	Raw       any                `json:"-"` // raw response from the API
}

// HasToolCalls reports whether the model requested any tool invocations.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
