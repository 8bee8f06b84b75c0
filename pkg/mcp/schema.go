// Package mcp implements a Model Context Protocol client session and a
// stdio server, speaking JSON-RPC 2.0 framed as newline-delimited JSON.
package mcp

import (
	"encoding/json"
	"fmt"
)

const (
	// RPCVersion is the JSON-RPC version string.
	RPCVersion = "2.0"
	// ProtocolVersion is the MCP protocol revision this package speaks.
	ProtocolVersion = "2024-11-05"

	MethodInitialize    = "initialize"
	MethodPing          = "ping"
	MethodListTools     = "tools/list"
	MethodCallTool      = "tools/call"
	MethodListPrompts   = "prompts/list"
	MethodGetPrompt     = "prompts/get"
	MethodListResources = "resources/list"
	MethodReadResource  = "resources/read"

	NotificationInitialized = "notifications/initialized"

	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternal       = -32603
)

// Request is a JSON-RPC request or, when ID is nil, a notification.
type Request struct {
	Version string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      any             `json:"id,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC response carrying either a result or an error.
type Response struct {
	Version string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Err     *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewRPCError creates an error object with optional data.
func NewRPCError(code int, message string, data ...any) *RPCError {
	switch len(data) {
	case 0:
		return &RPCError{Code: code, Message: message}
	case 1:
		return &RPCError{Code: code, Message: message, Data: data[0]}
	default:
		return &RPCError{Code: code, Message: message, Data: data}
	}
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// InputSchema describes a tool's parameters as a JSON Schema object.
type InputSchema struct {
	Type       string         `json:"type,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// Patch fills in the defaults a provider may omit: an empty properties
// object and an empty required list.
func (s *InputSchema) Patch() {
	if s.Type == "" {
		s.Type = "object"
	}
	if s.Properties == nil {
		s.Properties = map[string]any{}
	}
	if s.Required == nil {
		s.Required = []string{}
	}
}

// Tool is one callable tool advertised by a provider. Immutable once
// fetched; re-fetched per query by callers that want an always-current
// catalog.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema InputSchema `json:"inputSchema"`
}

// Prompt is a prompt template advertised by a provider.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes one argument a prompt template accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Resource is a resource advertised by a provider.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Content is one piece of content in a tool call result.
type Content struct {
	Type     string `json:"type"` // "text", "image", "resource"
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// ClientInfo identifies the client during the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// RequestInitialize is the params object of the initialize request.
type RequestInitialize struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
}

// ResponseInitialize is the result of the initialize request.
type ResponseInitialize struct {
	ProtocolVersion string `json:"protocolVersion"`
	Capabilities    struct {
		Tools     map[string]any `json:"tools,omitempty"`
		Prompts   map[string]any `json:"prompts,omitempty"`
		Resources map[string]any `json:"resources,omitempty"`
	} `json:"capabilities"`
	ServerInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

// RequestList is the params object of paginated list requests.
type RequestList struct {
	Cursor string `json:"cursor,omitempty"`
}

// ResponseListTools is the result of a tools/list request.
type ResponseListTools struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// ResponseListPrompts is the result of a prompts/list request.
type ResponseListPrompts struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// ResponseListResources is the result of a resources/list request.
type ResponseListResources struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// RequestCallTool is the params object of a tools/call request.
type RequestCallTool struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ResponseCallTool is the result of a tools/call request. A tool-level
// failure sets IsError; it is a successful RPC exchange either way.
type ResponseCallTool struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// RequestGetPrompt is the params object of a prompts/get request.
type RequestGetPrompt struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// PromptMessage is one message in an expanded prompt.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// ResponseGetPrompt is the result of a prompts/get request.
type ResponseGetPrompt struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// RequestReadResource is the params object of a resources/read request.
type RequestReadResource struct {
	URI string `json:"uri"`
}

// ResourceContents is one block of a read resource.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ResponseReadResource is the result of a resources/read request.
type ResponseReadResource struct {
	Contents []ResourceContents `json:"contents"`
}
