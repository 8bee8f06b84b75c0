// Package message defines conversational turns and the append-only
// conversation accumulator passed to chat model backends.
package message

import (
	"fmt"

	"github.com/google/uuid"
)

// Role identifies who produced a conversational turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one tool invocation requested by the model inside an
// assistant message. Arguments is the decoded JSON argument object.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Msg is a single conversational turn. Assistant messages may carry the
// tool calls the model requested; tool messages carry the textual result
// of one call and echo the call ID they answer.
type Msg struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// NewMsg creates a message with the given role and text content.
func NewMsg(role Role, content string) *Msg {
	return &Msg{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
	}
}

// NewAssistantMsg creates an assistant message preserving the exact
// tool-call payload the model returned, so the follow-up model call sees
// the same context the model produced.
func NewAssistantMsg(content string, calls []ToolCall) *Msg {
	m := NewMsg(RoleAssistant, content)
	m.ToolCalls = calls
	return m
}

// NewToolMsg creates a tool message carrying the textual outcome of the
// call identified by callID. Failed calls use the same shape; the error
// description goes in content.
func NewToolMsg(callID, name, content string) *Msg {
	m := NewMsg(RoleTool, content)
	m.ToolCallID = callID
	m.ToolName = name
	return m
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m *Msg) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// String returns a short representation for logging.
func (m *Msg) String() string {
	return fmt.Sprintf("Msg(id=%s role=%s tool_calls=%d)", m.ID, m.Role, len(m.ToolCalls))
}
