package message

import "testing"

func TestNewMsg(t *testing.T) {
	msg := NewMsg(RoleUser, "hello")
	if msg.ID == "" {
		t.Error("expected a generated ID")
	}
	if msg.Role != RoleUser || msg.Content != "hello" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.HasToolCalls() {
		t.Error("plain message should carry no tool calls")
	}
}

func TestNewAssistantMsgPreservesToolCalls(t *testing.T) {
	calls := []ToolCall{
		{ID: "c1", Name: "add", Arguments: map[string]any{"a": 1}},
		{ID: "c2", Name: "greet"},
	}
	msg := NewAssistantMsg("", calls)
	if !msg.HasToolCalls() {
		t.Fatal("expected tool calls")
	}
	if len(msg.ToolCalls) != 2 || msg.ToolCalls[0].ID != "c1" || msg.ToolCalls[1].Name != "greet" {
		t.Errorf("tool calls not preserved: %+v", msg.ToolCalls)
	}
}

func TestNewToolMsg(t *testing.T) {
	msg := NewToolMsg("call_9", "add", "4")
	if msg.Role != RoleTool {
		t.Errorf("expected tool role, got %s", msg.Role)
	}
	if msg.ToolCallID != "call_9" || msg.ToolName != "add" || msg.Content != "4" {
		t.Errorf("unexpected tool message: %+v", msg)
	}
}

func TestConversationAppendOrder(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewMsg(RoleUser, "first"))
	conv.Append(NewMsg(RoleAssistant, "second"))
	conv.Append(NewToolMsg("c1", "add", "third"))

	if conv.Len() != 3 {
		t.Fatalf("expected 3 messages, got %d", conv.Len())
	}
	snap := conv.Snapshot()
	for i, want := range []string{"first", "second", "third"} {
		if snap[i].Content != want {
			t.Errorf("message %d: expected %q, got %q", i, want, snap[i].Content)
		}
	}
}

func TestConversationSnapshotIsolated(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewMsg(RoleUser, "one"))

	snap := conv.Snapshot()
	conv.Append(NewMsg(RoleUser, "two"))

	if len(snap) != 1 {
		t.Errorf("snapshot should not see later appends, got %d messages", len(snap))
	}
	if conv.Len() != 2 {
		t.Errorf("conversation should have 2 messages, got %d", conv.Len())
	}
}
