package anthropic

import (
	"testing"

	"github.com/tingly-dev/mcpchat/pkg/message"
	"github.com/tingly-dev/mcpchat/pkg/model"
)

func TestConvertMessagesLiftsSystem(t *testing.T) {
	msgs := []*message.Msg{
		message.NewMsg(message.RoleSystem, "be brief"),
		message.NewMsg(message.RoleUser, "hello"),
	}

	out, system := convertMessages(msgs)
	if system != "be brief" {
		t.Errorf("system turn should be lifted, got %q", system)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 message after lifting system, got %d", len(out))
	}
	if out[0].Role != "user" {
		t.Errorf("expected user role, got %s", out[0].Role)
	}
}

func TestConvertMessagesToolTurns(t *testing.T) {
	msgs := []*message.Msg{
		message.NewMsg(message.RoleUser, "what is 2+2"),
		message.NewAssistantMsg("", []message.ToolCall{
			{ID: "toolu_1", Name: "add", Arguments: map[string]any{"a": 2, "b": 2}},
		}),
		message.NewToolMsg("toolu_1", "add", "4"),
	}

	out, _ := convertMessages(msgs)
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}

	assistant := out[1]
	if assistant.Role != "assistant" {
		t.Fatalf("expected assistant turn, got %s", assistant.Role)
	}
	if len(assistant.Content) != 1 || assistant.Content[0].OfToolUse == nil {
		t.Fatalf("expected a tool_use block, got %+v", assistant.Content)
	}
	use := assistant.Content[0].OfToolUse
	if use.ID != "toolu_1" || use.Name != "add" {
		t.Errorf("tool_use identity not preserved: %+v", use)
	}

	// Tool results travel as tool_result blocks inside a user message.
	result := out[2]
	if result.Role != "user" {
		t.Fatalf("tool turn should become a user message, got %s", result.Role)
	}
	block := result.Content[0].OfToolResult
	if block == nil {
		t.Fatalf("expected tool_result block, got %+v", result.Content[0])
	}
	if block.ToolUseID != "toolu_1" {
		t.Errorf("tool_result should echo the call ID, got %q", block.ToolUseID)
	}
}

func TestConvertTools(t *testing.T) {
	defs := []model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "add",
			Description: "Add two numbers",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"a": map[string]any{"type": "integer"},
				},
			},
		},
	}}

	out := convertTools(defs)
	if len(out) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(out))
	}
	tool := out[0].OfTool
	if tool == nil || tool.Name != "add" {
		t.Fatalf("unexpected tool conversion: %+v", out[0])
	}
	props, ok := tool.InputSchema.Properties.(map[string]any)
	if !ok {
		t.Fatalf("expected properties mapping, got %T", tool.InputSchema.Properties)
	}
	if _, ok := props["a"]; !ok {
		t.Error("schema properties not carried through")
	}
}

func TestConvertToolsRequiredList(t *testing.T) {
	makeTool := func(required any) model.ToolDefinition {
		return model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name: "add",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
					"required":   required,
				},
			},
		}
	}

	t.Run("string slice", func(t *testing.T) {
		out := convertTools([]model.ToolDefinition{makeTool([]string{"a", "b"})})
		got := out[0].OfTool.InputSchema.Required
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("expected [a b], got %v", got)
		}
	})

	t.Run("JSON-decoded any slice", func(t *testing.T) {
		out := convertTools([]model.ToolDefinition{makeTool([]any{"a", "b"})})
		got := out[0].OfTool.InputSchema.Required
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("expected [a b], got %v", got)
		}
	})

	t.Run("absent", func(t *testing.T) {
		out := convertTools([]model.ToolDefinition{makeTool(nil)})
		if got := out[0].OfTool.InputSchema.Required; len(got) != 0 {
			t.Errorf("expected no required params, got %v", got)
		}
	})
}

func TestNewDefaults(t *testing.T) {
	a := New(Config{Model: "claude-test"})
	if a.ModelName() != "claude-test" {
		t.Errorf("expected configured model, got %s", a.ModelName())
	}
	if a.maxTokens != DefaultMaxTokens {
		t.Errorf("expected default max tokens %d, got %d", DefaultMaxTokens, a.maxTokens)
	}
}
