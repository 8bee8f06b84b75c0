package openai

import (
	"testing"

	"github.com/openai/openai-go/v3"

	"github.com/tingly-dev/mcpchat/pkg/message"
	"github.com/tingly-dev/mcpchat/pkg/model"
)

func TestNewDefaults(t *testing.T) {
	a := New(Config{})
	if a.ModelName() != DefaultModel {
		t.Errorf("expected default model %s, got %s", DefaultModel, a.ModelName())
	}
}

func TestConvertMessagesRoles(t *testing.T) {
	msgs := []*message.Msg{
		message.NewMsg(message.RoleSystem, "be brief"),
		message.NewMsg(message.RoleUser, "what is 2+2"),
		message.NewAssistantMsg("", []message.ToolCall{
			{ID: "call_1", Name: "add", Arguments: map[string]any{"a": 2, "b": 2}},
		}),
		message.NewToolMsg("call_1", "add", "4"),
	}

	out := convertMessages(msgs)
	if len(out) != 4 {
		t.Fatalf("expected 4 params, got %d", len(out))
	}
	if out[0].OfSystem == nil {
		t.Error("expected system param first")
	}
	if out[1].OfUser == nil {
		t.Error("expected user param second")
	}
	assistant := out[2].OfAssistant
	if assistant == nil {
		t.Fatal("expected assistant param third")
	}
	if len(assistant.ToolCalls) != 1 {
		t.Fatalf("expected replayed tool call, got %d", len(assistant.ToolCalls))
	}
	fn := assistant.ToolCalls[0].OfFunction
	if fn == nil || fn.ID != "call_1" || fn.Function.Name != "add" {
		t.Errorf("tool call not replayed faithfully: %+v", assistant.ToolCalls[0])
	}
	tool := out[3].OfTool
	if tool == nil {
		t.Fatal("expected tool param fourth")
	}
	if tool.ToolCallID != "call_1" {
		t.Errorf("tool param should echo the call ID, got %q", tool.ToolCallID)
	}
}

func TestConvertToolCallArguments(t *testing.T) {
	withArgs := convertToolCall(message.ToolCall{
		ID:        "c1",
		Name:      "add",
		Arguments: map[string]any{"a": 2},
	})
	if got := withArgs.OfFunction.Function.Arguments; got != `{"a":2}` {
		t.Errorf("expected JSON arguments, got %q", got)
	}

	noArgs := convertToolCall(message.ToolCall{ID: "c2", Name: "greet"})
	if got := noArgs.OfFunction.Function.Arguments; got != "{}" {
		t.Errorf("expected empty object for missing arguments, got %q", got)
	}
}

func TestConvertTools(t *testing.T) {
	defs := []model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "add",
			Description: "Add two numbers",
			Parameters:  map[string]any{"type": "object"},
		},
	}}

	out := convertTools(defs)
	if len(out) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(out))
	}
	fn := out[0].OfFunction
	if fn == nil || fn.Function.Name != "add" {
		t.Errorf("unexpected tool conversion: %+v", out[0])
	}
}

func TestParseResponse(t *testing.T) {
	var tc openai.ChatCompletionMessageToolCallUnion
	tc.ID = "call_1"
	tc.Function.Name = "add"
	tc.Function.Arguments = `{"a":2,"b":2}`

	resp := &openai.ChatCompletion{
		ID: "resp_1",
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Content:   "The answer is 4.",
				ToolCalls: []openai.ChatCompletionMessageToolCallUnion{tc},
			},
		}},
	}

	out := parseResponse(resp)
	if out.ID != "resp_1" || out.Content != "The answer is 4." {
		t.Errorf("unexpected parse: %+v", out)
	}
	if len(out.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(out.ToolCalls))
	}
	call := out.ToolCalls[0]
	if call.ID != "call_1" || call.Name != "add" {
		t.Errorf("unexpected call identity: %+v", call)
	}
	if call.Arguments["a"] != float64(2) {
		t.Errorf("arguments not decoded: %+v", call.Arguments)
	}
}

func TestParseResponseNoChoices(t *testing.T) {
	out := parseResponse(&openai.ChatCompletion{ID: "resp_2"})
	if out.Content != "" || out.HasToolCalls() {
		t.Errorf("expected empty response, got %+v", out)
	}
}
