// Package agent implements the query orchestration loop: one decision
// model call with the provider's tool catalog attached, sequential
// dispatch of whatever tool calls the model requested, then one summary
// model call over the updated conversation. A query costs exactly one
// model call when the model answers directly, and exactly two otherwise.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tingly-dev/mcpchat/pkg/mcp"
	"github.com/tingly-dev/mcpchat/pkg/message"
	"github.com/tingly-dev/mcpchat/pkg/model"
	"github.com/tingly-dev/mcpchat/pkg/toolschema"
)

// DefaultCallTimeout bounds each model call and each tool round-trip. A
// hung provider or backend fails the query instead of blocking forever.
const DefaultCallTimeout = 2 * time.Minute

// noContentFallback stands in for an empty model reply.
const noContentFallback = "Sorry, I received no content."

// ToolSession is the slice of the provider session the loop needs. It is
// satisfied by *mcp.Session.
type ToolSession interface {
	// ListTools returns the provider's current tool catalog.
	ListTools(ctx context.Context) ([]mcp.Tool, error)

	// CallTool invokes one tool. Tool-level failures (including unknown
	// names) come back as an outcome with IsError set; only transport
	// breakdowns return an error.
	CallTool(ctx context.Context, name string, arguments map[string]any) (mcp.ToolOutcome, error)
}

// Config configures an Agent.
type Config struct {
	// Model is the chat backend. Required.
	Model model.ChatModel

	// Session is the connected tool-provider session. Required.
	Session ToolSession

	// Logger receives debug traces. Defaults to slog.Default().
	Logger *slog.Logger

	// CallTimeout is the deadline applied to each model call and each
	// tool invocation. Zero means DefaultCallTimeout; negative disables
	// the deadline entirely.
	CallTimeout time.Duration
}

// Agent drives queries through the model and the tool-provider session.
// It is not safe for concurrent use; the session it holds is exclusively
// owned.
type Agent struct {
	model       model.ChatModel
	session     ToolSession
	logger      *slog.Logger
	callTimeout time.Duration
}

// New creates an Agent from the given configuration.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("agent: model is required")
	}
	if cfg.Session == nil {
		return nil, fmt.Errorf("agent: session is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Agent{
		model:       cfg.Model,
		session:     cfg.Session,
		logger:      cfg.Logger,
		callTimeout: cfg.CallTimeout,
	}, nil
}

// ProcessQuery runs one query through the loop and returns the combined
// user-facing output: one report line per tool invocation, a blank line,
// then the model's summary. When the model answers without tools the
// answer text is returned verbatim.
//
// The catalog is re-listed on every query so tools added or removed by
// the provider between queries are always visible. Tool calls run
// sequentially in the order the model emitted them, and a failing call
// never aborts the loop: the failure text is folded into the
// conversation as a tool turn and the model decides how to react.
func (a *Agent) ProcessQuery(ctx context.Context, query string) (string, error) {
	conv := message.NewConversation()
	conv.Append(message.NewMsg(message.RoleUser, query))

	tools, err := a.listTools(ctx)
	if err != nil {
		return "", fmt.Errorf("listing tools: %w", err)
	}
	defs := toolschema.Adapt(tools)
	a.logger.Debug("decision call", "model", a.model.ModelName(), "tools", len(defs))

	resp, err := a.callModel(ctx, conv, &model.CallOptions{Tools: defs})
	if err != nil {
		return "", fmt.Errorf("decision call: %w", err)
	}
	conv.Append(message.NewAssistantMsg(resp.Content, resp.ToolCalls))

	if !resp.HasToolCalls() {
		if resp.Content == "" {
			return noContentFallback, nil
		}
		return resp.Content, nil
	}

	reports := make([]string, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		report, result := a.dispatch(ctx, call)
		reports = append(reports, report)
		conv.Append(message.NewToolMsg(call.ID, call.Name, result))
	}

	summary, err := a.callModel(ctx, conv, &model.CallOptions{})
	if err != nil {
		return "", fmt.Errorf("summary call: %w", err)
	}
	text := summary.Content
	if text == "" {
		text = noContentFallback
	}
	return strings.Join(reports, "\n") + "\n\n" + text, nil
}

// dispatch runs one tool call and returns the user-facing report line
// and the text folded into the conversation as the tool turn. Failures
// of any kind are rendered, never propagated.
func (a *Agent) dispatch(ctx context.Context, call message.ToolCall) (report, result string) {
	callCtx, cancel := a.withDeadline(ctx)
	defer cancel()

	start := time.Now()
	outcome, err := a.session.CallTool(callCtx, call.Name, call.Arguments)
	elapsed := time.Since(start)
	switch {
	case err != nil:
		a.logger.Warn("tool call failed", "tool", call.Name, "duration", elapsed, "error", err)
		return fmt.Sprintf("[Error calling tool '%s': %v]", call.Name, err), err.Error()
	case outcome.IsError:
		a.logger.Warn("tool reported error", "tool", call.Name, "duration", elapsed, "error", outcome.Content)
		return fmt.Sprintf("[Error calling tool '%s': %s]", call.Name, outcome.Content), outcome.Content
	default:
		a.logger.Debug("tool call succeeded", "tool", call.Name, "duration", elapsed)
		return fmt.Sprintf("[Tool '%s' returned: %s]", call.Name, outcome.Content), outcome.Content
	}
}

func (a *Agent) listTools(ctx context.Context) ([]mcp.Tool, error) {
	listCtx, cancel := a.withDeadline(ctx)
	defer cancel()
	return a.session.ListTools(listCtx)
}

func (a *Agent) callModel(ctx context.Context, conv *message.Conversation, options *model.CallOptions) (*model.ChatResponse, error) {
	callCtx, cancel := a.withDeadline(ctx)
	defer cancel()
	return a.model.Call(callCtx, conv.Snapshot(), options)
}

func (a *Agent) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.callTimeout < 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.callTimeout)
}
