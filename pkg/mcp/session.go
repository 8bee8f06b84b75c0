package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrUnsupportedScript is returned by Connect when the provider path's
	// extension does not map to a known runner.
	ErrUnsupportedScript = errors.New("mcp: provider script must be a .py or .js file")

	// ErrSessionClosed is returned by session operations after Close.
	ErrSessionClosed = errors.New("mcp: session closed")
)

// runners maps a provider script extension to the command that runs it.
// The script path is passed as the runner's sole argument.
var runners = map[string]string{
	".py": "python",
	".js": "node",
}

// ToolOutcome is the result of one tool invocation: either a success
// payload or a failure description, always rendered to text. A failure
// outcome is an ordinary value, not an error; the caller decides how to
// fold it into the conversation.
type ToolOutcome struct {
	Content string
	IsError bool
}

// Session is an exclusively-owned handle to one live tool-provider
// process. No catalog listing or call may be issued before the initialize
// handshake completes; Connect performs it before returning. Round trips
// are serialized: the session supports one in-flight request at a time.
type Session struct {
	mu        sync.Mutex
	transport Transport
	cmd       *exec.Cmd
	logger    *slog.Logger
	id        atomic.Int64

	initialized bool
	closed      bool
	server      ResponseInitialize
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used for session-level events.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// Connect launches the tool-provider script as a subprocess, wires its
// stdin/stdout as the transport, and performs the initialize handshake.
func Connect(ctx context.Context, scriptPath string, opts ...SessionOption) (*Session, error) {
	runner, ok := runners[strings.ToLower(filepath.Ext(scriptPath))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScript, scriptPath)
	}

	cmd := exec.Command(runner, scriptPath)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp: wiring stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp: wiring stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("mcp: starting provider %q %q: %w", runner, scriptPath, err)
	}

	s := newSession(NewStdioTransport(stdin, stdout), opts...)
	s.cmd = cmd
	s.logger.Info("provider started", "runner", runner, "script", scriptPath, "pid", cmd.Process.Pid)

	if err := s.initialize(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("mcp: initialize handshake: %w", err)
	}
	return s, nil
}

// NewSession wraps an existing transport, typically an in-process server
// connected over pipes, and performs the initialize handshake.
func NewSession(ctx context.Context, t Transport, opts ...SessionOption) (*Session, error) {
	s := newSession(t, opts...)
	if err := s.initialize(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("mcp: initialize handshake: %w", err)
	}
	return s, nil
}

func newSession(t Transport, opts ...SessionOption) *Session {
	s := &Session{
		transport: t,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// initialize performs the one-time handshake: an initialize request
// followed by the initialized notification.
func (s *Session) initialize(ctx context.Context) error {
	result, err := s.roundTrip(ctx, MethodInitialize, RequestInitialize{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      ClientInfo{Name: "mcpchat", Version: "1.0.0"},
	}, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result, &s.server); err != nil {
		return fmt.Errorf("decoding initialize result: %w", err)
	}

	// The initialized notification has no ID and expects no response.
	notif := Request{Version: RPCVersion, Method: NotificationInitialized}
	data, err := json.Marshal(notif)
	if err != nil {
		return err
	}
	if err := s.transport.Send(ctx, data); err != nil {
		return err
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.logger.Info("session initialized",
		"server", s.server.ServerInfo.Name,
		"version", s.server.ServerInfo.Version)
	return nil
}

// ServerInfo returns the handshake result, or nil before initialization.
func (s *Session) ServerInfo() *ResponseInitialize {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	info := s.server
	return &info
}

// ListTools queries the current tool catalog. Each call round-trips to
// the provider; nothing is cached, so the catalog is always current.
func (s *Session) ListTools(ctx context.Context) ([]Tool, error) {
	var tools []Tool
	cursor := ""
	for {
		var params any
		if cursor != "" {
			params = RequestList{Cursor: cursor}
		}
		result, err := s.roundTrip(ctx, MethodListTools, params, true)
		if err != nil {
			return nil, err
		}

		var page ResponseListTools
		if err := json.Unmarshal(result, &page); err != nil {
			return nil, fmt.Errorf("decoding tools/list result: %w", err)
		}
		for i := range page.Tools {
			page.Tools[i].InputSchema.Patch()
		}
		tools = append(tools, page.Tools...)

		if page.NextCursor == "" {
			return tools, nil
		}
		cursor = page.NextCursor
	}
}

// CallTool sends one invocation and blocks until the single response
// arrives. Tool-level failures, including an unknown tool name, come back
// as a failure outcome rather than an error; the error return is reserved
// for session and transport problems.
func (s *Session) CallTool(ctx context.Context, name string, arguments map[string]any) (ToolOutcome, error) {
	result, err := s.roundTrip(ctx, MethodCallTool, RequestCallTool{Name: name, Arguments: arguments}, true)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			// The provider rejected the call (unknown tool, bad params).
			// That is a per-call failure the model should hear about, not
			// a session fault.
			return ToolOutcome{Content: rpcErr.Message, IsError: true}, nil
		}
		return ToolOutcome{}, err
	}

	var resp ResponseCallTool
	if err := json.Unmarshal(result, &resp); err != nil {
		return ToolOutcome{}, fmt.Errorf("decoding tools/call result: %w", err)
	}
	return ToolOutcome{Content: renderContent(resp.Content), IsError: resp.IsError}, nil
}

// ListPrompts queries the provider's prompt templates.
func (s *Session) ListPrompts(ctx context.Context) ([]Prompt, error) {
	var prompts []Prompt
	cursor := ""
	for {
		var params any
		if cursor != "" {
			params = RequestList{Cursor: cursor}
		}
		result, err := s.roundTrip(ctx, MethodListPrompts, params, true)
		if err != nil {
			return nil, err
		}

		var page ResponseListPrompts
		if err := json.Unmarshal(result, &page); err != nil {
			return nil, fmt.Errorf("decoding prompts/list result: %w", err)
		}
		prompts = append(prompts, page.Prompts...)

		if page.NextCursor == "" {
			return prompts, nil
		}
		cursor = page.NextCursor
	}
}

// GetPrompt expands a prompt template with the given arguments.
func (s *Session) GetPrompt(ctx context.Context, name string, arguments map[string]string) (*ResponseGetPrompt, error) {
	result, err := s.roundTrip(ctx, MethodGetPrompt, RequestGetPrompt{Name: name, Arguments: arguments}, true)
	if err != nil {
		return nil, err
	}
	var resp ResponseGetPrompt
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("decoding prompts/get result: %w", err)
	}
	return &resp, nil
}

// ReadResource reads a resource by URI.
func (s *Session) ReadResource(ctx context.Context, uri string) (*ResponseReadResource, error) {
	result, err := s.roundTrip(ctx, MethodReadResource, RequestReadResource{URI: uri}, true)
	if err != nil {
		return nil, err
	}
	var resp ResponseReadResource
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("decoding resources/read result: %w", err)
	}
	return &resp, nil
}

// Ping checks that the provider is responsive.
func (s *Session) Ping(ctx context.Context) error {
	_, err := s.roundTrip(ctx, MethodPing, nil, true)
	return err
}

// Close terminates the provider process and releases the transport.
// Idempotent: repeated calls return nil.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.transport.Close()
	if s.cmd != nil && s.cmd.Process != nil {
		// Closing stdin asks the provider to exit; kill covers the ones
		// that don't.
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.logger.Info("session closed")
	return err
}

// roundTrip sends one request and blocks until the response with the
// matching ID arrives, skipping any notifications the provider emits in
// between.
func (s *Session) roundTrip(ctx context.Context, method string, params any, needInit bool) (json.RawMessage, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if needInit && !s.initialized {
		s.mu.Unlock()
		return nil, errors.New("mcp: session not initialized")
	}
	s.mu.Unlock()

	id := s.id.Add(1)
	req := Request{Version: RPCVersion, Method: method, ID: id}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding %s params: %w", method, err)
		}
		req.Params = data
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := s.transport.Send(ctx, payload); err != nil {
		return nil, fmt.Errorf("sending %s: %w", method, err)
	}

	for {
		line, err := s.transport.Receive(ctx)
		if err != nil {
			return nil, fmt.Errorf("awaiting %s response: %w", method, err)
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			s.logger.Debug("skipping unparseable message", "err", err)
			continue
		}
		if !matchID(resp.ID, id) {
			// Server-initiated notification or a stale response.
			continue
		}
		if resp.Err != nil {
			return nil, fmt.Errorf("%s: %w", method, resp.Err)
		}
		return resp.Result, nil
	}
}

// matchID compares a decoded JSON-RPC response ID with the request ID.
// Numbers decode as float64, so compare through a common form.
func matchID(got any, want int64) bool {
	switch v := got.(type) {
	case float64:
		return int64(v) == want
	case string:
		return v == fmt.Sprint(want)
	default:
		return false
	}
}

// renderContent flattens tool result content to the single textual form
// the model backends consume. Text parts are joined with newlines;
// anything else is rendered as JSON.
func renderContent(content []Content) string {
	parts := make([]string, 0, len(content))
	for _, c := range content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
			continue
		}
		if data, err := json.Marshal(c); err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}
