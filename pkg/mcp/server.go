package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// PromptRenderer expands a prompt template with the given arguments into
// the prompt text presented as a single user message.
type PromptRenderer func(arguments map[string]string) (string, error)

// ResourceReader reads the resource identified by uri and returns its
// textual contents.
type ResourceReader func(uri string) (string, error)

type serverPrompt struct {
	def    Prompt
	render PromptRenderer
}

type serverResource struct {
	def    Resource
	prefix string // URI prefix for template resources, e.g. "greeting://"
	read   ResourceReader
}

// Server is a tool provider serving MCP over a Transport, one request at
// a time in arrival order.
type Server struct {
	name    string
	version string
	logger  *slog.Logger

	mu          sync.RWMutex
	toolkit     *Toolkit
	prompts     []*serverPrompt
	resources   []*serverResource
	initialised bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithToolkit sets the server's toolkit.
func WithToolkit(k *Toolkit) ServerOption {
	return func(s *Server) { s.toolkit = k }
}

// WithServerLogger sets the logger for server-side events.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a server identifying itself with the given name and
// version during the handshake.
func NewServer(name, version string, opts ...ServerOption) *Server {
	s := &Server{
		name:    name,
		version: version,
		logger:  slog.Default(),
		toolkit: NewToolkit(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddPrompt registers a prompt template.
func (s *Server) AddPrompt(def Prompt, render PromptRenderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, &serverPrompt{def: def, render: render})
}

// AddResource registers a resource. URIs matching prefix (or equal to the
// declared URI when prefix is empty) are read through the given reader.
func (s *Server) AddResource(def Resource, prefix string, read ResourceReader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, &serverResource{def: def, prefix: prefix, read: read})
}

// RunStdio serves requests over the given streams, typically os.Stdin and
// os.Stdout, until EOF or the context is done.
func (s *Server) RunStdio(ctx context.Context, r io.ReadCloser, w io.WriteCloser) error {
	return s.Serve(ctx, NewStdioTransport(w, r))
}

// Serve handles requests from the transport until it closes or the
// context is done.
func (s *Server) Serve(ctx context.Context, t Transport) error {
	defer t.Close()
	for {
		line, err := t.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrTransportClosed) || errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		response := s.process(ctx, line)
		if response == nil {
			continue // notification
		}
		data, err := json.Marshal(response)
		if err != nil {
			s.logger.Error("encoding response", "err", err)
			continue
		}
		if err := t.Send(ctx, data); err != nil {
			return fmt.Errorf("mcp: sending response: %w", err)
		}
	}
}

// process decodes one request and dispatches it. Notifications return a
// nil response.
func (s *Server) process(ctx context.Context, line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("dropping unparseable request", "err", err)
		return &Response{Version: RPCVersion, Err: NewRPCError(ErrorCodeInvalidParams, err.Error())}
	}

	result, err := s.dispatch(ctx, &req)
	if req.ID == nil {
		return nil
	}

	resp := &Response{Version: RPCVersion, ID: req.ID}
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			resp.Err = rpcErr
		} else {
			resp.Err = NewRPCError(ErrorCodeInternal, err.Error())
		}
		return resp
	}

	data, err := json.Marshal(result)
	if err != nil {
		resp.Err = NewRPCError(ErrorCodeInternal, err.Error())
		return resp
	}
	resp.Result = data
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, error) {
	switch req.Method {
	case MethodInitialize:
		return s.handleInitialize()
	case NotificationInitialized:
		s.mu.Lock()
		s.initialised = true
		s.mu.Unlock()
		return nil, nil
	case MethodPing:
		return map[string]any{}, nil
	case MethodListTools:
		return &ResponseListTools{Tools: s.toolkit.Tools()}, nil
	case MethodCallTool:
		return s.handleCallTool(ctx, req.Params)
	case MethodListPrompts:
		return s.handleListPrompts()
	case MethodGetPrompt:
		return s.handleGetPrompt(req.Params)
	case MethodListResources:
		return s.handleListResources()
	case MethodReadResource:
		return s.handleReadResource(req.Params)
	default:
		return nil, NewRPCError(ErrorCodeMethodNotFound, "method not found", req.Method)
	}
}

func (s *Server) handleInitialize() (any, error) {
	resp := &ResponseInitialize{ProtocolVersion: ProtocolVersion}
	resp.ServerInfo.Name = s.name
	resp.ServerInfo.Version = s.version
	resp.Capabilities.Tools = map[string]any{"listChanged": false}
	resp.Capabilities.Prompts = map[string]any{"listChanged": false}
	resp.Capabilities.Resources = map[string]any{"listChanged": false, "subscribe": false}
	return resp, nil
}

func (s *Server) handleCallTool(ctx context.Context, params json.RawMessage) (any, error) {
	var req RequestCallTool
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, NewRPCError(ErrorCodeInvalidParams, err.Error())
	}

	s.logger.Info("tool call", "tool", req.Name)
	result, err := s.toolkit.Run(ctx, req.Name, req.Arguments)
	if err != nil {
		// Tool failures travel as isError results so the client can fold
		// them into its conversation instead of failing the exchange.
		return &ResponseCallTool{
			Content: []Content{{Type: "text", Text: err.Error()}},
			IsError: true,
		}, nil
	}
	return &ResponseCallTool{
		Content: []Content{{Type: "text", Text: result}},
	}, nil
}

func (s *Server) handleListPrompts() (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := &ResponseListPrompts{Prompts: make([]Prompt, 0, len(s.prompts))}
	for _, p := range s.prompts {
		resp.Prompts = append(resp.Prompts, p.def)
	}
	return resp, nil
}

func (s *Server) handleGetPrompt(params json.RawMessage) (any, error) {
	var req RequestGetPrompt
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, NewRPCError(ErrorCodeInvalidParams, err.Error())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.prompts {
		if p.def.Name != req.Name {
			continue
		}
		text, err := p.render(req.Arguments)
		if err != nil {
			return nil, NewRPCError(ErrorCodeInternal, err.Error())
		}
		return &ResponseGetPrompt{
			Description: p.def.Description,
			Messages: []PromptMessage{
				{Role: "user", Content: Content{Type: "text", Text: text}},
			},
		}, nil
	}
	return nil, NewRPCError(ErrorCodeInvalidParams, "unknown prompt", req.Name)
}

func (s *Server) handleListResources() (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := &ResponseListResources{Resources: make([]Resource, 0, len(s.resources))}
	for _, r := range s.resources {
		resp.Resources = append(resp.Resources, r.def)
	}
	return resp, nil
}

func (s *Server) handleReadResource(params json.RawMessage) (any, error) {
	var req RequestReadResource
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, NewRPCError(ErrorCodeInvalidParams, err.Error())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.resources {
		match := req.URI == r.def.URI
		if !match && r.prefix != "" {
			match = strings.HasPrefix(req.URI, r.prefix)
		}
		if !match {
			continue
		}
		text, err := r.read(req.URI)
		if err != nil {
			return nil, NewRPCError(ErrorCodeInternal, err.Error())
		}
		return &ResponseReadResource{
			Contents: []ResourceContents{{URI: req.URI, MimeType: r.def.MimeType, Text: text}},
		}, nil
	}
	return nil, NewRPCError(ErrorCodeInvalidParams, "unknown resource", req.URI)
}
