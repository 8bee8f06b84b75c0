package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolHandler implements one server-side tool. Arguments arrive decoded
// into T; the returned string is the tool's textual result.
type ToolHandler[T any] func(ctx context.Context, args T) (string, error)

type serverTool struct {
	def Tool
	run func(ctx context.Context, arguments map[string]any) (string, error)
}

// Toolkit holds the tools a Server exposes, in registration order.
type Toolkit struct {
	mu    sync.RWMutex
	order []string
	tools map[string]*serverTool
}

// NewToolkit creates an empty toolkit.
func NewToolkit() *Toolkit {
	return &Toolkit{tools: make(map[string]*serverTool)}
}

// AddTool registers a tool whose input schema is reflected from T's json
// and jsonschema struct tags.
func AddTool[T any](k *Toolkit, name, description string, fn ToolHandler[T]) error {
	schema, err := inputSchemaFor[T]()
	if err != nil {
		return fmt.Errorf("mcp: reflecting schema for tool %q: %w", name, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if _, exists := k.tools[name]; exists {
		return fmt.Errorf("mcp: tool %q already registered", name)
	}
	k.tools[name] = &serverTool{
		def: Tool{Name: name, Description: description, InputSchema: schema},
		run: func(ctx context.Context, arguments map[string]any) (string, error) {
			data, err := json.Marshal(arguments)
			if err != nil {
				return "", fmt.Errorf("encoding arguments: %w", err)
			}
			var args T
			if err := json.Unmarshal(data, &args); err != nil {
				return "", fmt.Errorf("invalid arguments for %q: %w", name, err)
			}
			return fn(ctx, args)
		},
	}
	k.order = append(k.order, name)
	return nil
}

// Tools returns the registered tool definitions in registration order.
func (k *Toolkit) Tools() []Tool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]Tool, 0, len(k.order))
	for _, name := range k.order {
		out = append(out, k.tools[name].def)
	}
	return out
}

// Run executes a registered tool by name. An unknown name is an error;
// the server reports it as a tool-level failure, not an RPC fault.
func (k *Toolkit) Run(ctx context.Context, name string, arguments map[string]any) (string, error) {
	k.mu.RLock()
	t, ok := k.tools[name]
	k.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return t.run(ctx, arguments)
}

// inputSchemaFor reflects a JSON Schema for T and reshapes it into the
// wire-level InputSchema (top-level properties and required list).
func inputSchemaFor[T any]() (InputSchema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return InputSchema{}, err
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return InputSchema{}, err
	}
	var out InputSchema
	if err := json.Unmarshal(data, &out); err != nil {
		return InputSchema{}, err
	}
	out.Patch()
	return out, nil
}
