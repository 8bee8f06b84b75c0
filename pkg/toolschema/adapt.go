// Package toolschema converts provider tool descriptors into the
// function-style schema chat model backends expect.
package toolschema

import (
	"github.com/tingly-dev/mcpchat/pkg/mcp"
	"github.com/tingly-dev/mcpchat/pkg/model"
)

// Adapt converts catalog entries to model tool definitions. It is pure
// and order-preserving: catalog order becomes schema order, since some
// backends are sensitive to the ordering of choices. Descriptors missing
// properties or a required list get empty defaults.
func Adapt(tools []mcp.Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema
		schema.Patch()
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": schema.Properties,
					"required":   schema.Required,
				},
			},
		})
	}
	return defs
}
