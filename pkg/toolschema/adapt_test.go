package toolschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingly-dev/mcpchat/pkg/mcp"
)

func TestAdaptPreservesOrder(t *testing.T) {
	tools := []mcp.Tool{
		{Name: "beta", Description: "second alphabetically but first in catalog"},
		{Name: "alpha"},
		{Name: "gamma"},
	}

	defs := Adapt(tools)
	require.Len(t, defs, 3)
	for i, want := range []string{"beta", "alpha", "gamma"} {
		assert.Equal(t, want, defs[i].Function.Name)
		assert.Equal(t, "function", defs[i].Type)
	}
}

func TestAdaptDefaultsEmptySchema(t *testing.T) {
	defs := Adapt([]mcp.Tool{{Name: "bare"}})
	require.Len(t, defs, 1)

	params := defs[0].Function.Parameters
	assert.Equal(t, "object", params["type"])

	props, ok := params["properties"].(map[string]any)
	require.True(t, ok, "properties should default to an empty mapping")
	assert.Empty(t, props)

	required, ok := params["required"].([]string)
	require.True(t, ok, "required should default to an empty list")
	assert.Empty(t, required)
}

func TestAdaptCarriesSchemaThrough(t *testing.T) {
	defs := Adapt([]mcp.Tool{{
		Name:        "add",
		Description: "Add two numbers",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"a": map[string]any{"type": "integer"},
				"b": map[string]any{"type": "integer"},
			},
			Required: []string{"a", "b"},
		},
	}})
	require.Len(t, defs, 1)

	fn := defs[0].Function
	assert.Equal(t, "Add two numbers", fn.Description)
	assert.Len(t, fn.Parameters["properties"], 2)
	assert.Equal(t, []string{"a", "b"}, fn.Parameters["required"])
}

func TestAdaptDoesNotMutateInput(t *testing.T) {
	tools := []mcp.Tool{{Name: "bare"}}
	Adapt(tools)
	assert.Nil(t, tools[0].InputSchema.Properties, "adapter must not patch the caller's descriptor")
}
