package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developer-mesh/review-mcp/internal/executor"
)

func echoRecipe(script string) Recipe {
	return func(args *Args) (executor.Invocation, error) {
		return executor.Invocation{Interpreter: "bash", Script: script}, args.Err()
	}
}

func testTool(name string, props Properties, required ...string) Tool {
	return Tool{
		Definition: ToolDefinition{
			Name:        name,
			Description: "test tool " + name,
			InputSchema: ObjectSchema(props, required...),
		},
		Build: echoRecipe(name + ".sh"),
	}
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(
		testTool("b_tool", Properties{}),
		testTool("a_tool", Properties{"id": {Type: "number"}}, "id"),
	)
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Count())

	defs := reg.List()
	require.Len(t, defs, 2)
	assert.Equal(t, "b_tool", defs[0].Name, "declaration order is kept")
	assert.Equal(t, "a_tool", defs[1].Name)
	assert.Equal(t, defs, reg.List(), "listing is repeatable")

	tool, ok := reg.Lookup("a_tool")
	require.True(t, ok)
	assert.Equal(t, "a_tool", tool.Definition.Name)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		catalog []Tool
		want    string
	}{
		{
			name:    "duplicate names",
			catalog: []Tool{testTool("x", Properties{}), testTool("x", Properties{})},
			want:    "duplicate tool name: x",
		},
		{
			name:    "empty name",
			catalog: []Tool{testTool("", Properties{})},
			want:    "empty name",
		},
		{
			name:    "required but undeclared",
			catalog: []Tool{testTool("x", Properties{"a": {Type: "string"}}, "b")},
			want:    "requires undeclared property b",
		},
		{
			name:    "missing recipe",
			catalog: []Tool{{Definition: ToolDefinition{Name: "x", InputSchema: ObjectSchema(Properties{})}}},
			want:    "has no recipe",
		},
		{
			name:    "missing schema",
			catalog: []Tool{{Definition: ToolDefinition{Name: "x"}, Build: echoRecipe("x.sh")}},
			want:    "has no input schema",
		},
		{
			name:    "invalid schema",
			catalog: []Tool{testTool("x", Properties{"a": {Type: "not-a-type"}})},
			want:    "invalid input schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.catalog...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry_Validate(t *testing.T) {
	reg, err := NewRegistry(testTool("get", Properties{
		"mr_iid": {Type: "number"},
		"state":  {Type: "string", Enum: []string{"opened", "closed"}},
		"labels": {Type: "array", Items: "number"},
		"ms":     {Type: "number", Nullable: true},
	}, "mr_iid"))
	require.NoError(t, err)

	assert.NoError(t, reg.Validate("get", map[string]interface{}{"mr_iid": float64(3)}))
	assert.NoError(t, reg.Validate("get", map[string]interface{}{"mr_iid": float64(3), "ms": nil}))

	err = reg.Validate("get", nil)
	var invalid *InvalidArgumentsError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, []string{"mr_iid is required"}, invalid.Problems)

	err = reg.Validate("get", map[string]interface{}{"mr_iid": "3", "state": "merged", "labels": []interface{}{"x"}})
	require.True(t, errors.As(err, &invalid))
	assert.Len(t, invalid.Problems, 3)
	assert.Contains(t, err.Error(), "Invalid arguments for get")

	err = reg.Validate("nope", nil)
	var unknown *UnknownToolError
	assert.True(t, errors.As(err, &unknown))
}

func TestObjectSchema(t *testing.T) {
	schema := ObjectSchema(Properties{
		"state":    {Type: "string", Description: "Filter", Enum: []string{"opened"}, Default: "opened"},
		"ids":      {Type: "array", Items: "number"},
		"nullable": {Type: "number", Nullable: true},
	}, "state")

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"state"}, schema["required"])

	props := schema["properties"].(map[string]interface{})
	state := props["state"].(map[string]interface{})
	assert.Equal(t, "opened", state["default"])
	assert.Equal(t, []interface{}{"opened"}, state["enum"])
	assert.Equal(t, map[string]interface{}{"type": "number"}, props["ids"].(map[string]interface{})["items"])
	assert.Equal(t, []interface{}{"number", "null"}, props["nullable"].(map[string]interface{})["type"])

	empty := ObjectSchema(Properties{})
	_, hasRequired := empty["required"]
	assert.False(t, hasRequired)
}
