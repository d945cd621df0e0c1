// Package tools holds the tool catalog model and dispatches calls to the
// companion scripts.
package tools

import (
	"errors"
	"fmt"
	"sort"

	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/xeipuuv/gojsonschema"
)

// ToolDefinition represents an MCP tool definition
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Recipe turns validated arguments into a script invocation.
type Recipe func(args *Args) (executor.Invocation, error)

// Tool pairs a definition with the recipe that runs it.
type Tool struct {
	Definition ToolDefinition
	Build      Recipe
}

// Registry is the immutable set of tools a backend exposes.
type Registry struct {
	order   []string
	tools   map[string]Tool
	schemas map[string]*gojsonschema.Schema
}

// NewRegistry validates the catalog and compiles every input schema.
func NewRegistry(catalog ...Tool) (*Registry, error) {
	r := &Registry{
		order:   make([]string, 0, len(catalog)),
		tools:   make(map[string]Tool, len(catalog)),
		schemas: make(map[string]*gojsonschema.Schema, len(catalog)),
	}

	for _, tool := range catalog {
		name := tool.Definition.Name
		if name == "" {
			return nil, errors.New("tool with empty name")
		}
		if _, dup := r.tools[name]; dup {
			return nil, fmt.Errorf("duplicate tool name: %s", name)
		}
		if tool.Build == nil {
			return nil, fmt.Errorf("tool %s has no recipe", name)
		}
		if tool.Definition.InputSchema == nil {
			return nil, fmt.Errorf("tool %s has no input schema", name)
		}

		props := schemaProperties(tool.Definition.InputSchema)
		for _, field := range schemaRequired(tool.Definition.InputSchema) {
			if _, ok := props[field]; !ok {
				return nil, fmt.Errorf("tool %s requires undeclared property %s", name, field)
			}
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.Definition.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("tool %s has an invalid input schema: %w", name, err)
		}

		r.order = append(r.order, name)
		r.tools[name] = tool
		r.schemas[name] = schema
	}

	return r, nil
}

// List returns all definitions in declaration order.
func (r *Registry) List() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	return len(r.order)
}

// Validate checks args against the tool's input schema.
func (r *Registry) Validate(name string, args map[string]interface{}) error {
	schema, ok := r.schemas[name]
	if !ok {
		return &UnknownToolError{Name: name}
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &InvalidArgumentsError{Tool: name, Problems: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		if desc.Field() == "(root)" {
			problems = append(problems, desc.Description())
		} else {
			problems = append(problems, desc.Field()+": "+desc.Description())
		}
	}
	sort.Strings(problems)
	return &InvalidArgumentsError{Tool: name, Problems: problems}
}
