package tools

// Property describes one field of a tool's input schema.
type Property struct {
	Type        string
	Description string
	Enum        []string
	Default     interface{}
	Items       string // element type when Type is "array"
	Nullable    bool
}

// Properties maps field names to their schema.
type Properties map[string]Property

// ObjectSchema builds a JSON-Schema object from props. required lists the
// fields callers must supply.
func ObjectSchema(props Properties, required ...string) map[string]interface{} {
	properties := make(map[string]interface{}, len(props))
	for name, p := range props {
		properties[name] = p.schema()
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = append([]string(nil), required...)
	}
	return schema
}

func (p Property) schema() map[string]interface{} {
	s := map[string]interface{}{}
	if p.Nullable {
		s["type"] = []interface{}{p.Type, "null"}
	} else {
		s["type"] = p.Type
	}
	if p.Description != "" {
		s["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		enum := make([]interface{}, len(p.Enum))
		for i, v := range p.Enum {
			enum[i] = v
		}
		s["enum"] = enum
	}
	if p.Default != nil {
		s["default"] = p.Default
	}
	if p.Items != "" {
		s["items"] = map[string]interface{}{"type": p.Items}
	}
	return s
}

func schemaProperties(schema map[string]interface{}) map[string]interface{} {
	props, _ := schema["properties"].(map[string]interface{})
	return props
}

func schemaRequired(schema map[string]interface{}) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []interface{}:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// schemaDefaults collects the declared default of every property.
func schemaDefaults(schema map[string]interface{}) map[string]interface{} {
	defaults := map[string]interface{}{}
	for name, raw := range schemaProperties(schema) {
		prop, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if d, ok := prop["default"]; ok {
			defaults[name] = d
		}
	}
	return defaults
}
