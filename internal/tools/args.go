package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Args gives typed access to a call's arguments. Omitted fields fall back to
// the schema's declared default. Accessors record problems instead of
// returning them; Err reports all of them at once.
type Args struct {
	tool     string
	values   map[string]interface{}
	defaults map[string]interface{}
	problems []string
}

// NewArgs wraps the raw arguments of a call to def.
func NewArgs(def ToolDefinition, values map[string]interface{}) *Args {
	if values == nil {
		values = map[string]interface{}{}
	}
	return &Args{
		tool:     def.Name,
		values:   values,
		defaults: schemaDefaults(def.InputSchema),
	}
}

// Has reports whether the caller supplied name, even as null.
func (a *Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Keys returns the supplied argument names, sorted.
func (a *Args) Keys() []string {
	keys := make([]string, 0, len(a.values))
	for k := range a.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lookup returns the supplied value, or the declared default when the value
// is absent, null, or an empty string or zero number.
func (a *Args) lookup(name string) (interface{}, bool) {
	v, ok := a.values[name]
	if ok && v != nil && !isBlank(v) {
		return v, true
	}
	if d, hasDefault := a.defaults[name]; hasDefault {
		return d, true
	}
	if ok && v != nil {
		return v, true
	}
	return nil, false
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	}
	return false
}

func (a *Args) problem(format string, args ...interface{}) {
	a.problems = append(a.problems, fmt.Sprintf(format, args...))
}

// String returns a required string argument.
func (a *Args) String(name string) string {
	v, ok := a.lookup(name)
	if !ok {
		a.problem("%s is required", name)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		a.problem("%s must be a string", name)
		return ""
	}
	return s
}

// OptionalString returns a string argument, its default, or "".
func (a *Args) OptionalString(name string) string {
	if _, ok := a.lookup(name); !ok {
		return ""
	}
	return a.String(name)
}

// Int returns a required integral argument.
func (a *Args) Int(name string) int64 {
	v, ok := a.lookup(name)
	if !ok {
		a.problem("%s is required", name)
		return 0
	}
	n, ok := toInt(v)
	if !ok {
		a.problem("%s must be an integer", name)
		return 0
	}
	return n
}

// IntString returns a required integral argument formatted for a command line.
func (a *Args) IntString(name string) string {
	return strconv.FormatInt(a.Int(name), 10)
}

// Bool returns a boolean argument, its default, or false.
func (a *Args) Bool(name string) bool {
	v, ok := a.values[name]
	if !ok || v == nil {
		if d, hasDefault := a.defaults[name]; hasDefault {
			v = d
		} else {
			return false
		}
	}
	b, ok := v.(bool)
	if !ok {
		a.problem("%s must be a boolean", name)
		return false
	}
	return b
}

// Pick returns the supplied subset of names, values untouched. Null values
// are kept so they reach the script as JSON null.
func (a *Args) Pick(names ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(names))
	for _, name := range names {
		if v, ok := a.values[name]; ok {
			out[name] = v
		}
	}
	return out
}

// JSON encodes v as a single command-line argument.
func (a *Args) JSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		a.problem("payload could not be encoded: %v", err)
		return ""
	}
	return string(data)
}

// Err returns an *InvalidArgumentsError when any accessor failed.
func (a *Args) Err() error {
	if len(a.problems) == 0 {
		return nil
	}
	return &InvalidArgumentsError{Tool: a.tool, Problems: append([]string(nil), a.problems...)}
}

func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if math.IsInf(n, 0) || math.IsNaN(n) || n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
