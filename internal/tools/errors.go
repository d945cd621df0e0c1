package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/developer-mesh/review-mcp/internal/executor"
)

// ErrorType labels failures in logs, metrics and traces.
type ErrorType string

const (
	ErrorTypeUnknownTool      ErrorType = "UNKNOWN_TOOL"
	ErrorTypeInvalidArguments ErrorType = "INVALID_ARGUMENTS"
	ErrorTypeScriptExit       ErrorType = "SCRIPT_EXIT"
	ErrorTypeSpawnFailed      ErrorType = "SPAWN_FAILED"
	ErrorTypeTimeout          ErrorType = "TIMEOUT"
	ErrorTypeOutputLimit      ErrorType = "OUTPUT_LIMIT"
	ErrorTypeCancelled        ErrorType = "CANCELLED"
	ErrorTypeInternal         ErrorType = "INTERNAL"
)

// UnknownToolError is returned for a name that is not in the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "Unknown tool: " + e.Name
}

// InvalidArgumentsError lists every problem found in a call's arguments.
type InvalidArgumentsError struct {
	Tool     string
	Problems []string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("Invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// InternalError wraps a panic recovered while handling a call.
type InternalError struct {
	Tool  string
	Value interface{}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("Internal error in %s: %v", e.Tool, e.Value)
}

// Classify maps an error to its ErrorType.
func Classify(err error) ErrorType {
	var (
		unknown  *UnknownToolError
		invalid  *InvalidArgumentsError
		script   *executor.ScriptError
		internal *InternalError
	)

	switch {
	case errors.As(err, &unknown):
		return ErrorTypeUnknownTool
	case errors.As(err, &invalid):
		return ErrorTypeInvalidArguments
	case errors.As(err, &internal):
		return ErrorTypeInternal
	case errors.As(err, &script):
		switch script.Kind {
		case executor.KindExit:
			return ErrorTypeScriptExit
		case executor.KindSpawn:
			return ErrorTypeSpawnFailed
		case executor.KindTimeout:
			return ErrorTypeTimeout
		case executor.KindOutputLimit:
			return ErrorTypeOutputLimit
		case executor.KindCancelled:
			return ErrorTypeCancelled
		}
	}
	return ErrorTypeInternal
}
