package executor

import (
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies why a script invocation failed.
type ErrorKind string

const (
	// KindExit means the script ran and exited with a non-zero status.
	KindExit ErrorKind = "exit"
	// KindSpawn means the script could not be started at all.
	KindSpawn ErrorKind = "spawn"
	// KindTimeout means the per-call deadline expired.
	KindTimeout ErrorKind = "timeout"
	// KindOutputLimit means stdout grew past the configured ceiling.
	KindOutputLimit ErrorKind = "output_limit"
	// KindCancelled means the caller cancelled the request.
	KindCancelled ErrorKind = "cancelled"
)

// ScriptError describes a failed script invocation.
type ScriptError struct {
	Script   string
	Kind     ErrorKind
	ExitCode int
	Stderr   string
	Timeout  time.Duration
	Limit    int
	Err      error
}

func (e *ScriptError) Error() string {
	var msg string
	switch e.Kind {
	case KindExit:
		msg = fmt.Sprintf("Command failed: %s exited with status %d", e.Script, e.ExitCode)
	case KindSpawn:
		msg = fmt.Sprintf("Command failed: could not start %s", e.Script)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
	case KindTimeout:
		msg = fmt.Sprintf("Command timed out: %s did not finish within %s", e.Script, e.Timeout)
	case KindOutputLimit:
		msg = fmt.Sprintf("Command output too large: %s wrote more than %d bytes", e.Script, e.Limit)
	case KindCancelled:
		msg = fmt.Sprintf("Command cancelled: %s", e.Script)
	default:
		msg = fmt.Sprintf("Command failed: %s", e.Script)
	}

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
