// Package executor runs the companion scripts behind each tool as
// sandboxed subprocesses.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/developer-mesh/review-mcp/internal/observability"
)

// Mode selects how a script is launched.
type Mode string

const (
	// ModeArgv passes arguments as a vector, no shell involved.
	ModeArgv Mode = "argv"
	// ModeShell renders a quoted command line and runs it with /bin/sh -c.
	ModeShell Mode = "shell"
)

const (
	// DefaultMaxOutputBytes is the stdout ceiling (10 MiB).
	DefaultMaxOutputBytes = 10 * 1024 * 1024
	// DefaultTimeout applies when neither the invocation nor the config sets one.
	DefaultTimeout = 2 * time.Minute

	maxStderrBytes = 64 * 1024
	waitDelay      = 2 * time.Second
)

// DefaultInterpreters are the interpreters companion scripts may use.
var DefaultInterpreters = []string{"bash", "python3"}

var errOutputLimit = errors.New("output limit exceeded")

// Invocation is one script run derived from a tool call.
type Invocation struct {
	Interpreter string
	Script      string // relative to the scripts directory
	Args        []string
	Stdin       []byte
	Env         map[string]string
	Timeout     time.Duration // zero uses the executor default
	WorkDir     string        // empty inherits the process working directory
}

// Result contains the output from a script run
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Config holds executor settings.
type Config struct {
	ScriptsDir          string
	Timeout             time.Duration
	MaxOutputBytes      int
	Mode                Mode
	Env                 map[string]string // layered over the inherited environment
	AllowedInterpreters []string
}

// CommandExecutor runs allow-listed interpreters against scripts under a
// single directory.
type CommandExecutor struct {
	logger         observability.Logger
	scriptsDir     string
	timeout        time.Duration
	maxOutputBytes int
	mode           Mode
	env            map[string]string
	allowed        map[string]bool
}

// NewCommandExecutor creates a new script executor
func NewCommandExecutor(cfg Config, logger observability.Logger) *CommandExecutor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeArgv
	}
	if len(cfg.AllowedInterpreters) == 0 {
		cfg.AllowedInterpreters = DefaultInterpreters
	}

	allowed := make(map[string]bool, len(cfg.AllowedInterpreters))
	for _, name := range cfg.AllowedInterpreters {
		allowed[name] = true
	}

	scriptsDir := cfg.ScriptsDir
	if abs, err := filepath.Abs(scriptsDir); err == nil {
		scriptsDir = abs
	}

	e := &CommandExecutor{
		logger:         logger,
		scriptsDir:     scriptsDir,
		timeout:        cfg.Timeout,
		maxOutputBytes: cfg.MaxOutputBytes,
		mode:           cfg.Mode,
		env:            cfg.Env,
		allowed:        allowed,
	}

	logger.Info("CommandExecutor initialized", map[string]interface{}{
		"platform":         runtime.GOOS,
		"scripts_dir":      scriptsDir,
		"timeout":          cfg.Timeout.String(),
		"max_output_bytes": cfg.MaxOutputBytes,
		"mode":             string(cfg.Mode),
		"interpreters":     cfg.AllowedInterpreters,
	})

	return e
}

// ScriptsDir returns the absolute scripts directory.
func (e *CommandExecutor) ScriptsDir() string {
	return e.scriptsDir
}

// Execute runs the invocation and waits for it to finish. A non-nil error is
// always a *ScriptError; the Result is returned alongside it whenever the
// process was started.
func (e *CommandExecutor) Execute(ctx context.Context, inv Invocation) (*Result, error) {
	startTime := time.Now()

	// STEP 1: Validate interpreter is allowed
	if !e.allowed[inv.Interpreter] {
		e.logger.Warn("Interpreter not allowed", map[string]interface{}{
			"interpreter": inv.Interpreter,
			"script":      inv.Script,
		})
		return nil, &ScriptError{
			Script: inv.Script,
			Kind:   KindSpawn,
			Err:    fmt.Errorf("interpreter not allowed: %s", inv.Interpreter),
		}
	}

	// STEP 2: Resolve the script inside the scripts directory
	scriptPath, err := e.resolveScript(inv.Script)
	if err != nil {
		e.logger.Warn("Script path rejected", map[string]interface{}{
			"script": inv.Script,
			"error":  err.Error(),
		})
		return nil, &ScriptError{Script: inv.Script, Kind: KindSpawn, Err: err}
	}

	// STEP 3: Create timeout context (MANDATORY)
	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()
	runCtx, cancelRun := context.WithCancelCause(timeoutCtx)
	defer cancelRun(nil)

	// STEP 4: Create command with context
	var cmd *exec.Cmd
	if e.mode == ModeShell {
		cmd = exec.CommandContext(runCtx, "/bin/sh", "-c", CommandLine(inv.Interpreter, scriptPath, inv.Args))
	} else {
		cmd = exec.CommandContext(runCtx, inv.Interpreter, append([]string{scriptPath}, inv.Args...)...)
	}

	// STEP 5: Set platform-specific attributes (process group kill on cancel)
	setPlatformAttrs(cmd)
	cmd.WaitDelay = waitDelay

	// STEP 6: Working directory, environment and stdin
	if inv.WorkDir != "" {
		cmd.Dir = inv.WorkDir
	}
	cmd.Env = mergeEnv(os.Environ(), e.env, inv.Env)
	if inv.Stdin != nil {
		cmd.Stdin = bytes.NewReader(inv.Stdin)
	}

	// STEP 7: Capture output with ceilings
	stdout := newCappedBuffer(e.maxOutputBytes, func() { cancelRun(errOutputLimit) })
	stderr := newCappedBuffer(maxStderrBytes, nil)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// STEP 8: Execute
	runErr := cmd.Run()
	duration := time.Since(startTime)

	// The script exited but a child it left running still held stdout or
	// stderr open. Judge the run by the script's own exit status.
	heldPipes := errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil
	if heldPipes {
		if cmd.ProcessState.Success() {
			runErr = nil
		} else {
			runErr = &exec.ExitError{ProcessState: cmd.ProcessState}
		}
	}

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.stderrText(),
		ExitCode: getExitCode(runErr),
		Duration: duration,
	}

	scriptErr := e.classify(ctx, timeoutCtx, inv.Script, timeout, runErr, stdout.exceeded, result)

	// STEP 9: Log execution; argument values are never logged
	fields := map[string]interface{}{
		"interpreter": inv.Interpreter,
		"script":      inv.Script,
		"arg_count":   len(inv.Args),
		"stdin_bytes": len(inv.Stdin),
		"mode":        string(e.mode),
		"duration":    duration.String(),
		"exit_code":   result.ExitCode,
		"success":     scriptErr == nil,
	}
	if heldPipes {
		fields["held_pipes"] = true
	}
	if scriptErr != nil {
		fields["error_kind"] = string(scriptErr.Kind)
		e.logger.Warn("Script failed", fields)
		if scriptErr.Kind == KindSpawn {
			return nil, scriptErr
		}
		return result, scriptErr
	}
	e.logger.Debug("Script executed", fields)

	return result, nil
}

func (e *CommandExecutor) classify(parent, timeoutCtx context.Context, script string, timeout time.Duration, runErr error, overflow bool, result *Result) *ScriptError {
	switch {
	case overflow:
		return &ScriptError{Script: script, Kind: KindOutputLimit, Limit: e.maxOutputBytes, ExitCode: result.ExitCode, Err: errOutputLimit}
	case runErr == nil:
		return nil
	case errors.Is(parent.Err(), context.Canceled):
		return &ScriptError{Script: script, Kind: KindCancelled, ExitCode: result.ExitCode, Err: parent.Err()}
	case errors.Is(timeoutCtx.Err(), context.DeadlineExceeded):
		return &ScriptError{Script: script, Kind: KindTimeout, Timeout: timeout, ExitCode: result.ExitCode, Stderr: result.Stderr, Err: context.DeadlineExceeded}
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return &ScriptError{Script: script, Kind: KindExit, ExitCode: result.ExitCode, Stderr: result.Stderr, Err: runErr}
	}
	return &ScriptError{Script: script, Kind: KindSpawn, ExitCode: result.ExitCode, Err: runErr}
}

// resolveScript joins name onto the scripts directory and rejects anything
// that lands outside of it.
func (e *CommandExecutor) resolveScript(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty script name")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("script path must be relative: %s", name)
	}

	path := filepath.Join(e.scriptsDir, name)
	rel, err := filepath.Rel(e.scriptsDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("script path escapes scripts directory: %s", name)
	}
	return path, nil
}

// mergeEnv layers overrides onto base; later maps win.
func mergeEnv(base []string, overrides ...map[string]string) []string {
	env := make(map[string]string, len(base))
	order := make([]string, 0, len(base))
	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, seen := env[key]; !seen {
			order = append(order, key)
		}
		env[key] = value
	}

	var extra []string
	for _, m := range overrides {
		for key, value := range m {
			if _, seen := env[key]; !seen {
				extra = append(extra, key)
			}
			env[key] = value
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, key+"="+env[key])
	}
	return out
}

// getExitCode extracts the exit code from a Run error
func getExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	// Default to -1 when the process never reported a status
	return -1
}
