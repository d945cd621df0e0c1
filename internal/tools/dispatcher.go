package tools

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/developer-mesh/review-mcp/internal/metrics"
	"github.com/developer-mesh/review-mcp/internal/observability"
	"github.com/developer-mesh/review-mcp/internal/tracing"
)

// Runner executes a script invocation.
type Runner interface {
	Execute(ctx context.Context, inv executor.Invocation) (*executor.Result, error)
}

// Result is the uniform envelope returned for every call.
type Result struct {
	Text    string
	IsError bool
}

// Dispatcher resolves tool calls against a registry and runs them.
type Dispatcher struct {
	registry *Registry
	runner   Runner
	logger   observability.Logger
	metrics  *metrics.Metrics
	spans    *tracing.SpanHelper
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics records per-call Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithSpanHelper opens a span per call.
func WithSpanHelper(sh *tracing.SpanHelper) Option {
	return func(d *Dispatcher) { d.spans = sh }
}

// NewDispatcher creates a dispatcher over registry and runner.
func NewDispatcher(registry *Registry, runner Runner, logger observability.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		runner:   runner,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call runs the named tool. It never panics and never returns a Go error:
// every failure becomes an IsError result whose text starts with "Error: ".
func (d *Dispatcher) Call(ctx context.Context, name string, arguments map[string]interface{}) (result Result) {
	callID := uuid.NewString()
	start := time.Now()

	if d.metrics != nil {
		d.metrics.RecordRequestStart()
		defer d.metrics.RecordRequestEnd()
	}

	ctx, span := d.spans.StartToolExecutionSpan(ctx, name, callID)
	defer span.End()

	var (
		out *executor.Result
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &InternalError{Tool: name, Value: r}
		}

		switch {
		case err != nil:
			result = Result{Text: "Error: " + err.Error(), IsError: true}
		case out == nil:
			err = &InternalError{Tool: name, Value: "no result"}
			result = Result{Text: "Error: " + err.Error(), IsError: true}
		default:
			result = Result{Text: out.Stdout}
		}

		d.observe(ctx, callID, name, arguments, time.Since(start), out, err)
	}()

	out, err = d.call(ctx, name, arguments)
	return result
}

func (d *Dispatcher) call(ctx context.Context, name string, arguments map[string]interface{}) (*executor.Result, error) {
	tool, ok := d.registry.Lookup(name)
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	if err := d.registry.Validate(name, arguments); err != nil {
		return nil, err
	}

	inv, err := tool.Build(NewArgs(tool.Definition, arguments))
	if err != nil {
		var invalid *InvalidArgumentsError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, &InvalidArgumentsError{Tool: name, Problems: []string{err.Error()}}
	}

	return d.runner.Execute(ctx, inv)
}

func (d *Dispatcher) observe(ctx context.Context, callID, name string, arguments map[string]interface{}, duration time.Duration, out *executor.Result, err error) {
	fields := map[string]interface{}{
		"call_id":     callID,
		"tool":        name,
		"arg_keys":    NewArgs(ToolDefinition{}, arguments).Keys(),
		"duration_ms": duration.Milliseconds(),
		"success":     err == nil,
	}

	exitCode := 0
	if out != nil {
		exitCode = out.ExitCode
		fields["exit_code"] = exitCode
		fields["stdout_bytes"] = len(out.Stdout)
	}

	errType := ""
	if err != nil {
		errType = string(Classify(err))
		fields["error_type"] = errType
	}

	d.spans.RecordToolResult(ctx, exitCode, errType, err)

	if d.metrics != nil {
		label := name
		if errType == string(ErrorTypeUnknownTool) {
			label = metrics.UnknownToolLabel
		}
		d.metrics.RecordToolExecution(label, duration, err)
		if err != nil {
			d.metrics.RecordToolExecutionError(label, errType)
		}
		if out != nil {
			d.metrics.RecordScriptOutput(label, len(out.Stdout))
		}
	}

	if err != nil {
		d.logger.Warn("Tool call failed", fields)
		return
	}
	d.logger.Info("Tool call completed", fields)
}
