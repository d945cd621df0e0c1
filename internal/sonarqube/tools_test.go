package sonarqube

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/developer-mesh/review-mcp/internal/observability"
	"github.com/developer-mesh/review-mcp/internal/tools"
)

type captureRunner struct {
	calls []executor.Invocation
}

func (c *captureRunner) Execute(ctx context.Context, inv executor.Invocation) (*executor.Result, error) {
	c.calls = append(c.calls, inv)
	return &executor.Result{Stdout: "ok"}, nil
}

func newDispatcher(t *testing.T, runner tools.Runner) *tools.Dispatcher {
	t.Helper()
	reg, err := tools.NewRegistry(Tools(Options{AnalysisTimeout: 15 * time.Minute})...)
	require.NoError(t, err)
	return tools.NewDispatcher(reg, runner, observability.NewNoopLogger())
}

func call(t *testing.T, name string, args map[string]interface{}) executor.Invocation {
	t.Helper()
	runner := &captureRunner{}
	res := newDispatcher(t, runner).Call(context.Background(), name, args)
	require.False(t, res.IsError, res.Text)
	require.Len(t, runner.calls, 1)
	return runner.calls[0]
}

func TestCatalog(t *testing.T) {
	reg, err := tools.NewRegistry(Tools(Options{})...)
	require.NoError(t, err)

	var names []string
	for _, def := range reg.List() {
		names = append(names, def.Name)
		assert.Equal(t, "object", def.InputSchema["type"], def.Name)
		assert.Contains(t, def.InputSchema, "properties", def.Name)
	}

	assert.Equal(t, []string{
		"sonar_fetch_issues",
		"sonar_run_analysis",
		"sonar_quality_gate",
		"sonar_metrics",
		"sonar_hotspots",
		"sonar_rule_details",
		"sonar_format_issues",
	}, names)
}

func TestFlagArguments(t *testing.T) {
	tests := []struct {
		name       string
		tool       string
		args       map[string]interface{}
		wantScript string
		wantArgs   []string
	}{
		{"fetch defaults", "sonar_fetch_issues", nil, "fetch-issues.sh", []string{"--severity", "HIGH,MEDIUM"}},
		{"fetch all flags", "sonar_fetch_issues", map[string]interface{}{"severity": "BLOCKER", "newCode": true, "file": "src/a.kt"}, "fetch-issues.sh", []string{"--severity", "BLOCKER", "--new-code", "--file", "src/a.kt"}},
		{"quality gate branch", "sonar_quality_gate", map[string]interface{}{"branch": "feature/x"}, "quality-gate.sh", []string{"--branch", "feature/x"}},
		{"metrics", "sonar_metrics", map[string]interface{}{"metrics": "coverage,bugs", "branch": "main"}, "metrics.sh", []string{"--metrics", "coverage,bugs", "--branch", "main"}},
		{"hotspots defaults", "sonar_hotspots", nil, "hotspots.sh", []string{"--status", "TO_REVIEW"}},
		{"hotspots reviewed", "sonar_hotspots", map[string]interface{}{"status": "REVIEWED", "file": "a.py"}, "hotspots.sh", []string{"--status", "REVIEWED", "--file", "a.py"}},
		{"rule with quote", "sonar_rule_details", map[string]interface{}{"rule": `java:S2140" ; echo pwned`}, "rule-details.sh", []string{"--rule", `java:S2140" ; echo pwned`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := call(t, tt.tool, tt.args)
			assert.Equal(t, "bash", inv.Interpreter)
			assert.Equal(t, tt.wantScript, inv.Script)
			assert.Equal(t, tt.wantArgs, inv.Args)
		})
	}
}

func TestEmptyOptionalFlagsAreOmitted(t *testing.T) {
	inv := call(t, "sonar_quality_gate", map[string]interface{}{"branch": ""})
	assert.Empty(t, inv.Args)

	inv = call(t, "sonar_metrics", nil)
	assert.Empty(t, inv.Args)
}

func TestRunAnalysis(t *testing.T) {
	inv := call(t, "sonar_run_analysis", nil)

	assert.Equal(t, "run-analysis.sh", inv.Script)
	assert.Empty(t, inv.Args)
	assert.Equal(t, 15*time.Minute, inv.Timeout)
	assert.Empty(t, inv.WorkDir, "runs in the process working directory")
}

func TestFormatIssues(t *testing.T) {
	inv := call(t, "sonar_format_issues", map[string]interface{}{"json": `{"issues":[]}`})

	assert.Equal(t, "python3", inv.Interpreter)
	assert.Equal(t, "format-issues.py", inv.Script)
	assert.Empty(t, inv.Args)
	assert.Equal(t, []byte(`{"issues":[]}`), inv.Stdin)
	assert.Empty(t, inv.Env)

	inv = call(t, "sonar_format_issues", map[string]interface{}{"json": "{}", "severity": "HIGH", "newCode": true})
	assert.Equal(t, map[string]string{"SONAR_SEVERITY": "HIGH", "SONAR_NEW_CODE": "true"}, inv.Env)
}

func TestRequiredArguments(t *testing.T) {
	for _, tool := range []string{"sonar_rule_details", "sonar_format_issues"} {
		t.Run(tool, func(t *testing.T) {
			runner := &captureRunner{}
			res := newDispatcher(t, runner).Call(context.Background(), tool, map[string]interface{}{})
			assert.True(t, res.IsError)
			assert.Contains(t, res.Text, "is required")
			assert.Empty(t, runner.calls)
		})
	}
}

func TestFormatIssues_EndToEnd(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}

	dir := t.TempDir()
	script := "import json, os, sys\n" +
		"data = json.load(sys.stdin)\n" +
		"print('%d issues (%s)' % (len(data['issues']), os.environ.get('SONAR_SEVERITY', 'HIGH,MEDIUM')))\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "format-issues.py"), []byte(script), 0o644))

	runner := executor.NewCommandExecutor(executor.Config{ScriptsDir: dir}, observability.NewNoopLogger())
	d := newDispatcher(t, runner)

	res := d.Call(context.Background(), "sonar_format_issues", map[string]interface{}{
		"json":     `{"issues":[{"key":"a"},{"key":"b"}]}`,
		"severity": "BLOCKER",
	})
	assert.False(t, res.IsError, res.Text)
	assert.Equal(t, "2 issues (BLOCKER)\n", res.Text)

	res = d.Call(context.Background(), "sonar_format_issues", map[string]interface{}{"json": "not json"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "JSONDecodeError")
}
