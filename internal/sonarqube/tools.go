// Package sonarqube declares the SonarQube tool catalog. Tools run bash
// scripts with --flag value arguments, except sonar_format_issues which pipes
// raw JSON into a Python formatter.
package sonarqube

import (
	"strconv"
	"time"

	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/developer-mesh/review-mcp/internal/tools"
)

// ServerName is the MCP server name announced to hosts.
const ServerName = "sonarqube"

// Options tunes the catalog.
type Options struct {
	// AnalysisTimeout bounds sonar_run_analysis, which builds the project.
	AnalysisTimeout time.Duration
}

var branchProp = tools.Property{Type: "string", Description: "Branch name (optional)"}

// flags collects --name value pairs, skipping empty values.
type flags []string

func (f flags) add(name, value string) flags {
	if value == "" {
		return f
	}
	return append(f, name, value)
}

func (f flags) set(name string, on bool) flags {
	if !on {
		return f
	}
	return append(f, name)
}

func bash(script string, args []string) executor.Invocation {
	return executor.Invocation{Interpreter: "bash", Script: script, Args: args}
}

func define(name, description string, schema map[string]interface{}, build tools.Recipe) tools.Tool {
	return tools.Tool{
		Definition: tools.ToolDefinition{Name: name, Description: description, InputSchema: schema},
		Build:      build,
	}
}

// Tools returns the SonarQube catalog in declaration order.
func Tools(opts Options) []tools.Tool {
	return []tools.Tool{
		define("sonar_fetch_issues",
			"Fetch open issues from SonarQube for the current project",
			tools.ObjectSchema(tools.Properties{
				"severity": {
					Type:        "string",
					Description: "Filter by impact severity (BLOCKER, HIGH, MEDIUM, LOW, INFO). Comma-separated for multiple.",
					Default:     "HIGH,MEDIUM",
				},
				"newCode": {
					Type:        "boolean",
					Description: "Only fetch issues in the new code period",
					Default:     false,
				},
				"file": {Type: "string", Description: "Filter to a specific file path (relative to project root)"},
			}),
			func(a *tools.Args) (executor.Invocation, error) {
				args := flags{}.
					add("--severity", a.OptionalString("severity")).
					set("--new-code", a.Bool("newCode")).
					add("--file", a.OptionalString("file"))
				return bash("fetch-issues.sh", args), a.Err()
			},
		),

		define("sonar_run_analysis",
			"Run SonarQube analysis on the current project (requires Gradle)",
			tools.ObjectSchema(tools.Properties{}),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("run-analysis.sh", nil)
				inv.Timeout = opts.AnalysisTimeout
				return inv, a.Err()
			},
		),

		define("sonar_quality_gate",
			"Check quality gate status - returns PASSED, FAILED, or ERROR",
			tools.ObjectSchema(tools.Properties{
				"branch": {Type: "string", Description: "Branch name to check (optional, defaults to main branch)"},
			}),
			func(a *tools.Args) (executor.Invocation, error) {
				args := flags{}.add("--branch", a.OptionalString("branch"))
				return bash("quality-gate.sh", args), a.Err()
			},
		),

		define("sonar_metrics",
			"Fetch project metrics like coverage, duplications, complexity, bugs count",
			tools.ObjectSchema(tools.Properties{
				"metrics": {
					Type:        "string",
					Description: "Comma-separated metric keys (e.g., coverage,bugs,code_smells). Defaults to common metrics.",
				},
				"branch": branchProp,
			}),
			func(a *tools.Args) (executor.Invocation, error) {
				args := flags{}.
					add("--metrics", a.OptionalString("metrics")).
					add("--branch", a.OptionalString("branch"))
				return bash("metrics.sh", args), a.Err()
			},
		),

		define("sonar_hotspots",
			"Fetch security hotspots that need review",
			tools.ObjectSchema(tools.Properties{
				"status": {
					Type:        "string",
					Enum:        []string{"TO_REVIEW", "REVIEWED"},
					Description: "Filter by review status",
					Default:     "TO_REVIEW",
				},
				"file":   {Type: "string", Description: "Filter to a specific file"},
				"branch": branchProp,
			}),
			func(a *tools.Args) (executor.Invocation, error) {
				args := flags{}.
					add("--status", a.OptionalString("status")).
					add("--file", a.OptionalString("file")).
					add("--branch", a.OptionalString("branch"))
				return bash("hotspots.sh", args), a.Err()
			},
		),

		define("sonar_rule_details",
			"Get detailed explanation of a SonarQube rule including description and fix examples",
			tools.ObjectSchema(tools.Properties{
				"rule": {Type: "string", Description: "Rule key (e.g., java:S2140, python:S1234)"},
			}, "rule"),
			func(a *tools.Args) (executor.Invocation, error) {
				return bash("rule-details.sh", []string{"--rule", a.String("rule")}), a.Err()
			},
		),

		define("sonar_format_issues",
			"Format SonarQube JSON response as a readable markdown table",
			tools.ObjectSchema(tools.Properties{
				"json": {Type: "string", Description: "Raw JSON response from SonarQube API"},
				"severity": {
					Type:        "string",
					Description: "Severity filter that produced the JSON (shown in the report header)",
				},
				"newCode": {
					Type:        "boolean",
					Description: "Whether the JSON was limited to the new code period (shown in the report header)",
				},
			}, "json"),
			buildFormatIssues,
		),
	}
}

func buildFormatIssues(a *tools.Args) (executor.Invocation, error) {
	env := map[string]string{}
	if severity := a.OptionalString("severity"); severity != "" {
		env["SONAR_SEVERITY"] = severity
	}
	if a.Has("newCode") {
		env["SONAR_NEW_CODE"] = strconv.FormatBool(a.Bool("newCode"))
	}

	inv := executor.Invocation{
		Interpreter: "python3",
		Script:      "format-issues.py",
		Stdin:       []byte(a.String("json")),
		Env:         env,
	}
	return inv, a.Err()
}
