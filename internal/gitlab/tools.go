// Package gitlab declares the GitLab tool catalog. Every tool runs one of the
// companion bash scripts with positional arguments; the scripts talk to the
// GitLab REST API using GITLAB_HOST_URL, GITLAB_TOKEN and GITLAB_PROJECT_ID.
package gitlab

import (
	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/developer-mesh/review-mcp/internal/tools"
)

// ServerName is the MCP server name announced to hosts.
const ServerName = "gitlab"

const markdownBody = "Supports GitLab-flavored Markdown."

var (
	mrIIDProp = tools.Property{
		Type:        "number",
		Description: "The internal ID (IID) of the merge request",
	}
	issueIIDProp = tools.Property{
		Type:        "number",
		Description: "The internal ID (IID) of the issue",
	}
	labelsProp = tools.Property{
		Type:        "string",
		Description: "Comma-separated list of labels",
	}
)

// Tools returns the GitLab catalog in declaration order.
func Tools() []tools.Tool {
	catalog := mergeRequestTools()
	catalog = append(catalog, issueTools()...)
	catalog = append(catalog, projectTools()...)
	catalog = append(catalog, createTools()...)
	return catalog
}

func bash(script string, args ...string) executor.Invocation {
	return executor.Invocation{
		Interpreter: "bash",
		Script:      script,
		Args:        args,
	}
}

func define(name, description string, schema map[string]interface{}, build tools.Recipe) tools.Tool {
	return tools.Tool{
		Definition: tools.ToolDefinition{
			Name:        name,
			Description: description,
			InputSchema: schema,
		},
		Build: build,
	}
}
