// Command gitlab-mcp exposes GitLab merge request and issue workflows as MCP
// tools backed by the companion scripts in scripts/gitlab.
package main

import (
	"github.com/developer-mesh/review-mcp/internal/cli"
	"github.com/developer-mesh/review-mcp/internal/config"
	"github.com/developer-mesh/review-mcp/internal/gitlab"
	"github.com/developer-mesh/review-mcp/internal/tools"
)

var version = "1.0.0"

func main() {
	cli.Execute(cli.Backend{
		Name:  gitlab.ServerName,
		Short: "MCP server for GitLab merge requests and issues",
		Tools: func(*config.Config) []tools.Tool { return gitlab.Tools() },
	}, version)
}
