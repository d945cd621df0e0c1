// Command sonarqube-mcp exposes SonarQube analysis results as MCP tools backed
// by the companion scripts in scripts/sonarqube.
package main

import (
	"github.com/developer-mesh/review-mcp/internal/cli"
	"github.com/developer-mesh/review-mcp/internal/config"
	"github.com/developer-mesh/review-mcp/internal/sonarqube"
	"github.com/developer-mesh/review-mcp/internal/tools"
)

var version = "1.0.0"

func main() {
	cli.Execute(cli.Backend{
		Name:  sonarqube.ServerName,
		Short: "MCP server for SonarQube issues, metrics and quality gates",
		Tools: func(cfg *config.Config) []tools.Tool {
			return sonarqube.Tools(sonarqube.Options{AnalysisTimeout: cfg.Scripts.AnalysisTimeout})
		},
	}, version)
}
