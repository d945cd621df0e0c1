package gitlab

import (
	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/developer-mesh/review-mcp/internal/tools"
)

func projectTools() []tools.Tool {
	return []tools.Tool{
		define("gitlab_list_milestones",
			"List project milestones. Use this to find milestone IDs for filtering issues or assigning to issues.",
			tools.ObjectSchema(tools.Properties{
				"state": {
					Type:        "string",
					Description: "Filter by milestone state: active, closed, or all",
					Enum:        []string{"active", "closed", "all"},
					Default:     "active",
				},
			}),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("list-milestones.sh", a.String("state"))
				return inv, a.Err()
			},
		),

		define("gitlab_list_project_members",
			"List project members. Use this to find user IDs for assigning issues.",
			tools.ObjectSchema(tools.Properties{
				"per_page": {
					Type:        "number",
					Description: "Number of members to return (default: 100)",
					Default:     100,
				},
			}),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("list-project-members.sh", a.IntString("per_page"))
				return inv, a.Err()
			},
		),

		define("gitlab_create_mr_from_issue",
			"Create a merge request linked to an issue. The MR title will reference the issue and closing it will close the issue.",
			tools.ObjectSchema(tools.Properties{
				"issue_iid":     issueIIDProp,
				"source_branch": {Type: "string", Description: "The source branch containing the changes"},
				"target_branch": {
					Type:        "string",
					Description: "The target branch to merge into (defaults to project default branch)",
				},
			}, "issue_iid", "source_branch"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("create-mr-from-issue.sh", a.IntString("issue_iid"), a.String("source_branch"), a.OptionalString("target_branch"))
				return inv, a.Err()
			},
		),
	}
}
