package gitlab

import (
	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/developer-mesh/review-mcp/internal/tools"
)

// updateFields are forwarded to update-issue.sh only when supplied.
var updateFields = []string{"description", "milestone_id", "assignee_ids", "labels", "title", "state_event"}

// createFields are forwarded to create-sub-issue.sh only when supplied;
// create-issue.sh additionally accepts issue_type.
var createFields = []string{"description", "labels", "assignee_ids", "milestone_id", "due_date", "weight", "confidential"}

func issueTools() []tools.Tool {
	return []tools.Tool{
		define("gitlab_list_issues",
			"List issues in the GitLab project. Can filter by state and milestone.",
			tools.ObjectSchema(tools.Properties{
				"state": {
					Type:        "string",
					Description: "Filter by issue state: opened, closed, or all",
					Enum:        []string{"opened", "closed", "all"},
					Default:     "opened",
				},
				"milestone": {
					Type:        "string",
					Description: "Filter by milestone title. Use 'none' for no milestone, 'any' for any milestone.",
				},
				"per_page": {
					Type:        "number",
					Description: "Number of issues to return (default: 20, max: 100)",
					Default:     20,
				},
			}),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("list-issues.sh", a.String("state"), a.OptionalString("milestone"), a.IntString("per_page"))
				return inv, a.Err()
			},
		),

		define("gitlab_get_issue_details",
			"Get detailed information about a specific issue including description, assignees, milestone, and labels.",
			tools.ObjectSchema(tools.Properties{"issue_iid": issueIIDProp}, "issue_iid"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("get-issue-details.sh", a.IntString("issue_iid"))
				return inv, a.Err()
			},
		),

		define("gitlab_get_issue_comments",
			"Get all comments/notes on an issue. Returns comment body, author, and timestamps.",
			tools.ObjectSchema(tools.Properties{
				"issue_iid": issueIIDProp,
				"per_page": {
					Type:        "number",
					Description: "Number of comments to return (default: 50)",
					Default:     50,
				},
			}, "issue_iid"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("get-issue-comments.sh", a.IntString("issue_iid"), a.IntString("per_page"))
				return inv, a.Err()
			},
		),

		define("gitlab_post_issue_comment",
			"Post a new comment on an issue. Use this to provide updates, ask questions, or document progress.",
			tools.ObjectSchema(tools.Properties{
				"issue_iid": issueIIDProp,
				"body":      {Type: "string", Description: "The comment text. " + markdownBody},
			}, "issue_iid", "body"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("post-issue-comment.sh", a.IntString("issue_iid"), a.String("body"))
				return inv, a.Err()
			},
		),

		define("gitlab_update_issue",
			"Update an issue's description, milestone, assignees, labels, or state. Pass only the fields you want to change.",
			tools.ObjectSchema(tools.Properties{
				"issue_iid":   issueIIDProp,
				"description": {Type: "string", Description: "New description for the issue (Markdown supported)"},
				"milestone_id": {
					Type:        "number",
					Description: "Milestone ID to assign (use 0 or null to remove milestone)",
					Nullable:    true,
				},
				"assignee_ids": {
					Type:        "array",
					Items:       "number",
					Description: "Array of user IDs to assign. Empty array to unassign all.",
				},
				"labels": labelsProp,
				"title":  {Type: "string", Description: "New title for the issue"},
				"state_event": {
					Type:        "string",
					Enum:        []string{"close", "reopen"},
					Description: "Change issue state: 'close' or 'reopen'",
				},
			}, "issue_iid"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("update-issue.sh", a.IntString("issue_iid"), a.JSON(a.Pick(updateFields...)))
				return inv, a.Err()
			},
		),
	}
}

func createTools() []tools.Tool {
	return []tools.Tool{
		define("gitlab_create_issue",
			"Create a new issue in the GitLab project. Returns the created issue details including IID and URL.",
			tools.ObjectSchema(newIssueProperties("issue", tools.Properties{
				"title": {Type: "string", Description: "The title of the issue (required)"},
				"issue_type": {
					Type:        "string",
					Enum:        []string{"issue", "incident", "task"},
					Description: "Type of issue",
					Default:     "issue",
				},
			}), "title"),
			func(a *tools.Args) (executor.Invocation, error) {
				payload := a.Pick(append(createFields, "issue_type")...)
				payload["title"] = a.String("title")
				inv := bash("create-issue.sh", a.JSON(payload))
				return inv, a.Err()
			},
		),

		define("gitlab_create_sub_issue",
			"Create a sub-issue (child issue) linked to a parent issue. Creates the issue and establishes a parent-child relationship. On GitLab Premium 16.0+ uses native parent/child links, otherwise falls back to 'relates_to' link.",
			tools.ObjectSchema(newIssueProperties("sub-issue", tools.Properties{
				"parent_issue_iid": {
					Type:        "number",
					Description: "The internal ID (IID) of the parent issue to link to",
				},
				"title": {Type: "string", Description: "The title of the sub-issue (required)"},
			}), "parent_issue_iid", "title"),
			func(a *tools.Args) (executor.Invocation, error) {
				payload := a.Pick(createFields...)
				payload["title"] = a.String("title")
				inv := bash("create-sub-issue.sh", a.IntString("parent_issue_iid"), a.JSON(payload))
				return inv, a.Err()
			},
		),
	}
}

// newIssueProperties returns the fields shared by issue creation tools,
// merged with extra.
func newIssueProperties(noun string, extra tools.Properties) tools.Properties {
	description := "Issue description. " + markdownBody
	if noun != "issue" {
		description = "Sub-issue description. " + markdownBody
	}

	props := tools.Properties{
		"description": {Type: "string", Description: description},
		"labels":      labelsProp,
		"assignee_ids": {
			Type:        "array",
			Items:       "number",
			Description: "Array of user IDs to assign",
		},
		"milestone_id": {Type: "number", Description: "Milestone ID to assign"},
		"due_date":     {Type: "string", Description: "Due date in YYYY-MM-DD format"},
		"weight":       {Type: "number", Description: "Issue weight (numeric)"},
		"confidential": {
			Type:        "boolean",
			Description: "Whether the " + noun + " is confidential",
			Default:     false,
		},
	}
	for name, p := range extra {
		props[name] = p
	}
	return props
}
