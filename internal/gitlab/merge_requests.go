package gitlab

import (
	"github.com/developer-mesh/review-mcp/internal/executor"
	"github.com/developer-mesh/review-mcp/internal/tools"
)

// diffPosition locates an inline comment in a merge request diff.
type diffPosition struct {
	PositionType string `json:"position_type"`
	BaseSHA      string `json:"base_sha"`
	HeadSHA      string `json:"head_sha"`
	StartSHA     string `json:"start_sha"`
	NewPath      string `json:"new_path"`
	OldPath      string `json:"old_path"`
	NewLine      *int64 `json:"new_line,omitempty"`
	OldLine      *int64 `json:"old_line,omitempty"`
}

type diffComment struct {
	Body     string       `json:"body"`
	Position diffPosition `json:"position"`
}

func mergeRequestTools() []tools.Tool {
	return []tools.Tool{
		define("gitlab_list_mrs",
			"List merge requests in the GitLab project. Returns MR IID, title, state, author, branches, and URL.",
			tools.ObjectSchema(tools.Properties{
				"state": {
					Type:        "string",
					Description: "Filter by MR state: opened, closed, merged, or all",
					Enum:        []string{"opened", "closed", "merged", "all"},
					Default:     "opened",
				},
				"per_page": {
					Type:        "number",
					Description: "Number of MRs to return (default: 20, max: 100)",
					Default:     20,
				},
			}),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("list-mrs.sh", a.String("state"), a.IntString("per_page"))
				return inv, a.Err()
			},
		),

		define("gitlab_get_mr_details",
			"Get detailed information about a specific merge request including description, assignees, reviewers, and labels.",
			tools.ObjectSchema(tools.Properties{"mr_iid": mrIIDProp}, "mr_iid"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("get-mr-details.sh", a.IntString("mr_iid"))
				return inv, a.Err()
			},
		),

		define("gitlab_get_mr_comments",
			"Get all comments/notes on a merge request. Returns comment body, author, timestamps, and resolution status.",
			tools.ObjectSchema(tools.Properties{
				"mr_iid": mrIIDProp,
				"per_page": {
					Type:        "number",
					Description: "Number of comments to return (default: 50)",
					Default:     50,
				},
			}, "mr_iid"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("get-mr-comments.sh", a.IntString("mr_iid"), a.IntString("per_page"))
				return inv, a.Err()
			},
		),

		define("gitlab_get_mr_discussions",
			"Get threaded discussions on a merge request. Includes inline code comments with file paths and line numbers.",
			tools.ObjectSchema(tools.Properties{
				"mr_iid": mrIIDProp,
				"per_page": {
					Type:        "number",
					Description: "Number of discussions to return (default: 50)",
					Default:     50,
				},
			}, "mr_iid"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("get-mr-discussions.sh", a.IntString("mr_iid"), a.IntString("per_page"))
				return inv, a.Err()
			},
		),

		define("gitlab_post_mr_comment",
			"Post a new comment on a merge request. Use this to provide feedback, ask questions, or document fixes.",
			tools.ObjectSchema(tools.Properties{
				"mr_iid": mrIIDProp,
				"body":   {Type: "string", Description: "The comment text. " + markdownBody},
			}, "mr_iid", "body"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("post-mr-comment.sh", a.IntString("mr_iid"), a.String("body"))
				return inv, a.Err()
			},
		),

		define("gitlab_reply_to_discussion",
			"Reply to an existing discussion thread on a merge request. Use this to respond to code review comments.",
			tools.ObjectSchema(tools.Properties{
				"mr_iid":        mrIIDProp,
				"discussion_id": {Type: "string", Description: "The ID of the discussion thread to reply to"},
				"body":          {Type: "string", Description: "The reply text. " + markdownBody},
			}, "mr_iid", "discussion_id", "body"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("reply-to-discussion.sh", a.IntString("mr_iid"), a.String("discussion_id"), a.String("body"))
				return inv, a.Err()
			},
		),

		define("gitlab_resolve_discussion",
			"Resolve or unresolve a discussion thread. Use after addressing code review feedback.",
			tools.ObjectSchema(tools.Properties{
				"mr_iid":        mrIIDProp,
				"discussion_id": {Type: "string", Description: "The ID of the discussion thread"},
				"resolve": {
					Type:        "boolean",
					Description: "true to resolve, false to unresolve",
					Default:     true,
				},
			}, "mr_iid", "discussion_id"),
			func(a *tools.Args) (executor.Invocation, error) {
				resolve := "true"
				if !a.Bool("resolve") {
					resolve = "false"
				}
				inv := bash("resolve-discussion.sh", a.IntString("mr_iid"), a.String("discussion_id"), resolve)
				return inv, a.Err()
			},
		),

		define("gitlab_get_mr_diff_versions",
			"Get diff versions for a merge request to obtain SHA values needed for posting line-level inline comments.",
			tools.ObjectSchema(tools.Properties{"mr_iid": mrIIDProp}, "mr_iid"),
			func(a *tools.Args) (executor.Invocation, error) {
				inv := bash("get-mr-diff-versions.sh", a.IntString("mr_iid"))
				return inv, a.Err()
			},
		),

		define("gitlab_post_mr_diff_comment",
			"Post an inline comment on a specific file and line in a merge request diff. Requires SHA values from gitlab_get_mr_diff_versions.",
			tools.ObjectSchema(tools.Properties{
				"mr_iid":    mrIIDProp,
				"body":      {Type: "string", Description: "The comment text. " + markdownBody},
				"base_sha":  {Type: "string", Description: "Base commit SHA from diff versions (base_commit_sha)"},
				"head_sha":  {Type: "string", Description: "Head commit SHA from diff versions (head_commit_sha)"},
				"start_sha": {Type: "string", Description: "Start commit SHA from diff versions (start_commit_sha)"},
				"new_path":  {Type: "string", Description: "File path on the new side of the diff"},
				"old_path":  {Type: "string", Description: "File path on the old side of the diff (defaults to new_path if not provided)"},
				"new_line":  {Type: "number", Description: "Line number on the new side (for added or unchanged lines)"},
				"old_line":  {Type: "number", Description: "Line number on the old side (for removed or unchanged lines)"},
			}, "mr_iid", "body", "base_sha", "head_sha", "start_sha", "new_path"),
			buildDiffComment,
		),
	}
}

func buildDiffComment(a *tools.Args) (executor.Invocation, error) {
	comment := diffComment{
		Body: a.String("body"),
		Position: diffPosition{
			PositionType: "text",
			BaseSHA:      a.String("base_sha"),
			HeadSHA:      a.String("head_sha"),
			StartSHA:     a.String("start_sha"),
			NewPath:      a.String("new_path"),
		},
	}

	comment.Position.OldPath = a.OptionalString("old_path")
	if comment.Position.OldPath == "" {
		comment.Position.OldPath = comment.Position.NewPath
	}
	if a.Has("new_line") {
		line := a.Int("new_line")
		comment.Position.NewLine = &line
	}
	if a.Has("old_line") {
		line := a.Int("old_line")
		comment.Position.OldLine = &line
	}

	inv := bash("post-mr-diff-comment.sh", a.IntString("mr_iid"), a.JSON(comment))
	return inv, a.Err()
}
