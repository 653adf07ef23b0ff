// ABOUTME: MCP tool implementations for published posts and channel membership.
// ABOUTME: Registers lookup_post, list_posts, and check_membership tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/postgate/internal/storage"
)

func (s *Server) registerPostTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "lookup_post",
		Description: "Look up a published post by its post ID.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"post_id": {"type": "string", "description": "The post ID shown in the channel caption.", "minLength": 1}
			},
			"required": ["post_id"]
		}`),
	}, s.handleLookupPost)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_posts",
		Description: "List the most recently published posts.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "number", "description": "Maximum number of posts to return (default 10)"}
			}
		}`),
	}, s.handleListPosts)
}

func (s *Server) registerMembershipTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "check_membership",
		Description: "Check whether a Telegram user is subscribed to every required channel.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"user_id": {"type": "number", "description": "Telegram user ID."}
			},
			"required": ["user_id"]
		}`),
	}, s.handleCheckMembership)
}

func (s *Server) handleLookupPost(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.PostID == "" {
		return toolError("post_id is required"), nil
	}

	post, err := s.posts.GetPost(ctx, args.PostID)
	if errors.Is(err, storage.ErrPostNotFound) {
		return toolError("post %s not found", args.PostID), nil
	}
	if err != nil {
		return toolError("failed to get post: %v", err), nil
	}

	return textResult(fmt.Sprintf("Post ID: %s\nFile ID: %s\nCaption: %s", post.PostID, post.FileID, post.Caption)), nil
}

func (s *Server) handleListPosts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Limit int `json:"limit"`
	}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError("invalid arguments: %v", err), nil
		}
	}

	posts, err := s.posts.ListPosts(ctx, args.Limit)
	if err != nil {
		return toolError("failed to list posts: %v", err), nil
	}
	if len(posts) == 0 {
		return textResult("No posts found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d post(s):\n", len(posts))
	for _, p := range posts {
		fmt.Fprintf(&b, "\n%s  %s", p.PostID, firstLine(p.Caption))
	}
	return textResult(b.String()), nil
}

func (s *Server) handleCheckMembership(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.UserID == 0 {
		return toolError("user_id is required"), nil
	}

	var b strings.Builder
	all := true
	for _, ch := range s.channels {
		member, err := s.oracle.IsMember(ctx, ch, args.UserID)
		switch {
		case err != nil:
			all = false
			fmt.Fprintf(&b, "%s: error (%v)\n", ch.ChatUsername(), err)
		case member:
			fmt.Fprintf(&b, "%s: member\n", ch.ChatUsername())
		default:
			all = false
			fmt.Fprintf(&b, "%s: not subscribed\n", ch.ChatUsername())
		}
	}
	if all {
		b.WriteString("Access: granted")
	} else {
		b.WriteString("Access: denied")
	}
	return textResult(b.String()), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
