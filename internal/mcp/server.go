// ABOUTME: MCP server initialization and configuration for postgate.
// ABOUTME: Exposes published posts and channel membership to AI agents over stdio.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/postgate/internal/gate"
	"github.com/2389-research/postgate/internal/models"
	"github.com/2389-research/postgate/internal/storage"
)

// Server wraps the MCP server with the post store and an optional membership oracle.
type Server struct {
	mcp      *gomcp.Server
	posts    storage.PostStore
	oracle   gate.MembershipOracle
	channels []models.Channel
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithMembership enables the check_membership tool for the given channels.
func WithMembership(oracle gate.MembershipOracle, channels []models.Channel) ServerOption {
	return func(s *Server) {
		s.oracle = oracle
		s.channels = channels
	}
}

// NewServer creates an MCP server with post lookup capabilities.
func NewServer(posts storage.PostStore, opts ...ServerOption) (*Server, error) {
	if posts == nil {
		return nil, fmt.Errorf("post store is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "postgate",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:   mcpServer,
		posts: posts,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerPostTools()
	if s.oracle != nil && len(s.channels) > 0 {
		s.registerMembershipTools()
	}

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
