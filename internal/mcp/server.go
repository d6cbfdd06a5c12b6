// Package mcp exposes issue metrics as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"jiracounter/internal/calendar"
	"jiracounter/internal/jira"
	"jiracounter/internal/metrics"
	"jiracounter/internal/workflow"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server holds the collaborators the tools need.
type Server struct {
	jira    jira.Client
	calc    *metrics.Calculator
	clock   *calendar.Clock
	tables  workflow.Tables
	version string
	now     func() time.Time
}

// NewServer creates a new MCP server.
func NewServer(client jira.Client, clock *calendar.Clock, tables workflow.Tables, version string) *Server {
	calc := metrics.NewCalculator(clock, tables.Aliases, tables.Categories).WithLogger(log.Logger)
	return &Server{
		jira:    client,
		calc:    calc,
		clock:   clock,
		tables:  tables,
		version: version,
		now:     time.Now,
	}
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer() *sdk.Server {
	server := sdk.NewServer(&sdk.Implementation{
		Name:    "jiracounter",
		Version: s.version,
	}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the server over stdin/stdout until the client disconnects or
// ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("MCP server listening on stdio")
	return s.MCPServer().Run(ctx, &sdk.StdioTransport{})
}
