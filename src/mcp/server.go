// Package mcp exposes rider location publishing as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"rider-publisher/src/contracts"
	"rider-publisher/src/publisher"
)

// Server is the MCP server for rider-publisher.
type Server struct {
	mcpServer *server.MCPServer
	pub       *publisher.Publisher
	recent    *RecentStore
	now       func() time.Time
}

// NewServer creates a new MCP server publishing through pub.
// pub must be connected before tools are called.
func NewServer(pub *publisher.Publisher) *Server {
	s := server.NewMCPServer(
		"rider-publisher",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		pub:       pub,
		recent:    NewRecentStore(50),
		now:       time.Now,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	publishTool := mcp.NewTool("publish_location",
		mcp.WithDescription("Publish a rider location update to Kafka. Riders in the north go to partition 1, everyone else to partition 0."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Rider name"),
		),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Rider location, e.g. north or south"),
		),
	)

	recentTool := mcp.NewTool("recent_publications",
		mcp.WithDescription("List location updates published by this server, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Max entries to return (default: 10)"),
		),
	)

	s.mcpServer.AddTool(publishTool, s.handlePublishLocation)
	s.mcpServer.AddTool(recentTool, s.handleRecentPublications)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// handlePublishLocation handles the publish_location tool call.
func (s *Server) handlePublishLocation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	event := contracts.LocationEvent{
		Name:     request.GetString("name", ""),
		Location: request.GetString("location", ""),
	}
	if err := event.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	partition := contracts.PartitionFor(event.Location)
	if err := s.pub.Publish(ctx, event, partition); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("publish failed: %v", err)), nil
	}

	pub := Publication{
		Name:      event.Name,
		Location:  event.Location,
		Topic:     s.pub.Topic(),
		Partition: partition,
		SentAt:    s.now().UTC(),
	}
	s.recent.Add(pub)

	jsonBytes, err := json.Marshal(pub)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleRecentPublications handles the recent_publications tool call.
func (s *Server) handleRecentPublications(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 10)

	jsonBytes, err := json.Marshal(s.recent.Recent(limit))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
