// Package mcp provides an MCP (Model Context Protocol) server for the
// graphmem system.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/queue"
	"github.com/graphmemco/graphmem/pkg/utils"
)

// DefaultGroupID is used when neither the request nor the config names a
// group.
const DefaultGroupID = "main"

type Config struct {
	// Queue is the group-sequenced ingestion queue. add_memory submits
	// here and returns immediately.
	Queue *queue.Manager

	// Service is the engine lifecycle manager. Read tools acquire the
	// engine through it, constructing it on first use.
	Service *graph.Service

	// GroupID overrides the default group for requests that do not name
	// one.
	GroupID string

	// EntityTypes is the extraction schema passed with every episode.
	// Defaults to DefaultEntityTypes.
	EntityTypes []graph.EntityType

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	// Create the MCP server
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "graphmem",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Queue == nil {
		return nil, errors.New("queue manager is required")
	}
	if c.Service == nil {
		return nil, errors.New("graph service is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	if s.config.GroupID == "" {
		s.config.GroupID = DefaultGroupID
	}
	if len(s.config.EntityTypes) == 0 {
		s.config.EntityTypes = DefaultEntityTypes
	}

	// Add tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        addMemoryToolName,
		Description: addMemoryDescription,
	}, s.handleAddMemory)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchNodesToolName,
		Description: searchNodesDescription,
	}, s.handleSearchNodes)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchFactsToolName,
		Description: searchFactsDescription,
	}, s.handleSearchFacts)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getEpisodesToolName,
		Description: getEpisodesDescription,
	}, s.handleGetEpisodes)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        deleteEpisodeToolName,
		Description: deleteEpisodeDescription,
	}, s.handleDeleteEpisode)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getFactToolName,
		Description: getFactDescription,
	}, s.handleGetFact)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        deleteFactToolName,
		Description: deleteFactDescription,
	}, s.handleDeleteFact)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        clearGraphToolName,
		Description: clearGraphDescription,
	}, s.handleClearGraph)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getStatusToolName,
		Description: getStatusDescription,
	}, s.handleGetStatus)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// groupOrDefault resolves the effective group for a request.
func (s *Server) groupOrDefault(groupID string) string {
	if groupID != "" {
		return groupID
	}
	return s.config.GroupID
}

// groupsOrDefault resolves the effective group filter for a read request.
func (s *Server) groupsOrDefault(groupIDs []string) []string {
	if len(groupIDs) > 0 {
		return groupIDs
	}
	return []string{s.config.GroupID}
}

// okResult wraps structured output in a tool result. Per MCP spec: tools
// returning structured content should also return serialized JSON in a
// TextContent block for backwards compatibility.
func okResult(output any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errResult("Failed to serialize results: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}

// errResult builds a tool error result. Tool failures are reported in-band
// rather than as protocol errors so callers see the message.
func errResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
