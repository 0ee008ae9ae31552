package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/pkg/graph"
)

var (
	searchNodesToolName    = "search_memory_nodes"
	searchNodesDescription = "Search memory for relevant entity nodes. Returns entity summaries matching the query, optionally restricted to groups and entity type labels."

	searchFactsToolName    = "search_memory_facts"
	searchFactsDescription = "Search memory for relevant facts (relationships between entities). Optionally centered on a specific node."
)

// SearchNodesInput represents the input arguments for search_memory_nodes.
type SearchNodesInput struct {
	Query    string   `json:"query" jsonschema:"the search query text"`
	GroupIDs []string `json:"group_ids,omitempty" jsonschema:"groups to search (defaults to the server's group)"`
	MaxNodes int      `json:"max_nodes,omitempty" jsonschema:"maximum number of nodes to return (default: 10)"`
	Labels   []string `json:"entity_types,omitempty" jsonschema:"restrict results to these entity type labels"`
}

// SearchNodesOutput represents the structured output of search_memory_nodes.
type SearchNodesOutput struct {
	Message string       `json:"message"`
	Nodes   []graph.Node `json:"nodes"`
}

// handleSearchNodes processes a node search request.
func (s *Server) handleSearchNodes(ctx context.Context, _ *mcp.CallToolRequest, input SearchNodesInput) (*mcp.CallToolResult, SearchNodesOutput, error) {
	if input.Query == "" {
		return errResult("query is required"), SearchNodesOutput{}, nil
	}

	engine, err := s.config.Service.GetClient(ctx)
	if err != nil {
		return errResult("Graph engine unavailable: %v", err), SearchNodesOutput{}, nil
	}

	groupIDs := s.groupsOrDefault(input.GroupIDs)

	s.config.Logger.Debug("MCP node search",
		zap.String("query", input.Query),
		zap.Strings("group_ids", groupIDs),
	)

	nodes, err := engine.SearchNodes(ctx, input.Query, groupIDs, input.MaxNodes, input.Labels)
	if err != nil {
		return errResult("Node search failed: %v", err), SearchNodesOutput{}, nil
	}

	if nodes == nil {
		nodes = []graph.Node{}
	}

	output := SearchNodesOutput{
		Message: "Nodes retrieved successfully",
		Nodes:   nodes,
	}

	return okResult(output), output, nil
}

// SearchFactsInput represents the input arguments for search_memory_facts.
type SearchFactsInput struct {
	Query          string   `json:"query" jsonschema:"the search query text"`
	GroupIDs       []string `json:"group_ids,omitempty" jsonschema:"groups to search (defaults to the server's group)"`
	MaxFacts       int      `json:"max_facts,omitempty" jsonschema:"maximum number of facts to return (default: 10)"`
	CenterNodeUUID string   `json:"center_node_uuid,omitempty" jsonschema:"only return facts touching this node"`
}

// SearchFactsOutput represents the structured output of search_memory_facts.
type SearchFactsOutput struct {
	Message string       `json:"message"`
	Facts   []graph.Fact `json:"facts"`
}

// handleSearchFacts processes a fact search request.
func (s *Server) handleSearchFacts(ctx context.Context, _ *mcp.CallToolRequest, input SearchFactsInput) (*mcp.CallToolResult, SearchFactsOutput, error) {
	if input.Query == "" {
		return errResult("query is required"), SearchFactsOutput{}, nil
	}

	if input.MaxFacts < 0 {
		return errResult("max_facts must not be negative"), SearchFactsOutput{}, nil
	}

	engine, err := s.config.Service.GetClient(ctx)
	if err != nil {
		return errResult("Graph engine unavailable: %v", err), SearchFactsOutput{}, nil
	}

	groupIDs := s.groupsOrDefault(input.GroupIDs)

	s.config.Logger.Debug("MCP fact search",
		zap.String("query", input.Query),
		zap.Strings("group_ids", groupIDs),
	)

	facts, err := engine.SearchFacts(ctx, input.Query, groupIDs, input.MaxFacts, input.CenterNodeUUID)
	if err != nil {
		return errResult("Fact search failed: %v", err), SearchFactsOutput{}, nil
	}

	if facts == nil {
		facts = []graph.Fact{}
	}

	output := SearchFactsOutput{
		Message: "Facts retrieved successfully",
		Facts:   facts,
	}

	return okResult(output), output, nil
}
