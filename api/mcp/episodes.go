package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/graphmemco/graphmem/pkg/graph"
)

var (
	getEpisodesToolName    = "get_episodes"
	getEpisodesDescription = "Get the most recent memory episodes for a group, newest first."

	deleteEpisodeToolName    = "delete_episode"
	deleteEpisodeDescription = "Delete an episode from memory by UUID."

	getFactToolName    = "get_entity_edge"
	getFactDescription = "Get a fact (an edge between two entities) by UUID."

	deleteFactToolName    = "delete_entity_edge"
	deleteFactDescription = "Delete a fact (an edge between two entities) by UUID."

	clearGraphToolName    = "clear_graph"
	clearGraphDescription = "Clear all memory for the given groups: episodes, entities, and facts."
)

// GetEpisodesInput represents the input arguments for get_episodes.
type GetEpisodesInput struct {
	GroupID string `json:"group_id,omitempty" jsonschema:"the group to read (defaults to the server's group)"`
	LastN   int    `json:"last_n,omitempty" jsonschema:"number of episodes to return (default: 10)"`
}

// GetEpisodesOutput represents the structured output of get_episodes.
type GetEpisodesOutput struct {
	Message  string          `json:"message"`
	Episodes []graph.Episode `json:"episodes"`
}

func (s *Server) handleGetEpisodes(ctx context.Context, _ *mcp.CallToolRequest, input GetEpisodesInput) (*mcp.CallToolResult, GetEpisodesOutput, error) {
	engine, err := s.config.Service.GetClient(ctx)
	if err != nil {
		return errResult("Graph engine unavailable: %v", err), GetEpisodesOutput{}, nil
	}

	lastN := input.LastN
	if lastN <= 0 {
		lastN = 10
	}

	groupID := s.groupOrDefault(input.GroupID)

	episodes, err := engine.GetEpisodes(ctx, []string{groupID}, lastN)
	if err != nil {
		return errResult("Getting episodes failed: %v", err), GetEpisodesOutput{}, nil
	}

	if episodes == nil {
		episodes = []graph.Episode{}
	}

	output := GetEpisodesOutput{
		Message:  fmt.Sprintf("Retrieved %d episodes from group %q", len(episodes), groupID),
		Episodes: episodes,
	}

	return okResult(output), output, nil
}

// UUIDInput identifies an episode or fact by UUID.
type UUIDInput struct {
	UUID string `json:"uuid" jsonschema:"the UUID of the item"`
}

// MessageOutput is a bare confirmation message.
type MessageOutput struct {
	Message string `json:"message"`
}

func (s *Server) handleDeleteEpisode(ctx context.Context, _ *mcp.CallToolRequest, input UUIDInput) (*mcp.CallToolResult, MessageOutput, error) {
	if input.UUID == "" {
		return errResult("uuid is required"), MessageOutput{}, nil
	}

	engine, err := s.config.Service.GetClient(ctx)
	if err != nil {
		return errResult("Graph engine unavailable: %v", err), MessageOutput{}, nil
	}

	if err := engine.DeleteEpisode(ctx, input.UUID); err != nil {
		return errResult("Deleting episode failed: %v", err), MessageOutput{}, nil
	}

	output := MessageOutput{Message: fmt.Sprintf("Episode %s deleted", input.UUID)}

	return okResult(output), output, nil
}

// GetFactOutput represents the structured output of get_entity_edge.
type GetFactOutput struct {
	Message string     `json:"message"`
	Fact    graph.Fact `json:"fact"`
}

func (s *Server) handleGetFact(ctx context.Context, _ *mcp.CallToolRequest, input UUIDInput) (*mcp.CallToolResult, GetFactOutput, error) {
	if input.UUID == "" {
		return errResult("uuid is required"), GetFactOutput{}, nil
	}

	engine, err := s.config.Service.GetClient(ctx)
	if err != nil {
		return errResult("Graph engine unavailable: %v", err), GetFactOutput{}, nil
	}

	fact, err := engine.GetFact(ctx, input.UUID)
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return errResult("Fact %s not found", input.UUID), GetFactOutput{}, nil
		}
		return errResult("Getting fact failed: %v", err), GetFactOutput{}, nil
	}

	output := GetFactOutput{
		Message: "Fact retrieved successfully",
		Fact:    fact,
	}

	return okResult(output), output, nil
}

func (s *Server) handleDeleteFact(ctx context.Context, _ *mcp.CallToolRequest, input UUIDInput) (*mcp.CallToolResult, MessageOutput, error) {
	if input.UUID == "" {
		return errResult("uuid is required"), MessageOutput{}, nil
	}

	engine, err := s.config.Service.GetClient(ctx)
	if err != nil {
		return errResult("Graph engine unavailable: %v", err), MessageOutput{}, nil
	}

	if err := engine.DeleteFact(ctx, input.UUID); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return errResult("Fact %s not found", input.UUID), MessageOutput{}, nil
		}
		return errResult("Deleting fact failed: %v", err), MessageOutput{}, nil
	}

	output := MessageOutput{Message: fmt.Sprintf("Fact %s deleted", input.UUID)}

	return okResult(output), output, nil
}

// ClearGraphInput represents the input arguments for clear_graph.
type ClearGraphInput struct {
	GroupIDs []string `json:"group_ids,omitempty" jsonschema:"groups to clear (defaults to the server's group)"`
}

func (s *Server) handleClearGraph(ctx context.Context, _ *mcp.CallToolRequest, input ClearGraphInput) (*mcp.CallToolResult, MessageOutput, error) {
	engine, err := s.config.Service.GetClient(ctx)
	if err != nil {
		return errResult("Graph engine unavailable: %v", err), MessageOutput{}, nil
	}

	groupIDs := s.groupsOrDefault(input.GroupIDs)

	if err := engine.ClearGroups(ctx, groupIDs); err != nil {
		return errResult("Clearing graph failed: %v", err), MessageOutput{}, nil
	}

	output := MessageOutput{Message: fmt.Sprintf("Cleared %d group(s)", len(groupIDs))}

	return okResult(output), output, nil
}
