package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/queue"
)

var (
	addMemoryToolName    = "add_memory"
	addMemoryDescription = "Add an episode to memory. Episodes are processed asynchronously: this returns as soon as the episode is queued, and episodes within the same group are processed strictly in submission order."
)

// DefaultEntityTypes is the extraction schema applied when the caller does
// not supply one.
var DefaultEntityTypes = []graph.EntityType{
	{
		Name:        "Requirement",
		Description: "A specific need or functionality that a product or service must fulfill",
	},
	{
		Name:        "Preference",
		Description: "A user's expressed like, dislike, or preferred way of doing something",
	},
	{
		Name:        "Procedure",
		Description: "A sequence of actions to accomplish a task, described so it can be repeated",
	},
}

// AddMemoryInput represents the input arguments for the add_memory tool.
type AddMemoryInput struct {
	Name              string `json:"name" jsonschema:"a short name for the episode"`
	EpisodeBody       string `json:"episode_body" jsonschema:"the content to persist in memory"`
	GroupID           string `json:"group_id,omitempty" jsonschema:"the group to add the episode to (defaults to the server's group)"`
	Source            string `json:"source,omitempty" jsonschema:"the content kind: text, json, or message (default: text)"`
	SourceDescription string `json:"source_description,omitempty" jsonschema:"a note on where the content came from"`
	UUID              string `json:"uuid,omitempty" jsonschema:"optional episode UUID to assign"`
}

// AddMemoryOutput represents the structured output of add_memory.
type AddMemoryOutput struct {
	Message  string `json:"message"`
	GroupID  string `json:"group_id"`
	Position int    `json:"position"`
}

// handleAddMemory queues an episode write. It never waits on execution.
func (s *Server) handleAddMemory(_ context.Context, _ *mcp.CallToolRequest, input AddMemoryInput) (*mcp.CallToolResult, AddMemoryOutput, error) {
	if input.EpisodeBody == "" {
		return errResult("episode_body is required"), AddMemoryOutput{}, nil
	}

	groupID := s.groupOrDefault(input.GroupID)

	position := s.config.Queue.Submit(queue.Task{
		GroupID:           groupID,
		UUID:              input.UUID,
		Name:              input.Name,
		Content:           input.EpisodeBody,
		Source:            graph.ParseEpisodeSource(input.Source),
		SourceDescription: input.SourceDescription,
		EntityTypes:       s.config.EntityTypes,
		ReferenceTime:     time.Now().UTC(),
	})

	s.config.Logger.Debug("episode queued",
		zap.String("group_id", groupID),
		zap.String("name", input.Name),
		zap.Int("position", position),
	)

	output := AddMemoryOutput{
		Message:  fmt.Sprintf("Episode %q queued for processing (position: %d)", input.Name, position),
		GroupID:  groupID,
		Position: position,
	}

	return okResult(output), output, nil
}
