package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/graphmemco/graphmem/pkg/queue"
)

var (
	getStatusToolName    = "get_status"
	getStatusDescription = "Get the status of the memory server: graph engine connectivity, in-flight writes, and per-group queue depths."
)

// StatusInput is empty; get_status takes no arguments.
type StatusInput struct{}

// StatusOutput represents the structured output of get_status.
type StatusOutput struct {
	Status         string              `json:"status"`
	Message        string              `json:"message"`
	SemaphoreLimit int                 `json:"semaphore_limit"`
	InFlight       int                 `json:"in_flight"`
	Queues         []queue.GroupStatus `json:"queues"`
}

func (s *Server) handleGetStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	output := StatusOutput{
		SemaphoreLimit: s.config.Service.SemaphoreLimit(),
		InFlight:       s.config.Service.InFlight(),
		Queues:         s.config.Queue.Snapshot(),
	}

	engine, err := s.config.Service.GetClient(ctx)
	if err != nil {
		output.Status = "error"
		output.Message = "Graph engine unavailable: " + err.Error()
		return okResult(output), output, nil
	}

	if err := engine.Ping(ctx); err != nil {
		output.Status = "error"
		output.Message = "Graph engine unreachable: " + err.Error()
		return okResult(output), output, nil
	}

	output.Status = "ok"
	output.Message = "Graph engine is running and connected"

	return okResult(output), output, nil
}
