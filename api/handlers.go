package api

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/graphmemco/graphmem/pkg/queue"
)

// ErrorResponse is the JSON error body for API failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse describes the server's health and write throughput.
type StatusResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	SemaphoreLimit int    `json:"semaphore_limit"`
	InFlight       int    `json:"in_flight"`
	ActiveGroups   int    `json:"active_groups"`
}

// requireAuth rejects requests without the configured bearer token. A
// no-op when no token is configured. Health endpoints stay open so load
// balancers can probe without credentials.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	if s.config.AuthToken == "" {
		return c.Next()
	}

	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.config.AuthToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "invalid or missing bearer token"})
	}

	return c.Next()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStatus reports engine connectivity and permit pool usage. Hitting
// this endpoint constructs the engine if it has not been built yet.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		SemaphoreLimit: s.service.SemaphoreLimit(),
		InFlight:       s.service.InFlight(),
		ActiveGroups:   len(s.queue.Snapshot()),
	}

	engine, err := s.service.GetClient(c.Context())
	if err != nil {
		resp.Status = "error"
		resp.Message = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}

	if err := engine.Ping(c.Context()); err != nil {
		resp.Status = "error"
		resp.Message = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}

	resp.Status = "ok"
	return c.JSON(resp)
}

// handleListQueues returns the live per-group queue snapshot.
func (s *Server) handleListQueues(c *fiber.Ctx) error {
	snapshot := s.queue.Snapshot()

	return c.JSON(map[string]any{
		"count":  len(snapshot),
		"queues": snapshot,
	})
}

// handleGetQueue returns queue state for a single group.
func (s *Server) handleGetQueue(c *fiber.Ctx) error {
	groupID := c.Params("group")
	if groupID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "group parameter required"})
	}

	return c.JSON(queue.GroupStatus{
		GroupID:      groupID,
		QueueDepth:   s.queue.QueueDepth(groupID),
		WorkerActive: s.queue.IsWorkerActive(groupID),
	})
}
