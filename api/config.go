// Package api provides an HTTP server for observing and managing the
// graphmem system. The MCP endpoint is mounted on the same listener.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// AuthToken is the bearer token required on MCP requests. When empty
	// the MCP endpoint is unauthenticated. Health endpoints are always
	// open.
	AuthToken string
}
