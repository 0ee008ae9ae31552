// Package provider defines the LLM client interface and the factory that
// selects a concrete client by provider type.
package provider

import "context"

// Client is a minimal chat-completion client. The graph engine uses it for
// entity and fact extraction prompts; graphmem needs nothing fancier than
// "prompt in, text out".
type Client interface {
	// Complete sends a single-turn prompt and returns the model's text reply.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the canonical provider name (e.g., "anthropic", "openai", "ollama")
	Name() string

	// Close releases any resources held by the client.
	Close() error
}

// Config holds the provider-neutral client configuration.
type Config struct {
	// Type is the provider type name (see SupportedProviders).
	Type string

	// APIKey is the provider credential. Required for openai and anthropic.
	APIKey string

	// BaseURL overrides the provider's default API URL.
	BaseURL string

	// Model is the model identifier to use.
	Model string
}
