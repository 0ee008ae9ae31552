package provider

import (
	"fmt"

	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/llm/provider/anthropic"
	"github.com/graphmemco/graphmem/pkg/llm/provider/ollama"
	"github.com/graphmemco/graphmem/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Ollama    = "ollama"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Anthropic, OpenAI, Ollama}
}

// New creates a new Client for the given provider configuration.
// Returns an error if the provider type is not recognized or a required
// credential is missing.
func New(cfg Config) (Client, error) {
	switch cfg.Type {
	case Anthropic:
		return anthropic.New(anthropic.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case OpenAI:
		return openai.New(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case Ollama:
		return ollama.New(ollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", graph.ErrUnsupportedProvider, cfg.Type, SupportedProviders())
	}
}
