// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/graphmemco/graphmem/pkg/embeddings"
	"github.com/graphmemco/graphmem/pkg/embeddings/ollama"
	"github.com/graphmemco/graphmem/pkg/embeddings/openai"
	"github.com/graphmemco/graphmem/pkg/graph"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "openai":
		return openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			APIKey:  o.APIKey,
		})
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", graph.ErrUnsupportedProvider, o.ProviderType)
	}
}
