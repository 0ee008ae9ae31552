package config

const (
	defaultListen = ":8000"

	defaultSemaphoreLimit = 10

	defaultLLMProvider = "openai"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultDatabaseProvider = "memory"

	defaultVectorProvider = "none"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "graphmem.episodes"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
		},
		Graph: GraphConfig{
			SemaphoreLimit: defaultSemaphoreLimit,
		},
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Database: DatabaseConfig{
			Provider: defaultDatabaseProvider,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
