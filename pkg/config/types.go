package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent graphmem configuration stored as
// config.toml in the .graphmem/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Server      ServerConfig      `toml:"server"`
	Graph       GraphConfig       `toml:"graph"`
	LLM         LLMConfig         `toml:"llm"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Database    DatabaseConfig    `toml:"database"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Events      EventsConfig      `toml:"events"`
}

// ServerConfig holds HTTP server settings. The MCP endpoint is mounted on
// the same listener. The auth token is taken from the environment
// (GRAPHMEM_SERVER_AUTH_TOKEN), never written to the file; when empty the
// MCP endpoint is unauthenticated.
type ServerConfig struct {
	Listen    string `toml:"listen,omitempty"`
	AuthToken string `toml:"-"`
}

// GraphConfig holds graph engine settings.
type GraphConfig struct {
	// SemaphoreLimit bounds concurrent engine calls across all groups.
	SemaphoreLimit uint `toml:"semaphore_limit,omitempty"`

	// DefaultGroupID is used when a request does not name a group.
	DefaultGroupID string `toml:"default_group_id,omitempty"`
}

// LLMConfig holds entity extraction model settings. API keys are taken from
// the environment (GRAPHMEM_LLM_API_KEY), never written to the file.
type LLMConfig struct {
	Enabled  bool   `toml:"enabled,omitempty"`
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
	APIKey   string `toml:"-"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKey     string `toml:"-"`
}

// DatabaseConfig holds episode store settings.
type DatabaseConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// VectorStoreConfig holds vector index settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"graph.semaphore_limit": {
		get: func(c *Config) string {
			if c.Graph.SemaphoreLimit == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Graph.SemaphoreLimit), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for graph.semaphore_limit: %w", err)
			}
			c.Graph.SemaphoreLimit = uint(n)
			return nil
		},
	},
	"graph.default_group_id": {
		get: func(c *Config) string { return c.Graph.DefaultGroupID },
		set: func(c *Config, v string) error { c.Graph.DefaultGroupID = v; return nil },
	},
	"llm.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.LLM.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for llm.enabled: %w", err)
			}
			c.LLM.Enabled = b
			return nil
		},
	},
	"llm.provider": {
		get: func(c *Config) string { return c.LLM.Provider },
		set: func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	},
	"llm.target": {
		get: func(c *Config) string { return c.LLM.Target },
		set: func(c *Config, v string) error { c.LLM.Target = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"database.provider": {
		get: func(c *Config) string { return c.Database.Provider },
		set: func(c *Config, v string) error { c.Database.Provider = v; return nil },
	},
	"database.sqlite_path": {
		get: func(c *Config) string { return c.Database.SQLitePath },
		set: func(c *Config, v string) error { c.Database.SQLitePath = v; return nil },
	},
	"database.postgres_dsn": {
		get: func(c *Config) string { return c.Database.PostgresDSN },
		set: func(c *Config, v string) error { c.Database.PostgresDSN = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = nil
			for _, broker := range strings.Split(v, ",") {
				broker = strings.TrimSpace(broker)
				if broker != "" {
					c.Events.Brokers = append(c.Events.Brokers, broker)
				}
			}
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
