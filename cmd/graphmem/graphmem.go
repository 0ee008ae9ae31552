// Package graphmemcmder
package graphmemcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/graphmemco/graphmem/cmd/graphmem/config"
	initcmder "github.com/graphmemco/graphmem/cmd/graphmem/init"
	servecmder "github.com/graphmemco/graphmem/cmd/graphmem/serve"
	versioncmder "github.com/graphmemco/graphmem/cmd/version"
)

const graphmemLongDesc string = `Graphmem is a knowledge graph memory service for agents.

Episodes are ingested through per-group FIFO queues, distilled into
entities and facts, and served back through MCP memory tools.

Run the service using:
  graphmem serve       Run the memory server (HTTP API + MCP endpoint)

Manage configuration using:
  graphmem config      Get, set, or list persistent configuration`

const graphmemShortDesc string = "Graphmem - Knowledge Graph Memory"

func NewGraphmemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graphmem",
		Short: graphmemShortDesc,
		Long:  graphmemLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Config directory override (default: nearest .graphmem/)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
