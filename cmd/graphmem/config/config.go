// Package configcmder provides the config command for managing persistent
// graphmem configuration stored in the .graphmem/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent graphmem configuration.

Configuration is stored as config.toml in the .graphmem/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen,
  graph.semaphore_limit, graph.default_group_id,
  llm.enabled, llm.provider, llm.target, llm.model,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  database.provider, database.sqlite_path, database.postgres_dsn,
  vector_store.provider, vector_store.target, vector_store.collection,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  graphmem config set <key> <value>    Set a configuration value
  graphmem config get <key>            Get a configuration value
  graphmem config list                 List all configuration values

Examples:
  graphmem config set database.provider sqlite
  graphmem config set embedding.model nomic-embed-text
  graphmem config get graph.semaphore_limit
  graphmem config list`

const configShortDesc string = "Manage persistent graphmem configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
