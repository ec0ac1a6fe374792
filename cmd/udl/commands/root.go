// Package commands holds the udl CLI's cobra subcommands, grounded on
// cmd/qntx/main.go's root-command/PersistentPreRunE layout.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/udlcore/udl/internal/obslog"
)

// RootCmd is the udl binary's entry command.
var RootCmd = &cobra.Command{
	Use:   "udl",
	Short: "udl - universal content aggregation layer",
	Long: `udl ingests entities from external content sources, normalizes them into
a typed node graph, and exposes that graph via a delta-sync HTTP endpoint,
a push WebSocket channel, and a codegen pipeline.

Available commands:
  server   - Start the udl server
  version  - Show build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := obslog.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().CountP("verbose", "v", "Verbosity count; it is not read, so log output stays at info level")
	RootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	RootCmd.AddCommand(ServerCmd)
	RootCmd.AddCommand(VersionCmd)
}
