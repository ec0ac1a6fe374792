// Command udl starts the universal content aggregation server: node
// store, plugin loader, webhook pipeline, WebSocket broadcaster, and the
// delta-sync/health HTTP endpoints.
package main

import (
	"fmt"
	"os"

	"github.com/udlcore/udl/cmd/udl/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
