// Command udl-codegen is the Codegen CLI (spec §4.11): a subcommand-free
// tool that introspects a GraphQL endpoint, walks a sample JSON response,
// or samples a stored node snapshot, and emits typed client artifacts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/udlcore/udl/internal/version"
)

var (
	flagEndpoint     string
	flagFromResponse string
	flagType         string
	flagFromStore    string
	flagOutput       string
	flagGuards       bool
	flagWatch        bool
	flagClean        bool
	flagDryRun       bool
	flagConfigPath   string
	flagNoInternal   bool
	flagNoJSDoc      bool
	flagExportType   string
)

var rootCmd = &cobra.Command{
	Use:     "udl-codegen",
	Short:   "Generate typed client bindings from a GraphQL endpoint, a sample response, or a stored node snapshot",
	Version: version.Get().Version,
	RunE:    runCodegen,
}

func init() {
	rootCmd.Flags().StringVarP(&flagEndpoint, "endpoint", "e", "", "GraphQL endpoint to introspect")
	rootCmd.Flags().StringVarP(&flagFromResponse, "from-response", "r", "", "Path to a sample JSON response to infer a type from (requires --type)")
	rootCmd.Flags().StringVarP(&flagType, "type", "t", "", "Type name to assign the --from-response sample")
	rootCmd.Flags().StringVarP(&flagFromStore, "from-store", "s", "", "Path to a JSON node-snapshot file to infer types from")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "./generated", "Output directory")
	rootCmd.Flags().BoolVarP(&flagGuards, "guards", "g", false, "Emit runtime type guards")
	rootCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch operation documents and the config file, regenerating on change")
	rootCmd.Flags().BoolVarP(&flagClean, "clean", "c", false, "Remove the whole output directory before writing")
	rootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "d", false, "Compute output without writing files")
	rootCmd.Flags().StringVarP(&flagConfigPath, "config", "C", "", "Project config path; when set, config discovery is skipped and this file is not read either")
	rootCmd.Flags().BoolVar(&flagNoInternal, "no-internal", false, "Omit the internal<TypeName, Owner> descriptor field")
	rootCmd.Flags().BoolVar(&flagNoJSDoc, "no-jsdoc", false, "Omit JSDoc comments on generated declarations")
	rootCmd.Flags().StringVar(&flagExportType, "export-type", "", "'interface' (default) or 'type'")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
