package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/udlcore/udl/internal/codegen"
	"github.com/udlcore/udl/internal/config"
	"github.com/udlcore/udl/internal/opdoc"
	"github.com/udlcore/udl/internal/schema"
)

func runCodegen(cmd *cobra.Command, args []string) error {
	opts := resolveOptions()

	if flagWatch {
		return runWatch(opts)
	}

	result, err := generateOnce(opts)
	if err != nil {
		return err
	}
	reportResult(result)
	return nil
}

// resolveOptions merges the project config's [codegen] section with CLI
// flags, CLI winning on any flag the user explicitly set (spec §4.11
// "merges with CLI, CLI wins").
func resolveOptions() codegen.Options {
	opts := codegen.Options{
		OutputDir:  "./generated",
		ExportType: "interface",
	}

	if flagConfigPath == "" {
		if cfg, err := config.Load(); err == nil {
			opts.OutputDir = cfg.Codegen.Output
			opts.Guards = cfg.Codegen.Guards
			opts.NoInternal = cfg.Codegen.NoInternal
			opts.NoJSDoc = cfg.Codegen.NoJSDoc
			if cfg.Codegen.ExportType != "" {
				opts.ExportType = cfg.Codegen.ExportType
			}
		}
	}

	applyFlagOverrides(&opts)
	return opts
}

func applyFlagOverrides(opts *codegen.Options) {
	f := rootCmd.Flags()
	if f.Changed("output") {
		opts.OutputDir = flagOutput
	}
	if f.Changed("guards") {
		opts.Guards = flagGuards
	}
	if f.Changed("no-internal") {
		opts.NoInternal = flagNoInternal
	}
	if f.Changed("no-jsdoc") {
		opts.NoJSDoc = flagNoJSDoc
	}
	if f.Changed("export-type") {
		opts.ExportType = flagExportType
	}
	opts.Clean = flagClean
	opts.DryRun = flagDryRun
}

// generateOnce runs one full generate pass: resolve the schema source,
// discover+parse operation documents from the working directory, and
// emit every artifact.
func generateOnce(opts codegen.Options) (*codegen.EmitResult, error) {
	defs, err := loadTypeDefinitions(context.Background())
	if err != nil {
		return nil, fmt.Errorf("resolving schema: %w", err)
	}

	files, err := opdoc.Discover([]string{"."})
	if err != nil {
		return nil, fmt.Errorf("discovering operation documents: %w", err)
	}
	doc, err := opdoc.ParseFiles(files)
	if err != nil {
		return nil, fmt.Errorf("parsing operation documents: %w", err)
	}

	idx := buildSchemaIndex(defs)

	return codegen.Emit(defs, idx, doc, opts)
}

// buildSchemaIndex indexes every inferred type by name. Root-field type
// information isn't available here: schema.IntrospectionClient.Fetch
// deliberately strips Query/Mutation/Subscription before returning (spec
// §4.8), so operation type-checking resolves what it can from the
// domain Types map and falls back to `unknown` for anything that can
// only be resolved via a root field.
func buildSchemaIndex(defs []schema.TypeDefinition) *codegen.SchemaIndex {
	types := make(map[string]*schema.TypeDefinition, len(defs))
	for i := range defs {
		types[defs[i].Name] = &defs[i]
	}
	return &codegen.SchemaIndex{Types: types}
}

func reportResult(result *codegen.EmitResult) {
	for _, path := range result.Written {
		pterm.Success.Printf("wrote %s\n", path)
	}
	if len(result.Unchanged) > 0 {
		pterm.Info.Printf("%d file(s) unchanged\n", len(result.Unchanged))
	}
	for _, w := range result.Warnings {
		pterm.Warning.Println(w)
	}
}
