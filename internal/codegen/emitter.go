package codegen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/udlcore/udl/internal/opdoc"
	"github.com/udlcore/udl/internal/schema"
)

// Emit writes all three codegen artifacts (spec §4.10): type
// declarations and (optionally) runtime guards into the output root,
// and one file per named operation under operations/, plus a barrel
// index.ts re-exporting every declared type name — the domain analogue
// of typegen/typescript/index.go's GenerateIndexFile.
func Emit(defs []schema.TypeDefinition, idx *SchemaIndex, doc *opdoc.Document, opts Options) (*EmitResult, error) {
	result := &EmitResult{}
	outDir := opts.outputDir()

	if opts.Clean && !opts.DryRun {
		if err := os.RemoveAll(outDir); err != nil {
			return nil, fmt.Errorf("clean output dir: %w", err)
		}
	}

	typesPath := filepath.Join(outDir, "types.ts")
	written, err := writeIfChanged(typesPath, []byte(GenerateTypesFile(defs, opts)), opts.DryRun)
	if err != nil {
		return nil, err
	}
	recordWrite(result, typesPath, written)

	if opts.Guards {
		guardsPath := filepath.Join(outDir, "guards.ts")
		written, err := writeIfChanged(guardsPath, []byte(GenerateGuardsFile(defs, opts)), opts.DryRun)
		if err != nil {
			return nil, err
		}
		recordWrite(result, guardsPath, written)
	}

	var opNames []string
	if doc != nil {
		ops := append([]opdoc.Operation(nil), doc.Operations...)
		sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })

		for _, op := range ops {
			content := GenerateOperationFile(op, idx, doc.Fragments, opts)
			opPath := filepath.Join(outDir, "operations", op.Name+".ts")
			written, err := writeIfChanged(opPath, []byte(content), opts.DryRun)
			if err != nil {
				return nil, err
			}
			recordWrite(result, opPath, written)
			opNames = append(opNames, op.Name)
		}
		result.Warnings = append(result.Warnings, doc.Warnings...)
	}

	indexPath := filepath.Join(outDir, "index.ts")
	written, err = writeIfChanged(indexPath, []byte(generateIndexFile(defs, opts, opNames)), opts.DryRun)
	if err != nil {
		return nil, err
	}
	recordWrite(result, indexPath, written)

	return result, nil
}

func recordWrite(result *EmitResult, path string, written bool) {
	if written {
		result.Written = append(result.Written, path)
	} else {
		result.Unchanged = append(result.Unchanged, path)
	}
}

func generateIndexFile(defs []schema.TypeDefinition, opts Options, opNames []string) string {
	var sb strings.Builder
	sb.WriteString(fileHeader("barrel export"))

	sorted := append([]schema.TypeDefinition(nil), defs...)
	sortTypeDefinitions(sorted)

	if len(sorted) > 0 {
		names := make([]string, len(sorted))
		for i, def := range sorted {
			names[i] = def.Name
		}
		sb.WriteString("export type {\n")
		for _, n := range names {
			sb.WriteString(fmt.Sprintf("  %s,\n", n))
		}
		sb.WriteString("} from './types';\n\n")
	}

	if opts.Guards && len(sorted) > 0 {
		sb.WriteString("export {\n")
		for _, def := range sorted {
			sb.WriteString(fmt.Sprintf("  is%s,\n  assert%s,\n", def.Name, def.Name))
		}
		sb.WriteString("} from './guards';\n\n")
	}

	sort.Strings(opNames)
	for _, name := range opNames {
		sb.WriteString(fmt.Sprintf("export * from './operations/%s';\n", name))
	}

	return sb.String()
}
