package codegen

import (
	"fmt"
	"strings"

	"github.com/udlcore/udl/internal/schema"
)

// nodeDescriptorPreamble is emitted once per types.ts file when the
// internal descriptor field is enabled.
const nodeDescriptorPreamble = `export interface NodeDescriptor<TypeName extends string, Owner extends string = string> {
  id: string;
  type: TypeName;
  owner: Owner;
  contentDigest: string;
  createdAt: number;
  modifiedAt: number;
}
`

// GenerateTypeDeclaration renders one TypeDefinition as a TypeScript
// interface or type alias (spec §4.10, artifact 1).
func GenerateTypeDeclaration(def schema.TypeDefinition, opts Options) string {
	var sb strings.Builder

	if !opts.NoJSDoc {
		sb.WriteString(fmt.Sprintf("/** %s */\n", def.Name))
	}

	generic := ""
	if !opts.NoInternal {
		generic = "<Owner extends string = string>"
	}

	names := sortedFieldNames(def.Fields)

	if opts.exportType() == "type" {
		sb.WriteString(fmt.Sprintf("export type %s%s = {\n", def.Name, generic))
	} else {
		sb.WriteString(fmt.Sprintf("export interface %s%s {\n", def.Name, generic))
	}

	for _, name := range names {
		f := def.Fields[name]
		optional := ""
		if !f.Required {
			optional = "?"
		}
		sb.WriteString(fmt.Sprintf("  %s%s: %s;\n", propertyKey(name), optional, fieldTypeString(f)))
	}

	if !opts.NoInternal {
		sb.WriteString(fmt.Sprintf("  internal: NodeDescriptor<%q, Owner>;\n", def.Name))
	}

	if opts.exportType() == "type" {
		sb.WriteString("};")
	} else {
		sb.WriteString("}")
	}

	return sb.String()
}

// GenerateTypesFile renders every declaration into one file, sorted by
// type name for deterministic output (spec §4.10, §4.11 idempotent
// writes depend on this).
func GenerateTypesFile(defs []schema.TypeDefinition, opts Options) string {
	var sb strings.Builder
	sb.WriteString(fileHeader("type declarations"))

	if !opts.NoInternal {
		sb.WriteString(nodeDescriptorPreamble)
		sb.WriteString("\n")
	}

	sorted := append([]schema.TypeDefinition(nil), defs...)
	sortTypeDefinitions(sorted)

	for i, def := range sorted {
		sb.WriteString(GenerateTypeDeclaration(def, opts))
		if i < len(sorted)-1 {
			sb.WriteString("\n\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func fileHeader(artifact string) string {
	return fmt.Sprintf("/* eslint-disable */\n// Code generated by the udl codegen emitter — %s. DO NOT EDIT.\n\n", artifact)
}
