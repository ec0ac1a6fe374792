package codegen

import (
	"fmt"
	"strings"

	"github.com/udlcore/udl/internal/schema"
)

// checkablePrimitives are the FieldTypes guard generation can assert
// with a single typeof/Array.isArray/===null check.
var checkablePrimitives = map[schema.FieldType]bool{
	schema.TypeString:  true,
	schema.TypeNumber:  true,
	schema.TypeBoolean: true,
	schema.TypeNull:    true,
}

// GenerateGuards renders isX/assertX functions for one TypeDefinition
// (spec §4.10, artifact 2).
func GenerateGuards(def schema.TypeDefinition, opts Options) string {
	var sb strings.Builder

	guardName := "is" + def.Name
	assertName := "assert" + def.Name

	sb.WriteString(fmt.Sprintf("export function %s(value: unknown): value is %s {\n", guardName, def.Name))
	sb.WriteString("  if (typeof value !== 'object' || value === null) return false;\n")
	sb.WriteString("  const v = value as Record<string, unknown>;\n")

	for _, name := range sortedFieldNames(def.Fields) {
		f := def.Fields[name]
		key := fmt.Sprintf("v[%q]", name)
		check := fieldCheckExpr(key, f, opts)
		if check == "" {
			continue
		}
		if f.Required {
			sb.WriteString(fmt.Sprintf("  if (%s) return false;\n", check))
		} else {
			sb.WriteString(fmt.Sprintf("  if (%s !== undefined && (%s)) return false;\n", key, check))
		}
	}

	sb.WriteString("  return true;\n}")
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("export function %s(value: unknown): asserts value is %s {\n", assertName, def.Name))
	sb.WriteString(fmt.Sprintf("  if (!%s(value)) throw new Error(%q);\n", guardName, fmt.Sprintf("value is not a %s", def.Name)))
	sb.WriteString("}")

	return sb.String()
}

// fieldCheckExpr returns a boolean expression that is true when key's
// runtime value does NOT match f's shape, or "" if f's shape isn't
// checkable (reference/unknown). Objects get a shallow non-null object
// check unless deep checks are enabled and nested fields are known.
func fieldCheckExpr(key string, f *schema.Field, opts Options) string {
	switch f.Type {
	case schema.TypeString:
		return fmt.Sprintf("typeof %s !== 'string'", key)
	case schema.TypeNumber:
		return fmt.Sprintf("typeof %s !== 'number'", key)
	case schema.TypeBoolean:
		return fmt.Sprintf("typeof %s !== 'boolean'", key)
	case schema.TypeNull:
		return fmt.Sprintf("%s !== null", key)
	case schema.TypeArray:
		if !opts.ArrayElementChecks || f.ArrayItemType == nil || !checkablePrimitives[f.ArrayItemType.Type] {
			return fmt.Sprintf("!Array.isArray(%s)", key)
		}
		elemCheck := fieldCheckExpr("item", f.ArrayItemType, opts)
		return fmt.Sprintf("!Array.isArray(%s) || %s.some((item: unknown) => %s)", key, key, elemCheck)
	case schema.TypeObject:
		if !opts.DeepObjectChecks || len(f.Object) == 0 {
			return fmt.Sprintf("typeof %s !== 'object' || %s === null", key, key)
		}
		return deepObjectCheckExpr(key, f.Object, opts)
	default:
		return ""
	}
}

func deepObjectCheckExpr(key string, fields map[string]*schema.Field, opts Options) string {
	conds := []string{fmt.Sprintf("typeof %s !== 'object'", key), fmt.Sprintf("%s === null", key)}
	objVar := key + " as Record<string, unknown>"
	for _, name := range sortedFieldNames(fields) {
		f := fields[name]
		nestedKey := fmt.Sprintf("(%s)[%q]", objVar, name)
		nested := fieldCheckExpr(nestedKey, f, opts)
		if nested == "" {
			continue
		}
		if f.Required {
			conds = append(conds, nested)
		} else {
			conds = append(conds, fmt.Sprintf("(%s !== undefined && (%s))", nestedKey, nested))
		}
	}
	return strings.Join(conds, " || ")
}

// GenerateGuardsFile renders every type's guards into one file.
func GenerateGuardsFile(defs []schema.TypeDefinition, opts Options) string {
	var sb strings.Builder
	sb.WriteString(fileHeader("runtime type guards"))

	sorted := append([]schema.TypeDefinition(nil), defs...)
	sortTypeDefinitions(sorted)

	for i, def := range sorted {
		sb.WriteString(GenerateGuards(def, opts))
		if i < len(sorted)-1 {
			sb.WriteString("\n\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
