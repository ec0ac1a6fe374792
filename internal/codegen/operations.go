package codegen

import (
	"fmt"
	"strings"

	"github.com/udlcore/udl/internal/opdoc"
	"github.com/udlcore/udl/internal/schema"
)

// SchemaIndex is the view of a GraphQL schema needed to type-check
// operation selection sets (spec §4.10 artifact 3): the root
// query/mutation/subscription fields, plus every named type for
// resolving `reference` fields encountered along a selection path.
type SchemaIndex struct {
	Roots map[string]*schema.Field          // root field name -> its Field shape
	Types map[string]*schema.TypeDefinition // type name -> definition
}

// expandSelectionSet inlines fragment spreads and inline fragments,
// since the emitter derives a flat Result shape rather than a
// per-fragment union.
func expandSelectionSet(sels []opdoc.Selection, fragments map[string]opdoc.FragmentDefinition) []opdoc.Selection {
	var out []opdoc.Selection
	for _, s := range sels {
		switch {
		case s.FragmentSpread != "":
			if frag, ok := fragments[s.FragmentSpread]; ok {
				out = append(out, expandSelectionSet(frag.SelectionSet, fragments)...)
			}
		case s.InlineFragmentOn != "":
			out = append(out, expandSelectionSet(s.SelectionSet, fragments)...)
		default:
			out = append(out, s)
		}
	}
	return out
}

func nestedParentFields(fieldDef *schema.Field, types map[string]*schema.TypeDefinition) map[string]*schema.Field {
	ref := fieldDef.ReferenceType
	if fieldDef.Type == schema.TypeArray && fieldDef.ArrayItemType != nil {
		ref = fieldDef.ArrayItemType.ReferenceType
	}
	if ref == "" {
		return nil
	}
	if t, ok := types[ref]; ok {
		return t.Fields
	}
	return nil
}

func resultFieldForSelection(sel opdoc.Selection, parentFields map[string]*schema.Field, idx *SchemaIndex, fragments map[string]opdoc.FragmentDefinition) *schema.Field {
	name := sel.Name
	if sel.Alias != "" {
		name = sel.Alias
	}

	fieldDef, ok := parentFields[sel.Name]
	if !ok {
		return &schema.Field{Name: name, Type: schema.TypeUnknown}
	}

	if len(sel.SelectionSet) == 0 {
		out := *fieldDef
		out.Name = name
		return &out
	}

	expanded := expandSelectionSet(sel.SelectionSet, fragments)
	nestedFields := buildResultFields(expanded, nestedParentFields(fieldDef, idx.Types), idx, fragments)

	result := &schema.Field{Name: name, Required: fieldDef.Required}
	if fieldDef.Type == schema.TypeArray {
		itemRequired := fieldDef.ArrayItemType != nil && fieldDef.ArrayItemType.Required
		result.Type = schema.TypeArray
		result.ArrayItemType = &schema.Field{Type: schema.TypeObject, Required: itemRequired, Object: nestedFields}
	} else {
		result.Type = schema.TypeObject
		result.Object = nestedFields
	}
	return result
}

func buildResultFields(sels []opdoc.Selection, parentFields map[string]*schema.Field, idx *SchemaIndex, fragments map[string]opdoc.FragmentDefinition) map[string]*schema.Field {
	out := make(map[string]*schema.Field, len(sels))
	for _, s := range sels {
		f := resultFieldForSelection(s, parentFields, idx, fragments)
		out[f.Name] = f
	}
	return out
}

// GenerateOperationResult derives op's Result TypeDefinition by
// type-checking its (fragment-expanded) selection set against idx.
func GenerateOperationResult(op opdoc.Operation, idx *SchemaIndex, fragments map[string]opdoc.FragmentDefinition) schema.TypeDefinition {
	expanded := expandSelectionSet(op.SelectionSet, fragments)
	fields := buildResultFields(expanded, idx.Roots, idx, fragments)
	return schema.TypeDefinition{Name: op.Name + "Result", Fields: fields}
}

// gqlTypeStringToField converts an opdoc variable type string (e.g.
// "ID", "[ID!]") into a Field, recursing through list wrapping.
func gqlTypeStringToField(typ string, types map[string]*schema.TypeDefinition) *schema.Field {
	if strings.HasPrefix(typ, "[") && strings.HasSuffix(typ, "]") {
		inner := typ[1 : len(typ)-1]
		required := false
		if strings.HasSuffix(inner, "!") {
			required = true
			inner = strings.TrimSuffix(inner, "!")
		}
		item := gqlTypeStringToField(inner, types)
		item.Required = required
		return &schema.Field{Type: schema.TypeArray, ArrayItemType: item}
	}
	if _, ok := types[typ]; ok {
		return &schema.Field{Type: schema.TypeReference, ReferenceType: typ}
	}
	return &schema.Field{Type: schema.ScalarFieldType(typ)}
}

// GenerateOperationVariables derives op's Variables TypeDefinition from
// its variable definitions.
func GenerateOperationVariables(op opdoc.Operation, idx *SchemaIndex) schema.TypeDefinition {
	fields := make(map[string]*schema.Field, len(op.Variables))
	for _, v := range op.Variables {
		f := gqlTypeStringToField(v.Type, idx.Types)
		f.Name = v.Name
		f.Required = v.Required
		fields[v.Name] = f
	}
	return schema.TypeDefinition{Name: op.Name + "Variables", Fields: fields}
}

// printSelectionSet/printSelection reconstruct operation text from the
// parsed structure (spec §4.10: "serialized without position
// metadata" — reprinting from the AST rather than slicing original
// source bytes satisfies this directly).
func printSelectionSet(sels []opdoc.Selection) string {
	parts := make([]string, 0, len(sels))
	for _, s := range sels {
		parts = append(parts, printSelection(s))
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

func printSelection(s opdoc.Selection) string {
	switch {
	case s.FragmentSpread != "":
		return "..." + s.FragmentSpread
	case s.InlineFragmentOn != "":
		return "... on " + s.InlineFragmentOn + " " + printSelectionSet(s.SelectionSet)
	default:
		name := s.Name
		if s.Alias != "" {
			name = s.Alias + ": " + s.Name
		}
		if len(s.SelectionSet) > 0 {
			return name + " " + printSelectionSet(s.SelectionSet)
		}
		return name
	}
}

// PrintOperation reconstructs canonical GraphQL text for op.
func PrintOperation(op opdoc.Operation) string {
	var sb strings.Builder
	sb.WriteString(op.Type)
	sb.WriteString(" ")
	sb.WriteString(op.Name)
	if len(op.Variables) > 0 {
		parts := make([]string, 0, len(op.Variables))
		for _, v := range op.Variables {
			suffix := ""
			if v.Required {
				suffix = "!"
			}
			parts = append(parts, fmt.Sprintf("$%s: %s%s", v.Name, v.Type, suffix))
		}
		sb.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	sb.WriteString(" ")
	sb.WriteString(printSelectionSet(op.SelectionSet))
	return sb.String()
}

// GenerateOperationFile renders one operation's Result type, Variables
// type, and document constant into a single file's contents.
func GenerateOperationFile(op opdoc.Operation, idx *SchemaIndex, fragments map[string]opdoc.FragmentDefinition, opts Options) string {
	result := GenerateOperationResult(op, idx, fragments)
	variables := GenerateOperationVariables(op, idx)

	var sb strings.Builder
	sb.WriteString(fileHeader(fmt.Sprintf("typed operation document for %s", op.Name)))
	sb.WriteString(GenerateTypeDeclaration(schema.TypeDefinition{Name: result.Name, Fields: result.Fields}, Options{ExportType: "type", NoInternal: true, NoJSDoc: opts.NoJSDoc}))
	sb.WriteString("\n\n")
	sb.WriteString(GenerateTypeDeclaration(schema.TypeDefinition{Name: variables.Name, Fields: variables.Fields}, Options{ExportType: "type", NoInternal: true, NoJSDoc: opts.NoJSDoc}))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("export const %sDocument = %s;\n", op.Name, backtickString(PrintOperation(op))))
	return sb.String()
}

func backtickString(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "\\`") + "`"
}
