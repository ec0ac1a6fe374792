package codegen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/udlcore/udl/internal/schema"
)

// scalarMapping is the FieldType -> TypeScript primitive table (spec
// §4.10 "Primitive scalars map obviously"), the domain analogue of
// ats/typegen/typescript/generator.go's Go-type TypeMapping.
var scalarMapping = map[schema.FieldType]string{
	schema.TypeString:  "string",
	schema.TypeNumber:  "number",
	schema.TypeBoolean: "boolean",
	schema.TypeNull:    "null",
	schema.TypeUnknown: "unknown",
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// needsQuoting reports whether a field name must be emitted as a
// string-keyed property (spec §4.10: non-identifier, numeric-leading,
// or whitespace-containing names).
func needsQuoting(name string) bool {
	return !identifierPattern.MatchString(name)
}

func propertyKey(name string) string {
	if needsQuoting(name) {
		return fmt.Sprintf("%q", name)
	}
	return name
}

// fieldTypeString renders f's TypeScript type, not including
// optionality, recursing through array/object/reference shapes.
func fieldTypeString(f *schema.Field) string {
	if f == nil {
		return "unknown"
	}
	if len(f.LiteralValues) > 0 {
		return literalUnion(f.LiteralValues)
	}

	switch f.Type {
	case schema.TypeArray:
		item := fieldTypeString(f.ArrayItemType)
		if strings.ContainsAny(item, "{|") {
			return fmt.Sprintf("Array<%s>", item)
		}
		return item + "[]"
	case schema.TypeObject:
		if len(f.Object) == 0 {
			return "Record<string, unknown>"
		}
		return inlineObjectType(f.Object)
	case schema.TypeReference:
		if f.ReferenceType == "" {
			return "unknown"
		}
		return f.ReferenceType
	default:
		if ts, ok := scalarMapping[f.Type]; ok {
			return ts
		}
		return "unknown"
	}
}

func literalUnion(values []interface{}) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		switch val := v.(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%q", val))
		case bool:
			parts = append(parts, fmt.Sprintf("%v", val))
		default:
			parts = append(parts, fmt.Sprintf("%v", val))
		}
	}
	return strings.Join(parts, " | ")
}

// inlineObjectType renders f.Object as a structural type literal,
// e.g. "{ id: string; title?: string }".
func inlineObjectType(fields map[string]*schema.Field) string {
	names := sortedFieldNames(fields)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		f := fields[name]
		optional := ""
		if !f.Required {
			optional = "?"
		}
		parts = append(parts, fmt.Sprintf("%s%s: %s", propertyKey(name), optional, fieldTypeString(f)))
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func sortedFieldNames(fields map[string]*schema.Field) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
