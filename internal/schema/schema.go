// Package schema implements Schema Inference (spec §4.8-§4.9): three
// independent ways to produce a `TypeDefinition` (GraphQL introspection,
// JSON sample walk, live store sampling), a deterministic field-merge
// algorithm used by both the live-store mode and multi-sample
// reconciliation, and declarative per-type override application.
package schema

// FieldType is the inferred shape of a field (spec §4.8).
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeArray     FieldType = "array"
	TypeObject    FieldType = "object"
	TypeReference FieldType = "reference"
	TypeUnknown   FieldType = "unknown"
	TypeNull      FieldType = "null"
)

// Field is one inferred field descriptor.
type Field struct {
	Name          string            `json:"name"`
	Type          FieldType         `json:"type"`
	Required      bool              `json:"required"`
	ReferenceType string            `json:"referenceType,omitempty"`
	ArrayItemType *Field            `json:"arrayItemType,omitempty"`
	Object        map[string]*Field `json:"object,omitempty"`
	Description   string            `json:"description,omitempty"`
	// LiteralValues, when non-empty, overrides Type for codegen purposes:
	// the field is emitted as a union of these literal values rather
	// than its scalar Type (spec §4.10). Not produced by any inference
	// mode on its own; set via ApplyOverrides for enum-shaped fields.
	LiteralValues []interface{} `json:"literalValues,omitempty"`
}

// TypeDefinition is the output unit common to all three inference modes
// (spec §4.8: "all producing the same TypeDefinition[]").
type TypeDefinition struct {
	Name   string            `json:"name"`
	Fields map[string]*Field `json:"fields"`
}

// reservedFieldNames are excluded from live-store inference (spec §4.8
// mode 3): they're part of Node's own envelope, not its domain fields.
var reservedFieldNames = map[string]bool{
	"internal": true,
	"parent":   true,
	"children": true,
}

// MergeField combines two descriptors for the same field name per the
// deterministic rules in spec §4.9.
func MergeField(a, b *Field) *Field {
	if a == nil {
		return cloneRequired(b, false)
	}
	if b == nil {
		return cloneRequired(a, false)
	}

	out := &Field{
		Name:     a.Name,
		Required: a.Required && b.Required,
	}
	out.Description = a.Description
	if out.Description == "" {
		out.Description = b.Description
	}

	mergeType(out, a, b)
	return out
}

func mergeType(out, a, b *Field) {
	switch {
	case a.Type == b.Type:
		out.Type = a.Type
		if a.ReferenceType == b.ReferenceType {
			out.ReferenceType = a.ReferenceType
		}
		switch a.Type {
		case TypeArray:
			out.ArrayItemType = MergeField(a.ArrayItemType, b.ArrayItemType)
		case TypeObject:
			out.Object = mergeObjectFields(a.Object, b.Object)
		}
	case isNullOrUnknown(a.Type):
		*out = *cloneRequired(b, out.Required)
	case isNullOrUnknown(b.Type):
		*out = *cloneRequired(a, out.Required)
	default:
		out.Type = TypeUnknown
	}
}

func isNullOrUnknown(t FieldType) bool {
	return t == TypeNull || t == TypeUnknown || t == ""
}

// cloneRequired copies f's shape but overrides Required, used when one
// side of a merge is absent or untyped and we adopt the other's shape.
func cloneRequired(f *Field, required bool) *Field {
	if f == nil {
		return &Field{Type: TypeUnknown, Required: required}
	}
	out := *f
	out.Required = required
	return &out
}

// mergeObjectFields computes the union of two object field maps: a
// field present on only one side becomes required=false (spec §4.9
// "Object: compute the union of field names; fields present in only
// one side become required=false").
func mergeObjectFields(a, b map[string]*Field) map[string]*Field {
	out := make(map[string]*Field)
	for name, fa := range a {
		if fb, ok := b[name]; ok {
			out[name] = MergeField(fa, fb)
		} else {
			out[name] = cloneRequired(fa, false)
		}
	}
	for name, fb := range b {
		if _, ok := a[name]; !ok {
			out[name] = cloneRequired(fb, false)
		}
	}
	return out
}

// MergeTypeDefinitions merges two TypeDefinition samples for the same
// type name field-by-field.
func MergeTypeDefinitions(a, b *TypeDefinition) *TypeDefinition {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := &TypeDefinition{Name: a.Name, Fields: mergeObjectFields(a.Fields, b.Fields)}
	return out
}
