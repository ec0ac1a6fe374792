package codegen

import (
	"sort"

	"github.com/udlcore/udl/internal/schema"
)

func sortTypeDefinitions(defs []schema.TypeDefinition) {
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
}
