package schema

import "github.com/udlcore/udl/internal/store"

// LiveStoreOptions configures InferFromStore (spec §4.8 mode 3).
type LiveStoreOptions struct {
	Types  []string // empty means every type present in the store
	Owners []string // empty means every owner
	Limit  int      // 0 means sample every matching node
}

// InferFromStore samples up to Limit nodes per type (filtered by Types
// and Owners), infers a field set per node via InferFieldsFromSample,
// and merges them field-by-field — a field missing from any sampled
// node ends up required=false (spec §4.8, §4.9).
func InferFromStore(s *store.Store, opts LiveStoreOptions) []TypeDefinition {
	types := opts.Types
	if len(types) == 0 {
		types = s.GetTypes()
	}

	var ownerFilter map[string]bool
	if len(opts.Owners) > 0 {
		ownerFilter = make(map[string]bool, len(opts.Owners))
		for _, o := range opts.Owners {
			ownerFilter[o] = true
		}
	}

	defs := make([]TypeDefinition, 0, len(types))
	for _, t := range types {
		nodes := s.GetByType(t)
		sampled := 0
		var merged map[string]*Field
		for _, n := range nodes {
			if ownerFilter != nil && !ownerFilter[n.Internal.Owner] {
				continue
			}
			if opts.Limit > 0 && sampled >= opts.Limit {
				break
			}
			sampled++

			fields := InferFieldsFromSample(n.Fields)
			if merged == nil {
				merged = fields
			} else {
				merged = mergeObjectFields(merged, fields)
			}
		}
		if merged == nil {
			merged = make(map[string]*Field)
		}
		defs = append(defs, TypeDefinition{Name: t, Fields: merged})
	}
	return defs
}
