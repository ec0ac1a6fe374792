package schema

// ApplyOverrides reconciles one type's inferred fields against a
// declarative override map (spec §4.8 "Declarative overrides"): an
// override wins on type/shape, but the field's Required status stays
// whatever inference observed, since overrides describe shape, not
// presence.
func ApplyOverrides(def TypeDefinition, overrides map[string]*Field) TypeDefinition {
	if len(overrides) == 0 {
		return def
	}

	out := TypeDefinition{Name: def.Name, Fields: make(map[string]*Field, len(def.Fields))}
	for name, f := range def.Fields {
		out.Fields[name] = f
	}
	for name, override := range overrides {
		merged := *override
		if existing, ok := out.Fields[name]; ok {
			merged.Required = existing.Required
		}
		out.Fields[name] = &merged
	}
	return out
}

// ApplyOverridesToAll reconciles a full inference result against a
// per-type override table keyed by TypeDefinition.Name.
func ApplyOverridesToAll(defs []TypeDefinition, overridesByType map[string]map[string]*Field) []TypeDefinition {
	if len(overridesByType) == 0 {
		return defs
	}
	out := make([]TypeDefinition, len(defs))
	for i, def := range defs {
		if overrides, ok := overridesByType[def.Name]; ok {
			out[i] = ApplyOverrides(def, overrides)
		} else {
			out[i] = def
		}
	}
	return out
}
