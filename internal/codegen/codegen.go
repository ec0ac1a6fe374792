// Package codegen implements the Codegen Emitter (spec §4.10): type
// declarations, runtime type guards, and typed operation documents,
// all written idempotently. It follows ats/typegen/typescript's naming
// and header-comment conventions, generalized from a Go-struct source
// to a schema.TypeDefinition source.
package codegen

// Options configures every emitted artifact (spec §4.11 flags map onto
// these fields).
type Options struct {
	OutputDir  string // default "./generated"
	Guards     bool   // emit isX/assertX runtime guards
	NoInternal bool   // omit the internal<TypeName, Owner> descriptor field
	NoJSDoc    bool   // omit JSDoc comments on generated declarations
	ExportType string // "interface" (default) or "type"
	DryRun     bool   // compute output but skip filesystem writes

	// ArrayElementChecks and DeepObjectChecks tune runtime guard depth
	// (spec §4.10: both off/opt-in by default, no CLI flag for either).
	ArrayElementChecks bool
	DeepObjectChecks   bool

	Clean bool // remove the whole output directory before writing
}

func (o Options) outputDir() string {
	if o.OutputDir == "" {
		return "./generated"
	}
	return o.OutputDir
}

func (o Options) exportType() string {
	if o.ExportType == "" {
		return "interface"
	}
	return o.ExportType
}

// EmitResult summarizes one Emit call.
type EmitResult struct {
	Written   []string
	Unchanged []string
	Warnings  []string
}
