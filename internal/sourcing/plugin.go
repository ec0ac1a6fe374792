// Package sourcing implements the Plugin Loader (spec §4.4). A source
// tree's `config.plugins` list cannot be `eval`'d the way a dynamic
// language would — per the spec's own design notes, this runtime
// substitutes a statically-linked Go registry, looked up by name, for
// dynamic module resolution. The three resolution tiers collapse to:
// registry lookup (relative path / local directory) and a fetched bundle
// via go-getter (installed package).
package sourcing

import (
	"context"

	"github.com/udlcore/udl/internal/actions"
	"github.com/udlcore/udl/internal/refregistry"
	"github.com/udlcore/udl/internal/webhook"
)

// Metadata describes a plugin, mirroring plugin.Metadata's shape
// (name/version/compatibility/description) generalized from "domain
// plugin" to "source plugin".
type Metadata struct {
	Name           string
	Version        string
	RuntimeVersion string // semver constraint against the host's version (spec "UDLVersion"-equivalent)
	Description    string
	NodeTypes      []string // types this plugin is expected to produce, for docs/introspection only
}

// Config is the static descriptor every plugin exports (spec §4.4):
// `{name, type?, plugins?, codegen?, indexes?, cache?}`.
type Config struct {
	Name    string
	Type    string
	Plugins []ChildRef
	Codegen interface{} // opaque; passed through verbatim to the codegen collector
	Indexes []IndexSpec
	Cache   *CacheConfig
}

// ChildRef is one entry of config.plugins: either a bare identifier or the
// object form `{name, options}`.
type ChildRef struct {
	Name    string
	Options map[string]interface{}
}

// IndexSpec names a field index a plugin wants registered on the store for
// one of its node types (spec §4.1 "registered indexes").
type IndexSpec struct {
	Type  string
	Field string
}

// CacheConfig declares whether a plugin's sourced nodes may be cached
// between runs (spec §4.4 "Caching").
type CacheConfig struct {
	Enabled bool
}

// LoadContext carries everything a plugin's hooks need: the action
// collaborators (store/bus/deletion log), the reference registry, the
// webhook registry a plugin's OnLoad registers handlers against (spec
// §4.5 "a plugin registers a webhook handler"), and bookkeeping for
// recursion (spec §4.4 "Recursion": cache directory hints, per-plugin
// options).
type LoadContext struct {
	Ctx         context.Context
	Actions     *actions.Context
	RefRegistry *refregistry.Registry
	Webhooks    *webhook.Registry

	// Options flow from the parent's ChildRef.Options for object-form
	// plugin references.
	Options map[string]interface{}

	// CacheDir is this plugin's own cache directory hint, derived from
	// its parent's path, and also the hint passed to its own children.
	CacheDir string
}

// Plugin is the statically-linked stand-in for a dynamically loaded
// plugin module. OnLoad, RegisterTypes, and SourceNodes mirror spec §4.4's
// `onLoad`/`registerTypes`/`sourceNodes` hooks; any may be a no-op.
type Plugin interface {
	Metadata() Metadata
	Config() Config

	OnLoad(lc *LoadContext) error
	RegisterTypes(lc *LoadContext) error
	SourceNodes(lc *LoadContext) error

	// ReferenceResolver returns the plugin's top-level referenceResolver
	// export, if any (spec §4.3/§4.4).
	ReferenceResolver() (refregistry.Resolver, bool)
}

// Factory constructs a fresh Plugin instance. Plugins are registered by
// factory, not by value, so a recursive load that references the same
// plugin name twice gets independent instances.
type Factory func() Plugin
