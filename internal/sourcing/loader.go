package sourcing

import (
	"fmt"

	"github.com/udlcore/udl/internal/obslog"
	"github.com/udlcore/udl/internal/store"
)

// maxDepth is the Plugin Loader's recursion depth limit (spec §4.4: "depth
// limit (≥ 10)").
const maxDepth = 10

// Cache is the caching hook spec §4.4 describes: after SourceNodes
// completes, a plugin's produced nodes and registered indexes are
// snapshotted to its cache directory; on a later load the snapshot is
// restored before SourceNodes runs. internal/sourcecache.Store satisfies
// this interface structurally.
type Cache interface {
	Load(cacheDir string) (*Snapshot, bool, error)
	Save(cacheDir string, snap *Snapshot) error
}

// Snapshot is the cached artifact for one plugin: the nodes it produced
// plus the field indexes it registered.
type Snapshot struct {
	Nodes   []*store.Node
	Indexes []IndexSpec
}

// CodegenEntry is one `(pluginName, config)` record collected from every
// plugin in the tree that carries a non-nil Codegen config (spec §4.4
// "Codegen collection").
type CodegenEntry struct {
	PluginName string
	Config     interface{}
}

// Loader walks a plugin tree rooted at a set of top-level plugin names,
// resolving each name against the static Registry (and, for identifiers
// that parse as a fetchable URL, against the bundle fetcher), applying the
// recursion and caching rules of spec §4.4.
type Loader struct {
	Registry *Registry
	Bundles  *BundleFetcher // optional; nil disables the "installed package" tier
	Cache    Cache          // optional; nil disables caching entirely
}

// Result is the accumulated outcome of a Load call.
type Result struct {
	Codegen []CodegenEntry
}

// Load resolves and runs every plugin named in roots, recursively loading
// each plugin's config.plugins list. lc supplies the action/reference
// collaborators shared by the whole tree; lc.CacheDir, if set, seeds the
// top-level cache directory hint.
func (l *Loader) Load(roots []ChildRef, lc *LoadContext) (*Result, error) {
	res := &Result{}
	for _, ref := range roots {
		if err := l.load(ref, lc, 0, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (l *Loader) load(ref ChildRef, parentLC *LoadContext, depth int, res *Result) error {
	if depth > maxDepth {
		obslog.Get().Warnw("plugin recursion depth exceeded, stopping",
			obslog.FieldPlugin, ref.Name, "depth", depth)
		return nil
	}

	p, err := l.resolve(ref.Name)
	if err != nil {
		return fmt.Errorf("sourcing: resolving plugin %q: %w", ref.Name, err)
	}
	if p == nil {
		obslog.Get().Warnw("plugin not found, skipping", obslog.FieldPlugin, ref.Name)
		return nil
	}

	lc := &LoadContext{
		Ctx:         parentLC.Ctx,
		Actions:     parentLC.Actions,
		RefRegistry: parentLC.RefRegistry,
		Webhooks:    parentLC.Webhooks,
		Options:     ref.Options,
		CacheDir:    childCacheDir(parentLC.CacheDir, ref.Name),
	}

	if resolver, ok := p.ReferenceResolver(); ok && lc.RefRegistry != nil {
		resolver.ID = ref.Name
		if err := lc.RefRegistry.RegisterResolver(resolver); err != nil {
			obslog.Get().Warnw("reference resolver registration failed",
				obslog.FieldPlugin, ref.Name, obslog.FieldError, err)
		}
	}

	if err := p.OnLoad(lc); err != nil {
		return fmt.Errorf("sourcing: %s.OnLoad: %w", ref.Name, err)
	}
	if err := p.RegisterTypes(lc); err != nil {
		return fmt.Errorf("sourcing: %s.RegisterTypes: %w", ref.Name, err)
	}

	cfg := p.Config()

	restored := false
	if l.Cache != nil && cfg.Cache != nil && cfg.Cache.Enabled && lc.CacheDir != "" {
		if snap, ok, err := l.Cache.Load(lc.CacheDir); err != nil {
			obslog.Get().Warnw("cache restore failed", obslog.FieldPlugin, ref.Name, obslog.FieldError, err)
		} else if ok {
			for _, n := range snap.Nodes {
				lc.Actions.Store.Set(n)
			}
			for _, idx := range snap.Indexes {
				lc.Actions.Store.RegisterIndex(idx.Type, idx.Field)
			}
			restored = true
		}
	}

	if err := p.SourceNodes(lc); err != nil {
		return fmt.Errorf("sourcing: %s.SourceNodes: %w", ref.Name, err)
	}

	if l.Cache != nil && cfg.Cache != nil && cfg.Cache.Enabled && lc.CacheDir != "" && !restored {
		snap := &Snapshot{Nodes: nodesByType(lc.Actions.Store, cfg), Indexes: cfg.Indexes}
		if err := l.Cache.Save(lc.CacheDir, snap); err != nil {
			obslog.Get().Warnw("cache save failed", obslog.FieldPlugin, ref.Name, obslog.FieldError, err)
		}
	}

	if cfg.Codegen != nil {
		res.Codegen = append(res.Codegen, CodegenEntry{PluginName: ref.Name, Config: cfg.Codegen})
	}

	for _, child := range cfg.Plugins {
		if err := l.load(child, lc, depth+1, res); err != nil {
			return err
		}
	}

	return nil
}

// resolve looks the identifier up in the static registry first, falling
// back to the bundle fetcher when the identifier parses as a fetchable
// URL (the "installed package" tier — spec §4.4 resolution order step 3).
func (l *Loader) resolve(name string) (Plugin, error) {
	if p, ok := l.Registry.New(name); ok {
		return p, nil
	}
	if l.Bundles != nil && looksLikeRemoteRef(name) {
		return l.Bundles.Fetch(name)
	}
	return nil, nil
}

func childCacheDir(parent, name string) string {
	if parent == "" {
		return ""
	}
	return parent + "/" + name
}

// nodesByType collects every node currently in the store whose type was
// declared by the plugin's config (its Type and Indexes), i.e. the nodes this plugin
// is responsible for snapshotting. Plugins without a declared type list
// fall back to snapshotting nothing — a plugin that wants caching must
// say what it owns.
func nodesByType(s *store.Store, cfg Config) []*store.Node {
	types := make(map[string]struct{})
	for _, idx := range cfg.Indexes {
		types[idx.Type] = struct{}{}
	}
	if cfg.Type != "" {
		types[cfg.Type] = struct{}{}
	}
	out := make([]*store.Node, 0)
	for t := range types {
		out = append(out, s.GetByType(t)...)
	}
	return out
}
