package sourcing

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// Registry is the statically-linked plugin registry, grounded on
// plugin/registry.go: a mutex-guarded name->factory map with sorted
// listing and semver compatibility checks against the host's running
// version.
type Registry struct {
	mu             sync.RWMutex
	factories      map[string]Factory
	runtimeVersion string
}

// NewRegistry creates a registry that will reject plugins whose
// RuntimeVersion constraint the given runtimeVersion doesn't satisfy.
func NewRegistry(runtimeVersion string) *Registry {
	return &Registry{
		factories:      make(map[string]Factory),
		runtimeVersion: runtimeVersion,
	}
}

// Register adds a plugin factory under name. Returns an error on name
// conflict; the factory is invoked once just to read Metadata for the
// version check, then discarded — SourceNodes etc. use the instance built
// at Load time.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("sourcing: plugin already registered: %s", name)
	}
	if err := r.validateVersion(factory()); err != nil {
		return fmt.Errorf("sourcing: version incompatible for %s: %w", name, err)
	}
	r.factories[name] = factory
	return nil
}

// New constructs a fresh instance of the plugin registered under name.
func (r *Registry) New(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// List returns every registered plugin name, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) validateVersion(p Plugin) error {
	constraintStr := p.Metadata().RuntimeVersion
	if constraintStr == "" || r.runtimeVersion == "" {
		return nil
	}
	runtimeVer, err := semver.NewVersion(r.runtimeVersion)
	if err != nil {
		return fmt.Errorf("invalid runtime version %s: %w", r.runtimeVersion, err)
	}
	constraint, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return fmt.Errorf("invalid version constraint %s: %w", constraintStr, err)
	}
	if !constraint.Check(runtimeVer) {
		return fmt.Errorf("plugin requires runtime %s, but running %s", constraintStr, r.runtimeVersion)
	}
	return nil
}
