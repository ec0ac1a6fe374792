// Package refregistry implements the process-wide Reference Registry (spec
// §4.3): a registration-ordered list of resolvers that know how to turn an
// unknown value into an entity key, used by the normalizer and by schema
// inference to label fields of reference type.
package refregistry

import (
	"fmt"
	"sync"
)

// Resolver owns values for which Predicate returns true. EntityKey derives
// the `"{typename}:{id}"` string for such a value.
type Resolver struct {
	ID        string
	Predicate func(value interface{}) bool
	EntityKey func(value interface{}) (string, bool)
}

// Registry holds resolvers in registration order — the first whose
// Predicate matches a value owns it, mirroring plugin.Registry's
// mutex-guarded map but ordered by insertion rather than sorted by name,
// since resolver priority is meaningful here.
type Registry struct {
	mu        sync.RWMutex
	resolvers []Resolver
	byID      map[string]int
}

func New() *Registry {
	return &Registry{byID: make(map[string]int)}
}

// RegisterResolver appends r to the registry. Returns an error if r.ID is
// already registered.
func (r *Registry) RegisterResolver(res Resolver) error {
	if res.ID == "" {
		return fmt.Errorf("refregistry: resolver id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[res.ID]; exists {
		return fmt.Errorf("refregistry: resolver already registered: %s", res.ID)
	}
	r.byID[res.ID] = len(r.resolvers)
	r.resolvers = append(r.resolvers, res)
	return nil
}

// UnregisterResolver removes the resolver with the given id, if present.
func (r *Registry) UnregisterResolver(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return
	}
	r.resolvers = append(r.resolvers[:idx], r.resolvers[idx+1:]...)
	delete(r.byID, id)
	for laterID, laterIdx := range r.byID {
		if laterIdx > idx {
			r.byID[laterID] = laterIdx - 1
		}
	}
}

// Resolve returns the first registered resolver (in registration order)
// whose Predicate matches value.
func (r *Registry) Resolve(value interface{}) (Resolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.resolvers {
		if res.Predicate != nil && res.Predicate(value) {
			return res, true
		}
	}
	return Resolver{}, false
}

// typedValue is the minimal shape GetEntityKey recognizes directly, before
// falling back to a registered resolver: an explicit __typename plus a
// configured id field.
type typedValue interface {
	Typename() string
	FieldValue(field string) (interface{}, bool)
}

// GetEntityKey returns `"{typename}:{id}"` for value. If value implements
// typedValue and idField resolves to a value under the given typename, that
// takes precedence; otherwise the first matching registered resolver's
// EntityKey supplies the key.
func (r *Registry) GetEntityKey(value interface{}, idField string) (string, bool) {
	if tv, ok := value.(typedValue); ok {
		if typename := tv.Typename(); typename != "" {
			if id, ok := tv.FieldValue(idField); ok {
				return fmt.Sprintf("%s:%v", typename, id), true
			}
		}
	}
	res, ok := r.Resolve(value)
	if !ok || res.EntityKey == nil {
		return "", false
	}
	return res.EntityKey(value)
}
