package store

import "sync"

// fieldIndexKey identifies one registered (type, field) index.
type fieldIndexKey struct {
	nodeType string
	field    string
}

// Store is the thread-safe content-addressed node graph described in
// spec §4.1. All mutation methods hold mu for the duration of the
// mutation; readers copy out from under the lock so returned nodes are
// point-in-time snapshots (spec §5).
type Store struct {
	mu sync.RWMutex

	nodes     map[string]*Node
	byType    map[string]map[string]struct{}            // type -> set of ids
	indexes   map[fieldIndexKey]map[interface{}]string   // (type,field,value) -> id, last-write-wins
	registry  map[string][]string                        // type -> registered index field names
	typeSchemas map[string]interface{}                    // type -> opaque schema info (set by schema package)
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		nodes:       make(map[string]*Node),
		byType:      make(map[string]map[string]struct{}),
		indexes:     make(map[fieldIndexKey]map[interface{}]string),
		registry:    make(map[string][]string),
		typeSchemas: make(map[string]interface{}),
	}
}

// Get returns a snapshot copy of the node at id, or nil if absent.
func (s *Store) Get(id string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id].Clone()
}

// Has reports whether id exists in the store.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// Size returns the number of live nodes.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Set upserts node, maintaining the type index and any registered field
// indexes for its type (I1, I5, I6). It never touches CreatedAt,
// ModifiedAt, or ContentDigest — computing those is the caller's
// responsibility (the actions layer).
func (s *Store) Set(n *Node) {
	if n == nil || n.Internal.ID == "" {
		return
	}
	cp := n.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	id := cp.Internal.ID
	newType := cp.Internal.Type

	if old, existed := s.nodes[id]; existed {
		// Type changed: move the type-index membership and drop stale
		// field-index entries for the old type.
		if old.Internal.Type != newType {
			s.removeFromTypeIndexLocked(old.Internal.Type, id)
			s.removeFromFieldIndexesLocked(old)
		} else {
			// Same type: stale field-index entries may point at values
			// this update no longer has; recompute them below after
			// clearing entries keyed by the old value.
			s.removeFromFieldIndexesLocked(old)
		}
	}

	s.addToTypeIndexLocked(newType, id)
	s.nodes[id] = cp
	s.addToFieldIndexesLocked(cp)
}

// Delete removes id from the store, the type index, and all field
// indexes. It does not cascade and does not emit events — both are
// policies of the actions layer (spec §4.1).
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	s.removeFromFieldIndexesLocked(n)
	s.removeFromTypeIndexLocked(n.Internal.Type, id)
	delete(s.nodes, id)
	return true
}

// GetAll returns a snapshot slice of every live node.
func (s *Store) GetAll() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n.Clone())
	}
	return out
}

// GetByType returns a snapshot slice of every live node of type t.
func (s *Store) GetByType(t string) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byType[t]
	out := make([]*Node, 0, len(ids))
	for id := range ids {
		out = append(out, s.nodes[id].Clone())
	}
	return out
}

// GetTypes returns the list of types currently present in the store.
func (s *Store) GetTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byType))
	for t := range s.byType {
		out = append(out, t)
	}
	return out
}

// RegisterIndex declares that type t should maintain a unique lookup
// index on field. Index entries are last-write-wins for duplicate
// values — field indexes are designed for slug-like unique lookups, not
// multi-valued queries (spec §4.1).
func (s *Store) RegisterIndex(t, field string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.registry[t] {
		if f == field {
			return
		}
	}
	s.registry[t] = append(s.registry[t], field)

	key := fieldIndexKey{nodeType: t, field: field}
	if s.indexes[key] == nil {
		s.indexes[key] = make(map[interface{}]string)
	}
	for id := range s.byType[t] {
		if n, ok := s.nodes[id]; ok {
			if v, has := n.Fields[field]; has {
				s.indexes[key][v] = id
			}
		}
	}
}

// GetRegisteredIndexes returns the field names indexed for type t.
func (s *Store) GetRegisteredIndexes(t string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.registry[t]...)
}

// GetByField looks up the node registered for (type, field, value).
func (s *Store) GetByField(t, field string, value interface{}) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.indexes[fieldIndexKey{nodeType: t, field: field}][value]
	if !ok {
		return nil
	}
	return s.nodes[id].Clone()
}

// SetTypeSchema attaches opaque schema metadata to type t (used by the
// schema inference package to cache a merged TypeDefinition).
func (s *Store) SetTypeSchema(t string, info interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typeSchemas[t] = info
}

// GetTypeSchema returns the schema metadata previously attached to t, if any.
func (s *Store) GetTypeSchema(t string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.typeSchemas[t]
	return v, ok
}

func (s *Store) addToTypeIndexLocked(t, id string) {
	if s.byType[t] == nil {
		s.byType[t] = make(map[string]struct{})
	}
	s.byType[t][id] = struct{}{}
}

func (s *Store) removeFromTypeIndexLocked(t, id string) {
	set := s.byType[t]
	if set == nil {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(s.byType, t)
	}
}

func (s *Store) addToFieldIndexesLocked(n *Node) {
	for _, field := range s.registry[n.Internal.Type] {
		if v, ok := n.Fields[field]; ok {
			key := fieldIndexKey{nodeType: n.Internal.Type, field: field}
			if s.indexes[key] == nil {
				s.indexes[key] = make(map[interface{}]string)
			}
			s.indexes[key][v] = n.Internal.ID
		}
	}
}

func (s *Store) removeFromFieldIndexesLocked(n *Node) {
	for _, field := range s.registry[n.Internal.Type] {
		if v, ok := n.Fields[field]; ok {
			key := fieldIndexKey{nodeType: n.Internal.Type, field: field}
			if m := s.indexes[key]; m != nil && m[v] == n.Internal.ID {
				delete(m, v)
			}
		}
	}
}
