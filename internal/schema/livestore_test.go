package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udlcore/udl/internal/store"
)

func mustSet(s *store.Store, id, typ, owner string, fields map[string]interface{}) {
	s.Set(&store.Node{
		Internal: store.Internal{ID: id, Type: typ, Owner: owner},
		Fields:   fields,
	})
}

func TestInferFromStoreMergesAcrossNodes(t *testing.T) {
	s := store.New()
	mustSet(s, "p1", "Product", "team-a", map[string]interface{}{"title": "A", "price": float64(10)})
	mustSet(s, "p2", "Product", "team-a", map[string]interface{}{"title": "B"})

	defs := InferFromStore(s, LiveStoreOptions{})
	assert.Len(t, defs, 1)
	fields := defs[0].Fields
	assert.True(t, fields["title"].Required)
	assert.False(t, fields["price"].Required, "field missing from one sampled node must be optional")
}

func TestInferFromStoreFiltersByOwner(t *testing.T) {
	s := store.New()
	mustSet(s, "p1", "Product", "team-a", map[string]interface{}{"title": "A"})
	mustSet(s, "p2", "Product", "team-b", map[string]interface{}{"price": float64(5)})

	defs := InferFromStore(s, LiveStoreOptions{Owners: []string{"team-a"}})
	assert.Len(t, defs, 1)
	assert.Contains(t, defs[0].Fields, "title")
	assert.NotContains(t, defs[0].Fields, "price")
}

func TestInferFromStoreRespectsLimit(t *testing.T) {
	s := store.New()
	mustSet(s, "p1", "Product", "team-a", map[string]interface{}{"title": "A"})
	mustSet(s, "p2", "Product", "team-a", map[string]interface{}{"price": float64(5)})

	defs := InferFromStore(s, LiveStoreOptions{Limit: 1})
	assert.Len(t, defs, 1)
	assert.Len(t, defs[0].Fields, 1, "only the first sampled node's fields should be present")
}

func TestInferFromStoreRestrictsToRequestedTypes(t *testing.T) {
	s := store.New()
	mustSet(s, "p1", "Product", "team-a", map[string]interface{}{"title": "A"})
	mustSet(s, "u1", "User", "team-a", map[string]interface{}{"name": "bob"})

	defs := InferFromStore(s, LiveStoreOptions{Types: []string{"User"}})
	assert.Len(t, defs, 1)
	assert.Equal(t, "User", defs[0].Name)
}

func TestInferFromStoreEmptyTypeHasEmptyFields(t *testing.T) {
	s := store.New()
	defs := InferFromStore(s, LiveStoreOptions{Types: []string{"Empty"}})
	assert.Len(t, defs, 1)
	assert.Empty(t, defs[0].Fields)
}
