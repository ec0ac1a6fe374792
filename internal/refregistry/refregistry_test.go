package refregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReturnsFirstMatchInRegistrationOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterResolver(Resolver{
		ID:        "strings",
		Predicate: func(v interface{}) bool { _, ok := v.(string); return ok },
		EntityKey: func(v interface{}) (string, bool) { return "String:" + v.(string), true },
	}))
	require.NoError(t, r.RegisterResolver(Resolver{
		ID:        "catch-all",
		Predicate: func(v interface{}) bool { return true },
		EntityKey: func(v interface{}) (string, bool) { return "Unknown", true },
	}))

	res, ok := r.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, "strings", res.ID)

	key, ok := r.GetEntityKey("abc", "id")
	require.True(t, ok)
	assert.Equal(t, "String:abc", key)
}

func TestRegisterResolverRejectsDuplicateID(t *testing.T) {
	r := New()
	res := Resolver{ID: "a", Predicate: func(interface{}) bool { return false }}
	require.NoError(t, r.RegisterResolver(res))
	assert.Error(t, r.RegisterResolver(res))
}

func TestUnregisterResolverRemovesAndReindexes(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterResolver(Resolver{ID: "a", Predicate: func(interface{}) bool { return false }}))
	require.NoError(t, r.RegisterResolver(Resolver{ID: "b", Predicate: func(interface{}) bool { return true }, EntityKey: func(interface{}) (string, bool) { return "B", true }}))

	r.UnregisterResolver("a")

	res, ok := r.Resolve(42)
	require.True(t, ok)
	assert.Equal(t, "b", res.ID)

	// Re-register "a" to confirm the id slot was freed, not left dangling.
	require.NoError(t, r.RegisterResolver(Resolver{ID: "a", Predicate: func(interface{}) bool { return false }}))
}

func TestGetEntityKeyNoMatchReturnsFalse(t *testing.T) {
	r := New()
	_, ok := r.GetEntityKey(struct{}{}, "id")
	assert.False(t, ok)
}
