package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyOverridesReplacesShapeButKeepsObservedRequired(t *testing.T) {
	def := TypeDefinition{Name: "Product", Fields: map[string]*Field{
		"price": {Type: TypeString, Required: true}, // mis-inferred as string
	}}
	overrides := map[string]*Field{
		"price": {Type: TypeNumber, Required: false},
	}
	out := ApplyOverrides(def, overrides)
	assert.Equal(t, TypeNumber, out.Fields["price"].Type)
	assert.True(t, out.Fields["price"].Required, "override must not clobber the observed Required status")
}

func TestApplyOverridesAddsFieldsNotPresentInInference(t *testing.T) {
	def := TypeDefinition{Name: "Product", Fields: map[string]*Field{}}
	overrides := map[string]*Field{
		"discontinued": {Type: TypeBoolean, Required: false},
	}
	out := ApplyOverrides(def, overrides)
	assert.Equal(t, TypeBoolean, out.Fields["discontinued"].Type)
}

func TestApplyOverridesEmptyIsNoOp(t *testing.T) {
	def := TypeDefinition{Name: "Product", Fields: map[string]*Field{
		"title": {Type: TypeString, Required: true},
	}}
	out := ApplyOverrides(def, nil)
	assert.Equal(t, def, out)
}

func TestApplyOverridesToAllOnlyTouchesMatchingTypes(t *testing.T) {
	defs := []TypeDefinition{
		{Name: "Product", Fields: map[string]*Field{"price": {Type: TypeString, Required: true}}},
		{Name: "User", Fields: map[string]*Field{"age": {Type: TypeString, Required: true}}},
	}
	overrides := map[string]map[string]*Field{
		"Product": {"price": {Type: TypeNumber, Required: false}},
	}
	out := ApplyOverridesToAll(defs, overrides)
	assert.Equal(t, TypeNumber, out[0].Fields["price"].Type)
	assert.Equal(t, TypeString, out[1].Fields["age"].Type, "User was not in the override table and must pass through unchanged")
}
