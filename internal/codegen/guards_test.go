package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udlcore/udl/internal/schema"
)

func TestGenerateGuardsChecksRequiredFields(t *testing.T) {
	out := GenerateGuards(sampleProductDef(), Options{})
	assert.Contains(t, out, "export function isProduct(value: unknown): value is Product {")
	assert.Contains(t, out, `typeof v["title"] !== 'string'`)
	assert.Contains(t, out, "export function assertProduct(value: unknown): asserts value is Product {")
}

func TestGenerateGuardsOptionalFieldsCheckedOnlyWhenPresent(t *testing.T) {
	out := GenerateGuards(sampleProductDef(), Options{})
	assert.Contains(t, out, `v["price"] !== undefined`)
}

func TestGenerateGuardsArrayElementChecksOffByDefault(t *testing.T) {
	def := schema.TypeDefinition{Name: "Tagged", Fields: map[string]*schema.Field{
		"tags": {Type: schema.TypeArray, Required: true, ArrayItemType: &schema.Field{Type: schema.TypeString}},
	}}
	out := GenerateGuards(def, Options{})
	assert.Contains(t, out, `!Array.isArray(v["tags"])`)
	assert.NotContains(t, out, ".some(")
}

func TestGenerateGuardsArrayElementChecksWhenEnabled(t *testing.T) {
	def := schema.TypeDefinition{Name: "Tagged", Fields: map[string]*schema.Field{
		"tags": {Type: schema.TypeArray, Required: true, ArrayItemType: &schema.Field{Type: schema.TypeString}},
	}}
	out := GenerateGuards(def, Options{ArrayElementChecks: true})
	assert.Contains(t, out, ".some(")
}

func TestGenerateGuardsReferenceFieldsAreNotChecked(t *testing.T) {
	def := schema.TypeDefinition{Name: "Order", Fields: map[string]*schema.Field{
		"customer": {Type: schema.TypeReference, ReferenceType: "User", Required: true},
	}}
	out := GenerateGuards(def, Options{})
	assert.NotContains(t, out, "customer")
}

func TestGenerateGuardsFileSortsByTypeName(t *testing.T) {
	defs := []schema.TypeDefinition{
		{Name: "Zebra", Fields: map[string]*schema.Field{}},
		{Name: "Apple", Fields: map[string]*schema.Field{}},
	}
	out := GenerateGuardsFile(defs, Options{})
	assert.Less(t, indexOf(out, "isApple"), indexOf(out, "isZebra"))
}
