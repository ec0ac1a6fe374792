package opdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleQuery(t *testing.T) {
	doc := Parse(`query GetProduct($id: ID!) { product(id: $id) { id title } }`, "a.graphql")
	require.Len(t, doc.Operations, 1)
	op := doc.Operations[0]
	assert.Equal(t, "query", op.Type)
	assert.Equal(t, "GetProduct", op.Name)
	require.Len(t, op.Variables, 1)
	assert.Equal(t, "id", op.Variables[0].Name)
	assert.Equal(t, "ID", op.Variables[0].Type)
	assert.True(t, op.Variables[0].Required)

	require.Len(t, op.SelectionSet, 1)
	product := op.SelectionSet[0]
	assert.Equal(t, "product", product.Name)
	require.Len(t, product.SelectionSet, 2)
	assert.Equal(t, "id", product.SelectionSet[0].Name)
	assert.Equal(t, "title", product.SelectionSet[1].Name)
}

func TestParseListVariableType(t *testing.T) {
	doc := Parse(`query Many($ids: [ID!]!) { products(ids: $ids) { id } }`, "a.graphql")
	require.Len(t, doc.Operations, 1)
	v := doc.Operations[0].Variables[0]
	assert.Equal(t, "[ID!]", v.Type)
	assert.True(t, v.Required)
}

func TestParseFieldAlias(t *testing.T) {
	doc := Parse(`query Q { renamed: title }`, "a.graphql")
	require.Len(t, doc.Operations, 1)
	sel := doc.Operations[0].SelectionSet[0]
	assert.Equal(t, "renamed", sel.Alias)
	assert.Equal(t, "title", sel.Name)
}

func TestParseFragmentSpreadAndDefinition(t *testing.T) {
	doc := Parse(`
		query Q { product { ...ProductFields } }
		fragment ProductFields on Product { id title }
	`, "a.graphql")
	require.Len(t, doc.Operations, 1)
	sel := doc.Operations[0].SelectionSet[0].SelectionSet[0]
	assert.Equal(t, "ProductFields", sel.FragmentSpread)

	frag, ok := doc.Fragments["ProductFields"]
	require.True(t, ok)
	assert.Equal(t, "Product", frag.TypeCondition)
	assert.Len(t, frag.SelectionSet, 2)
}

func TestParseInlineFragment(t *testing.T) {
	doc := Parse(`query Q { node { ... on Product { title } } }`, "a.graphql")
	sub := doc.Operations[0].SelectionSet[0].SelectionSet[0]
	assert.Equal(t, "Product", sub.InlineFragmentOn)
	assert.Equal(t, "title", sub.SelectionSet[0].Name)
}

func TestParseAnonymousOperationSkippedWithWarning(t *testing.T) {
	doc := Parse(`query { product { id } }`, "a.graphql")
	assert.Empty(t, doc.Operations)
	require.Len(t, doc.Warnings, 1)
	assert.Contains(t, doc.Warnings[0], "anonymous")
}

func TestParseDirectivesAndArgumentsAreSkipped(t *testing.T) {
	doc := Parse(`query Q { product(id: "p1") @include(if: true) { title @skip(if: false) } }`, "a.graphql")
	require.Len(t, doc.Operations, 1)
	assert.Equal(t, "product", doc.Operations[0].SelectionSet[0].Name)
	assert.Equal(t, "title", doc.Operations[0].SelectionSet[0].SelectionSet[0].Name)
}

func TestParseMalformedOperationWarnsAndContinues(t *testing.T) {
	doc := Parse(`
		query Broken( {
		query Q { product { id } }
	`, "a.graphql")
	require.NotEmpty(t, doc.Warnings)
	require.Len(t, doc.Operations, 1)
	assert.Equal(t, "Q", doc.Operations[0].Name)
}
