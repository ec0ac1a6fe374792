package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePluginsBareNames(t *testing.T) {
	raw := []interface{}{"rest-source", "graphql-source"}

	refs := normalizePlugins(raw)

	assert.Equal(t, []string{"rest-source", "graphql-source"}, []string{refs[0].Name, refs[1].Name})
	assert.Nil(t, refs[0].Options)
}

func TestNormalizePluginsObjectForm(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{
			"name": "rest-source",
			"options": map[string]interface{}{
				"baseUrl": "https://api.example.com",
			},
		},
	}

	refs := normalizePlugins(raw)

	require := assert.New(t)
	require.Len(refs, 1)
	require.Equal("rest-source", refs[0].Name)
	require.Equal("https://api.example.com", refs[0].Options["baseUrl"])
}

func TestNormalizePluginsMixedForms(t *testing.T) {
	raw := []interface{}{
		"bare-plugin",
		map[string]interface{}{"name": "configured-plugin", "options": map[string]interface{}{"a": 1}},
	}

	refs := normalizePlugins(raw)

	assert.Len(t, refs, 2)
	assert.Equal(t, "bare-plugin", refs[0].Name)
	assert.Equal(t, "configured-plugin", refs[1].Name)
}

func TestNormalizePluginsSkipsEntriesWithoutName(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"options": map[string]interface{}{"a": 1}},
	}

	refs := normalizePlugins(raw)

	assert.Empty(t, refs)
}

func TestNormalizePluginsNilWhenNotAList(t *testing.T) {
	assert.Nil(t, normalizePlugins(nil))
	assert.Nil(t, normalizePlugins("not-a-list"))
}
