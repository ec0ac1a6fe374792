package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udlcore/udl/internal/schema"
	"github.com/udlcore/udl/internal/store"
)

func TestFromResponseRequiresType(t *testing.T) {
	_, err := fromResponse("anything.json", "")
	assert.Error(t, err)
}

func TestFromResponseInfersFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"hello","views":3}`), 0o644))

	defs, err := fromResponse(path, "Article")
	require.NoError(t, err)

	require.Len(t, defs, 1)
	assert.Equal(t, "Article", defs[0].Name)
	assert.Equal(t, schema.TypeString, defs[0].Fields["title"].Type)
	assert.Equal(t, schema.TypeNumber, defs[0].Fields["views"].Type)
}

func TestFromResponseRejectsNonObject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2,3]`), 0o644))

	_, err := fromResponse(path, "Article")
	assert.Error(t, err)
}

func TestFromStoreSnapshotInfersFromNodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	node := &store.Node{
		Internal: store.Internal{ID: "n1", Type: "Article", Owner: "feed"},
		Fields:   map[string]interface{}{"title": "hello"},
	}
	raw, err := json.Marshal([]*store.Node{node})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	defs, err := fromStoreSnapshot(path)
	require.NoError(t, err)

	require.Len(t, defs, 1)
	assert.Equal(t, "Article", defs[0].Name)
	assert.Contains(t, defs[0].Fields, "title")
}

func TestLoadTypeDefinitionsRequiresASource(t *testing.T) {
	flagEndpoint, flagFromResponse, flagFromStore = "", "", ""
	_, err := loadTypeDefinitions(context.Background())
	assert.Error(t, err)
}

func TestBuildSchemaIndexIndexesByName(t *testing.T) {
	defs := []schema.TypeDefinition{{Name: "Article"}, {Name: "Author"}}

	idx := buildSchemaIndex(defs)

	assert.Len(t, idx.Types, 2)
	assert.Equal(t, "Article", idx.Types["Article"].Name)
	assert.Nil(t, idx.Roots)
}
