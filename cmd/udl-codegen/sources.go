package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/udlcore/udl/internal/schema"
	"github.com/udlcore/udl/internal/store"
)

// loadTypeDefinitions resolves the requested schema source (spec §4.11's
// --endpoint / --from-response+--type / --from-store, mutually
// exclusive) into a []schema.TypeDefinition.
func loadTypeDefinitions(ctx context.Context) ([]schema.TypeDefinition, error) {
	switch {
	case flagEndpoint != "":
		return introspect(ctx, flagEndpoint)
	case flagFromResponse != "":
		return fromResponse(flagFromResponse, flagType)
	case flagFromStore != "":
		return fromStoreSnapshot(flagFromStore)
	default:
		return nil, fmt.Errorf("one of --endpoint, --from-response, or --from-store is required")
	}
}

func introspect(ctx context.Context, endpoint string) ([]schema.TypeDefinition, error) {
	client := &schema.IntrospectionClient{TTL: 5 * time.Minute}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return client.Fetch(ctx, endpoint, nil)
}

func fromResponse(path, typeName string) ([]schema.TypeDefinition, error) {
	if typeName == "" {
		return nil, fmt.Errorf("--type is required with --from-response")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sample response: %w", err)
	}

	var sample interface{}
	if err := json.Unmarshal(raw, &sample); err != nil {
		return nil, fmt.Errorf("parsing sample response: %w", err)
	}

	obj, ok := sample.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("sample response at %s must be a JSON object", path)
	}

	return []schema.TypeDefinition{{
		Name:   typeName,
		Fields: schema.InferFieldsFromSample(obj),
	}}, nil
}

// fromStoreSnapshot reads a JSON array of store nodes (the same shape a
// server-side /_sync response's "updated" field carries) and runs the
// live-store inference mode over an in-memory store rebuilt from them.
// The CLI never talks to a running server directly — a snapshot file is
// the Go-native substitute for sharing one in-process store object
// across a CLI/server split (see DESIGN.md Open Question decisions).
func fromStoreSnapshot(path string) ([]schema.TypeDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading store snapshot: %w", err)
	}

	var nodes []*store.Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("parsing store snapshot: %w", err)
	}

	st := store.New()
	for _, n := range nodes {
		st.Set(n)
	}

	return schema.InferFromStore(st, schema.LiveStoreOptions{}), nil
}
