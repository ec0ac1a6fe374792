package schema

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/udlcore/udl/internal/httpclient"
	"github.com/udlcore/udl/internal/xerrors"
)

// defaultIntrospectionClient is the fallback HTTP client for Fetch: an
// introspection endpoint is whatever a project's config names (spec
// §4.11 "--endpoint"), so it gets the same SSRF guards as any other
// externally-configured URL.
var defaultIntrospectionClient = httpclient.NewSaferClient(30 * time.Second)

// introspectionQuery is the standard GraphQL introspection query, deep
// enough to resolve NON_NULL(LIST(NON_NULL(X))) wrapping chains (spec
// §4.8 mode 1).
const introspectionQuery = `
query IntrospectionQuery {
  __schema {
    types {
      name
      kind
      fields {
        name
        type { ...TypeRef }
      }
    }
  }
}
fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
        }
      }
    }
  }
}`

// defaultScalarMap is spec §4.8's named-scalar table.
var defaultScalarMap = map[string]FieldType{
	"ID":      TypeString,
	"String":  TypeString,
	"Int":     TypeNumber,
	"Float":   TypeNumber,
	"Boolean": TypeBoolean,
}

var builtinRoots = map[string]bool{
	"Query":        true,
	"Mutation":     true,
	"Subscription": true,
}

type gqlTypeRef struct {
	Kind   string      `json:"kind"`
	Name   string      `json:"name"`
	OfType *gqlTypeRef `json:"ofType"`
}

type gqlField struct {
	Name string     `json:"name"`
	Type gqlTypeRef `json:"type"`
}

type gqlType struct {
	Name   string     `json:"name"`
	Kind   string     `json:"kind"`
	Fields []gqlField `json:"fields"`
}

type introspectionResponse struct {
	Data struct {
		Schema struct {
			Types []gqlType `json:"types"`
		} `json:"__schema"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type cacheEntry struct {
	defs      []TypeDefinition
	expiresAt time.Time
}

// IntrospectionClient fetches and caches GraphQL schema introspection
// results (spec §4.8 mode 1). The cache is a mutex-guarded map keyed by
// (endpoint, header-hash) with a per-entry TTL, grounded on
// ats/storage/rich_search.go's typeFieldsCache/typeFieldsCacheTime
// RWMutex pattern.
type IntrospectionClient struct {
	HTTPClient *http.Client
	ScalarMap  map[string]FieldType // merged over defaultScalarMap; nil uses defaults only
	TTL        time.Duration        // 0 disables caching

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// ScalarFieldType maps a GraphQL scalar name to a FieldType using the
// same default table Fetch applies when converting introspected fields.
func ScalarFieldType(name string) FieldType {
	if t, ok := defaultScalarMap[name]; ok {
		return t
	}
	return TypeUnknown
}

func (c *IntrospectionClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return defaultIntrospectionClient.Client
}

func (c *IntrospectionClient) scalarMap() map[string]FieldType {
	if len(c.ScalarMap) == 0 {
		return defaultScalarMap
	}
	merged := make(map[string]FieldType, len(defaultScalarMap)+len(c.ScalarMap))
	for k, v := range defaultScalarMap {
		merged[k] = v
	}
	for k, v := range c.ScalarMap {
		merged[k] = v
	}
	return merged
}

func cacheKey(endpoint string, headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(endpoint))
	for _, k := range keys {
		vs := append([]string(nil), headers[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			h.Write([]byte(k))
			h.Write([]byte{0})
			h.Write([]byte(v))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *IntrospectionClient) getCached(key string) ([]TypeDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.defs, true
}

func (c *IntrospectionClient) setCached(key string, defs []TypeDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		c.cache = make(map[string]cacheEntry)
	}
	c.cache[key] = cacheEntry{defs: defs, expiresAt: time.Now().Add(c.TTL)}
}

// ResetCache discards every cached introspection result.
func (c *IntrospectionClient) ResetCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = nil
}

// Fetch runs the introspection query against endpoint, honoring ctx for
// cancellation/timeout, and returns the resulting TypeDefinitions with
// built-in operation roots and `__`-prefixed types stripped.
func (c *IntrospectionClient) Fetch(ctx context.Context, endpoint string, headers http.Header) ([]TypeDefinition, error) {
	key := cacheKey(endpoint, headers)
	if c.TTL > 0 {
		if defs, ok := c.getCached(key); ok {
			return defs, nil
		}
	}

	limit := time.Duration(0)
	if deadline, ok := ctx.Deadline(); ok {
		limit = time.Until(deadline)
	}

	payload, err := json.Marshal(map[string]string{"query": introspectionQuery})
	if err != nil {
		return nil, fmt.Errorf("encode introspection query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, xerrors.Wrapf(xerrors.Timeout, "introspection request to %s exceeded its %s deadline", endpoint, limit)
		}
		return nil, xerrors.Wrapf(xerrors.Transport, "introspection request to %s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, xerrors.Wrapf(xerrors.Transport, "introspection request to %s failed: %s: %s",
			endpoint, resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed introspectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode introspection response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("introspection errors: %s", parsed.Errors[0].Message)
	}

	scalarMap := c.scalarMap()
	defs := make([]TypeDefinition, 0, len(parsed.Data.Schema.Types))
	for _, t := range parsed.Data.Schema.Types {
		if builtinRoots[t.Name] || strings.HasPrefix(t.Name, "__") {
			continue
		}
		defs = append(defs, typeDefinitionFromGQL(t, scalarMap))
	}

	if c.TTL > 0 {
		c.setCached(key, defs)
	}
	return defs, nil
}

func typeDefinitionFromGQL(t gqlType, scalarMap map[string]FieldType) TypeDefinition {
	fields := make(map[string]*Field, len(t.Fields))
	for _, f := range t.Fields {
		field := convertTypeRef(&f.Type, scalarMap)
		field.Name = f.Name
		fields[f.Name] = field
	}
	return TypeDefinition{Name: t.Name, Fields: fields}
}

// convertTypeRef converts one GraphQL type reference into a Field,
// recursively unwrapping NON_NULL and LIST (spec §4.8 mode 1).
func convertTypeRef(ref *gqlTypeRef, scalarMap map[string]FieldType) *Field {
	required := false
	cur := ref
	if cur.Kind == "NON_NULL" {
		required = true
		cur = cur.OfType
	}
	if cur == nil {
		return &Field{Type: TypeUnknown, Required: required}
	}

	switch cur.Kind {
	case "LIST":
		item := convertTypeRef(cur.OfType, scalarMap)
		return &Field{Type: TypeArray, Required: required, ArrayItemType: item}
	case "OBJECT", "INTERFACE", "UNION":
		return &Field{Type: TypeReference, Required: required, ReferenceType: cur.Name}
	case "SCALAR", "ENUM":
		t, ok := scalarMap[cur.Name]
		if !ok {
			t = TypeUnknown
		}
		return &Field{Type: t, Required: required}
	default:
		return &Field{Type: TypeUnknown, Required: required}
	}
}
