package actions

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/udlcore/udl/internal/store"
)

// digestable is the canonical serialization shape for I3: everything
// user-visible about a node, excluding CreatedAt, ModifiedAt,
// ContentDigest, and Children. encoding/json sorts map keys, which is
// what makes this serialization stable across runs.
type digestable struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"type"`
	Owner  string                 `json:"owner"`
	Parent string                 `json:"parent,omitempty"`
	Fields map[string]interface{} `json:"fields"`
}

// ContentDigest computes the hex SHA-256 of n's canonical serialization,
// per spec I3.
func ContentDigest(n *store.Node) (string, error) {
	d := digestable{
		ID:     n.Internal.ID,
		Type:   n.Internal.Type,
		Owner:  n.Internal.Owner,
		Parent: n.Parent,
		Fields: n.Fields,
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
