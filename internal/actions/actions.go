package actions

import (
	"github.com/udlcore/udl/internal/events"
	"github.com/udlcore/udl/internal/store"
	"github.com/udlcore/udl/internal/xerrors"
)

// Input is the wire shape accepted by CreateNode: internal identity plus
// arbitrary fields. Parent and ContentDigest are optional.
type Input struct {
	Internal struct {
		ID            string `json:"id"`
		Type          string `json:"type"`
		Owner         string `json:"owner"`
		ContentDigest string `json:"contentDigest"`
		CreatedAt     int64  `json:"createdAt"`
		ModifiedAt    int64  `json:"modifiedAt"`
	} `json:"internal"`
	Parent string                 `json:"parent,omitempty"`
	Fields map[string]interface{} `json:"fields"`
}

// CreateNode implements spec §4.2's createNode. It upserts — a second call
// with the same id updates the existing node rather than erroring.
func CreateNode(input Input, ctx *Context) (*store.Node, error) {
	if input.Internal.ID == "" || input.Internal.Type == "" {
		return nil, xerrors.WithDetail(xerrors.InvalidInput, "internal.id and internal.type are required")
	}

	owner := input.Internal.Owner
	if ctx.Owner != "" {
		owner = ctx.Owner
	}

	n := &store.Node{
		Internal: store.Internal{
			ID:    input.Internal.ID,
			Type:  input.Internal.Type,
			Owner: owner,
		},
		Parent: input.Parent,
		Fields: input.Fields,
	}

	digest := input.Internal.ContentDigest
	if digest == "" {
		d, err := ContentDigest(n)
		if err != nil {
			return nil, xerrors.Wrap(err, "computing content digest")
		}
		digest = d
	}
	n.Internal.ContentDigest = digest

	existing := ctx.Store.Get(input.Internal.ID)

	now := ctx.now().UnixMilli()
	switch {
	case existing != nil:
		n.Internal.CreatedAt = existing.Internal.CreatedAt
	case input.Internal.CreatedAt != 0:
		n.Internal.CreatedAt = input.Internal.CreatedAt
	default:
		n.Internal.CreatedAt = now
	}
	if input.Internal.CreatedAt != 0 && input.Internal.ModifiedAt != 0 {
		n.Internal.ModifiedAt = input.Internal.ModifiedAt
	} else {
		n.Internal.ModifiedAt = now
	}

	n.Children = nil
	if existing != nil {
		n.Children = existing.Children
	}

	previousParent := ""
	if existing != nil {
		previousParent = existing.Parent
	}
	if n.Parent != previousParent {
		if previousParent != "" {
			if old := ctx.Store.Get(previousParent); old != nil {
				old.RemoveChild(n.Internal.ID)
				ctx.Store.Set(old)
			}
		}
		if n.Parent != "" {
			if parentNode := ctx.Store.Get(n.Parent); parentNode != nil {
				if !parentNode.HasChild(n.Internal.ID) {
					parentNode.Children = append(parentNode.Children, n.Internal.ID)
					ctx.Store.Set(parentNode)
				}
			}
		}
	}

	ctx.Store.Set(n)

	kind := events.Updated
	if existing == nil {
		kind = events.Created
	}
	ctx.publish(kind, n.Internal.ID, n.Internal.Type, n)

	return ctx.Store.Get(n.Internal.ID), nil
}

// DeleteInput carries the id of a node to delete. DeleteNode itself takes
// the bare id string; it does not accept a DeleteInput, a node, or a
// node fragment.
type DeleteInput struct {
	ID string
}

// DeleteNode implements spec §4.2's deleteNode. cascade governs whether
// children are recursively deleted (true) or merely orphaned (false); the
// spec notes true is the conventional default at call sites.
func DeleteNode(id string, cascade bool, ctx *Context) (bool, error) {
	if id == "" {
		return false, xerrors.WithDetail(xerrors.InvalidInput, "id is required")
	}

	n := ctx.Store.Get(id)
	if n == nil {
		return false, nil
	}

	if cascade {
		for _, childID := range n.Children {
			if _, err := DeleteNode(childID, true, ctx); err != nil {
				return false, err
			}
		}
	} else {
		for _, childID := range n.Children {
			child := ctx.Store.Get(childID)
			if child == nil {
				continue
			}
			child.Parent = ""
			ctx.Store.Set(child)
		}
	}

	if n.Parent != "" {
		if parent := ctx.Store.Get(n.Parent); parent != nil {
			parent.RemoveChild(id)
			ctx.Store.Set(parent)
		}
	}

	ctx.Store.Delete(id)

	if ctx.DeletionLog != nil {
		ctx.DeletionLog.Append(id, n.Internal.Type, n.Internal.Owner, ctx.now())
	}

	ctx.publish(events.Deleted, id, n.Internal.Type, nil)

	return true, nil
}

// ExtendNode implements spec §4.2's extendNode: a shallow merge of patch
// into the node's fields, excluding internal, parent, and children.
func ExtendNode(id string, patch map[string]interface{}, ctx *Context) (*store.Node, error) {
	n := ctx.Store.Get(id)
	if n == nil {
		return nil, xerrors.Wrapf(xerrors.NotFound, "node %q", id)
	}

	if n.Fields == nil {
		n.Fields = make(map[string]interface{}, len(patch))
	}
	for k, v := range patch {
		if k == "internal" || k == "parent" || k == "children" {
			continue
		}
		n.Fields[k] = v
	}

	digest, err := ContentDigest(n)
	if err != nil {
		return nil, xerrors.Wrap(err, "computing content digest")
	}
	n.Internal.ContentDigest = digest
	n.Internal.ModifiedAt = ctx.now().UnixMilli()

	ctx.Store.Set(n)
	ctx.publish(events.Updated, n.Internal.ID, n.Internal.Type, n)

	return ctx.Store.Get(n.Internal.ID), nil
}
