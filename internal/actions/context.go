// Package actions implements createNode, deleteNode, and extendNode: the
// only three operations allowed to mutate a Store (spec §4.2).
package actions

import (
	"time"

	"github.com/udlcore/udl/internal/events"
	"github.com/udlcore/udl/internal/store"
)

// Context supplies the collaborators an action needs: the store to
// mutate, the bus to emit on, and the optional deletion log. Owner, when
// set, overrides any owner on the input node — this is how the webhook
// dispatcher and plugin loader stamp nodes with the producing plugin's
// name regardless of what the source data says.
type Context struct {
	Store       *store.Store
	Bus         *events.Bus
	DeletionLog *store.DeletionLog // optional; nil disables deletion-log entries
	Owner       string             // optional; overrides input.Internal.Owner when non-empty

	// Now is the clock used for CreatedAt/ModifiedAt/DeletedAt. Defaults
	// to time.Now when nil; tests substitute a fixed or stepping clock.
	Now func() time.Time
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) publish(kind events.Kind, nodeID, nodeType string, n *store.Node) {
	if c.Bus == nil {
		return
	}
	c.Bus.Publish(events.Change{
		Type:      kind,
		NodeID:    nodeID,
		NodeType:  nodeType,
		Node:      n,
		Timestamp: c.now(),
	})
}
