// Package orgtree holds the read-only tree algorithms of the org chart:
// the cycle guard used before reparenting, and the view helpers that turn
// the flat node list into something a hierarchical chart can render.
//
// Nothing here writes to storage. Every walk is iterative and bounded by
// MaxDepth so a corrupted parent chain cannot hang a request.
package orgtree

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxDepth bounds every ancestor walk. Walks that do not terminate within
// this many hops are treated as cycles.
const MaxDepth = 256

// ErrCycleDetected is returned when a reparent would make a node its own ancestor.
var ErrCycleDetected = errors.New("CYCLE_DETECTED")

// ParentLookup resolves the parent of a node by id. found is false when
// the node does not exist.
type ParentLookup interface {
	ParentOf(ctx context.Context, id primitive.ObjectID) (parent *primitive.ObjectID, found bool, err error)
}

// AssertNoCycle rejects assigning candidateParentID as the parent of nodeID
// when nodeID is candidateParentID itself or one of its ancestors.
//
// A nil candidate (becoming a root) is always accepted. A missing ancestor
// ends the walk; parent existence is checked by the caller beforehand.
func AssertNoCycle(ctx context.Context, lookup ParentLookup, candidateParentID *primitive.ObjectID, nodeID primitive.ObjectID) error {
	if candidateParentID == nil {
		return nil
	}
	if *candidateParentID == nodeID {
		return ErrCycleDetected
	}

	current := candidateParentID
	for hops := 0; current != nil; hops++ {
		if hops > MaxDepth {
			return ErrCycleDetected
		}
		if *current == nodeID {
			return ErrCycleDetected
		}
		parent, found, err := lookup.ParentOf(ctx, *current)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		current = parent
	}
	return nil
}

// MapLookup is a ParentLookup over an in-memory id→parent map.
type MapLookup map[primitive.ObjectID]*primitive.ObjectID

// ParentOf implements ParentLookup.
func (m MapLookup) ParentOf(_ context.Context, id primitive.ObjectID) (*primitive.ObjectID, bool, error) {
	parent, ok := m[id]
	return parent, ok, nil
}
