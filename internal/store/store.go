// Package store owns the atom arena: every atom and link keyed by ID, with
// a type index and an incoming-link index.
//
// The incoming index is maintained incrementally. Put and Remove cost
// O(len(outgoing)) index work; Incoming(id) costs O(k log k) for k
// referencing links. All and ByType sort by ID, so callers that iterate
// them see a deterministic order.
//
// A Store performs no locking. Callers that share one across goroutines
// must serialize access themselves.
package store

import (
	"github.com/nvandessel/atomspace/internal/models"
)

// View is the read side of a store. Both the live store and the working
// copies used inside a step satisfy it.
type View interface {
	// Get returns a copy of the atom with the given ID.
	Get(id string) (models.Atom, bool)

	// All returns copies of every atom, sorted by ID.
	All() []models.Atom

	// ByType returns copies of every atom of exactly type t, sorted by ID.
	ByType(t models.AtomType) []models.Atom

	// Incoming returns copies of the links whose outgoing set contains id.
	Incoming(id string) []models.Atom

	// Len returns the number of stored atoms.
	Len() int
}

// Batch is a set of updates computed against a snapshot and merged back in
// one commit.
type Batch struct {
	// Puts are inserted or replace the atom with the same ID.
	Puts []models.Atom

	// Removals are deleted after the puts are applied.
	Removals []string
}

// Empty reports whether the batch changes nothing.
func (b Batch) Empty() bool {
	return len(b.Puts) == 0 && len(b.Removals) == 0
}
