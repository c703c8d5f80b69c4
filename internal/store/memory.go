package store

import (
	"fmt"
	"sort"

	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/typesys"
)

// Store is the in-memory atom arena.
type Store struct {
	hierarchy  *typesys.Hierarchy
	validator  *typesys.Validator
	atoms      map[string]models.Atom
	identities map[string]string
	byType     map[models.AtomType]map[string]struct{}
	incoming   map[string]map[string]struct{}
	violations int
}

// New creates an empty store validating against h.
func New(h *typesys.Hierarchy) *Store {
	return &Store{
		hierarchy:  h,
		validator:  typesys.NewValidator(h),
		atoms:      make(map[string]models.Atom),
		identities: make(map[string]string),
		byType:     make(map[models.AtomType]map[string]struct{}),
		incoming:   make(map[string]map[string]struct{}),
	}
}

// Hierarchy returns the type lattice the store validates against.
func (s *Store) Hierarchy() *typesys.Hierarchy {
	return s.hierarchy
}

// Len returns the number of stored atoms.
func (s *Store) Len() int {
	return len(s.atoms)
}

// Violations returns how many out-of-range truth values were clamped on the
// way in.
func (s *Store) Violations() int {
	return s.violations
}

// Get returns a copy of the atom with the given ID.
func (s *Store) Get(id string) (models.Atom, bool) {
	a, ok := s.atoms[id]
	if !ok {
		return models.Atom{}, false
	}
	return a.Clone(), true
}

// Has reports whether id is stored.
func (s *Store) Has(id string) bool {
	_, ok := s.atoms[id]
	return ok
}

// Lookup finds an atom by identity rather than by ID.
func (s *Store) Lookup(t models.AtomType, name string, outgoing []string) (models.Atom, bool) {
	id, ok := s.identities[models.IdentityKey(t, name, outgoing)]
	if !ok {
		return models.Atom{}, false
	}
	return s.Get(id)
}

// All returns copies of every atom, sorted by ID.
func (s *Store) All() []models.Atom {
	out := make([]models.Atom, 0, len(s.atoms))
	for _, a := range s.atoms {
		out = append(out, a.Clone())
	}
	sortByID(out)
	return out
}

// ByType returns copies of every atom of exactly type t, sorted by ID.
func (s *Store) ByType(t models.AtomType) []models.Atom {
	return s.collect(s.byType[t])
}

// Incoming returns the links whose outgoing set contains id, sorted by ID.
func (s *Store) Incoming(id string) []models.Atom {
	return s.collect(s.incoming[id])
}

func (s *Store) collect(ids map[string]struct{}) []models.Atom {
	out := make([]models.Atom, 0, len(ids))
	for id := range ids {
		out = append(out, s.atoms[id].Clone())
	}
	sortByID(out)
	return out
}

// AddNode stores a node, or returns the ID of the existing node with the
// same type and name. New nodes join the attention economy with zero
// importance.
func (s *Store) AddNode(t models.AtomType, name string, tv *models.TruthValue) (string, error) {
	if existing, ok := s.identities[models.IdentityKey(t, name, nil)]; ok {
		return existing, nil
	}
	return s.Put(models.Atom{
		Type:      t,
		Name:      name,
		Truth:     tv,
		Attention: &models.AttentionValue{},
	})
}

// AddLink stores a link, or returns the ID of the existing link with the
// same type and outgoing set.
func (s *Store) AddLink(t models.AtomType, outgoing []string, tv *models.TruthValue) (string, error) {
	if existing, ok := s.identities[models.IdentityKey(t, "", outgoing)]; ok {
		return existing, nil
	}
	a := models.Atom{
		Type:     t,
		Outgoing: append([]string(nil), outgoing...),
		Truth:    tv,
	}
	if t != models.HebbianLink {
		a.Attention = &models.AttentionValue{}
	}
	return s.Put(a)
}

// Put inserts an atom or replaces the atom with the same ID. An empty ID is
// derived from the atom's identity; if that identity is already stored the
// existing atom is replaced. Truth values outside [0, 1] are clamped and
// counted as violations.
func (s *Store) Put(a models.Atom) (string, error) {
	a = a.Clone()
	if err := s.check(a); err != nil {
		return "", err
	}
	key := models.IdentityKey(a.Type, a.Name, a.Outgoing)
	if a.ID == "" {
		if existing, ok := s.identities[key]; ok {
			a.ID = existing
		} else {
			a.ID = key
		}
	}
	if owner, ok := s.identities[key]; ok && owner != a.ID {
		return "", models.Structuralf("put", a.ID, "duplicates existing atom %s", owner)
	}
	if err := s.checkOutgoing(a, nil, nil); err != nil {
		return "", err
	}
	s.put(a)
	return a.ID, nil
}

// Remove deletes an atom. Atoms still referenced by a link cannot be removed.
func (s *Store) Remove(id string) error {
	if _, ok := s.atoms[id]; !ok {
		return fmt.Errorf("atom not found: %s", id)
	}
	if n := len(s.incoming[id]); n > 0 {
		return models.Structuralf("remove", id, "still referenced by %d links", n)
	}
	s.remove(id)
	return nil
}

// Apply commits a batch atomically: every put and removal is checked against
// the post-batch state first, and nothing changes if any check fails.
func (s *Store) Apply(b Batch) error {
	pending := make(map[string]models.Atom, len(b.Puts))
	for i, a := range b.Puts {
		if a.ID == "" {
			return models.Structuralf("apply", "", "batch put %d has no ID", i)
		}
		a = a.Clone()
		if err := s.check(a); err != nil {
			return err
		}
		pending[a.ID] = a
	}
	removed := make(map[string]bool, len(b.Removals))
	for _, id := range b.Removals {
		removed[id] = true
	}

	for _, a := range pending {
		if removed[a.ID] {
			continue
		}
		key := models.IdentityKey(a.Type, a.Name, a.Outgoing)
		if owner, ok := s.identities[key]; ok && owner != a.ID && !removed[owner] && !renamed(pending, owner, key) {
			return models.Structuralf("apply", a.ID, "duplicates existing atom %s", owner)
		}
		if err := s.checkOutgoing(a, pending, removed); err != nil {
			return err
		}
	}
	for id := range removed {
		for linkID := range s.incoming[id] {
			if removed[linkID] {
				continue
			}
			if p, ok := pending[linkID]; ok && !contains(p.Outgoing, id) {
				continue
			}
			return models.Structuralf("apply", id, "removal leaves link %s dangling", linkID)
		}
	}

	for _, a := range b.Puts {
		s.put(pending[a.ID])
	}
	for _, id := range b.Removals {
		if _, ok := s.atoms[id]; ok {
			s.remove(id)
		}
	}
	return nil
}

// Clone returns an independent deep copy. Steps compute against a clone and
// merge their batches back into the original.
func (s *Store) Clone() *Store {
	c := New(s.hierarchy)
	c.violations = s.violations
	for id, a := range s.atoms {
		c.atoms[id] = a.Clone()
	}
	for k, v := range s.identities {
		c.identities[k] = v
	}
	for t, ids := range s.byType {
		c.byType[t] = copySet(ids)
	}
	for id, links := range s.incoming {
		c.incoming[id] = copySet(links)
	}
	return c
}

// check validates everything about a that does not depend on other atoms
// except the types of its outgoing set.
func (s *Store) check(a models.Atom) error {
	if s.hierarchy.IsLinkType(a.Type) && a.Name != "" {
		return models.Structuralf("put", a.ID, "links cannot be named")
	}
	if !s.hierarchy.IsLinkType(a.Type) && a.Name == "" && s.hierarchy.Known(a.Type) {
		return models.Structuralf("put", a.ID, "%s requires a name", a.Type)
	}
	if a.Truth != nil && !a.Truth.InRange() {
		*a.Truth = a.Truth.Clamped()
		s.violations++
	}
	if !s.hierarchy.IsLinkType(a.Type) {
		if err := s.validator.CheckStorable(a.Type, nil); err != nil {
			return models.Structuralf("put", a.ID, "%v", err)
		}
		if len(a.Outgoing) > 0 {
			return models.Structuralf("put", a.ID, "%s is a node and cannot have outgoing atoms", a.Type)
		}
	}
	return nil
}

// checkOutgoing verifies that every outgoing ID resolves, then validates the
// link signature against the resolved types.
func (s *Store) checkOutgoing(a models.Atom, pending map[string]models.Atom, removed map[string]bool) error {
	if !s.hierarchy.IsLinkType(a.Type) {
		return nil
	}
	types := make([]models.AtomType, len(a.Outgoing))
	for i, id := range a.Outgoing {
		if removed[id] {
			return models.Structuralf("put", a.ID, "outgoing %s is being removed", id)
		}
		target, ok := pending[id]
		if !ok {
			target, ok = s.atoms[id]
		}
		if !ok && id == a.ID {
			target, ok = a, true
		}
		if !ok {
			return models.Structuralf("put", a.ID, "outgoing %s does not resolve", id)
		}
		types[i] = target.Type
	}
	if err := s.validator.CheckStorable(a.Type, types); err != nil {
		return models.Structuralf("put", a.ID, "%v", err)
	}
	return nil
}

func (s *Store) put(a models.Atom) {
	if old, ok := s.atoms[a.ID]; ok {
		s.unindex(old)
	}
	s.atoms[a.ID] = a
	s.identities[models.IdentityKey(a.Type, a.Name, a.Outgoing)] = a.ID
	addToSet(s.byType, a.Type, a.ID)
	for _, target := range a.Outgoing {
		addToSet(s.incoming, target, a.ID)
	}
}

func (s *Store) remove(id string) {
	a := s.atoms[id]
	s.unindex(a)
	delete(s.atoms, id)
	delete(s.incoming, id)
}

func (s *Store) unindex(a models.Atom) {
	key := models.IdentityKey(a.Type, a.Name, a.Outgoing)
	if s.identities[key] == a.ID {
		delete(s.identities, key)
	}
	removeFromSet(s.byType, a.Type, a.ID)
	for _, target := range a.Outgoing {
		removeFromSet(s.incoming, target, a.ID)
	}
}

func addToSet[K comparable](index map[K]map[string]struct{}, key K, id string) {
	set, ok := index[key]
	if !ok {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[id] = struct{}{}
}

func removeFromSet[K comparable](index map[K]map[string]struct{}, key K, id string) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(index, key)
	}
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

// renamed reports whether the batch gives owner a different identity.
func renamed(pending map[string]models.Atom, owner, key string) bool {
	p, ok := pending[owner]
	return ok && models.IdentityKey(p.Type, p.Name, p.Outgoing) != key
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func sortByID(atoms []models.Atom) {
	sort.Slice(atoms, func(i, j int) bool { return atoms[i].ID < atoms[j].ID })
}
