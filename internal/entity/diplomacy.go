package entity

import "github.com/ec4x/daemon/internal/ids"

// RelationState is the diplomatic posture between two houses.
type RelationState int

const (
	RelationNeutral RelationState = iota
	RelationHostile
	RelationEnemy
)

// RelationKey canonicalizes an unordered (HouseId, HouseId) pair so
// there is exactly one entry per pair regardless of lookup order,
// mirroring galaxyCore/diplomacy/state.go's canonical pair key.
type RelationKey struct {
	A, B ids.HouseId
}

// NewRelationKey builds a canonical key for houses a and b.
func NewRelationKey(a, b ids.HouseId) RelationKey {
	if a <= b {
		return RelationKey{A: a, B: b}
	}
	return RelationKey{A: b, B: a}
}

// Relation is the per-pair diplomatic state, spec.md §3.
type Relation struct {
	State      RelationState
	SinceTurn  uint32
	Violations int
}

// DiplomacyTable holds every active pairwise relation plus each
// house's violation history.
type DiplomacyTable struct {
	Relations         map[RelationKey]Relation
	ViolationHistory  map[ids.HouseId][]string
}

// NewDiplomacyTable constructs an empty table.
func NewDiplomacyTable() *DiplomacyTable {
	return &DiplomacyTable{
		Relations:        make(map[RelationKey]Relation),
		ViolationHistory: make(map[ids.HouseId][]string),
	}
}

// Get returns the relation between a and b, defaulting to Neutral.
func (d *DiplomacyTable) Get(a, b ids.HouseId) Relation {
	r, ok := d.Relations[NewRelationKey(a, b)]
	if !ok {
		return Relation{State: RelationNeutral}
	}
	return r
}

// Set stores the relation between a and b.
func (d *DiplomacyTable) Set(a, b ids.HouseId, r Relation) {
	d.Relations[NewRelationKey(a, b)] = r
}

// EliminateHouse removes every relation entry and violation history
// involving house h, per invariant I6.
func (d *DiplomacyTable) EliminateHouse(h ids.HouseId) {
	for k := range d.Relations {
		if k.A == h || k.B == h {
			delete(d.Relations, k)
		}
	}
	delete(d.ViolationHistory, h)
}

// Clone deep-copies the table for the resolver's owned-input/owned-
// output contract.
func (d *DiplomacyTable) Clone() *DiplomacyTable {
	clone := NewDiplomacyTable()
	for k, v := range d.Relations {
		clone.Relations[k] = v
	}
	for h, hist := range d.ViolationHistory {
		cp := make([]string, len(hist))
		copy(cp, hist)
		clone.ViolationHistory[h] = cp
	}
	return clone
}
