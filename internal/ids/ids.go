// Package ids defines the disjoint 32-bit identifier namespaces used
// throughout a game's entity graph. Zero is always the "unassigned"
// sentinel; ids are allocated monotonically per game and never reused.
package ids

// HouseId identifies a player faction.
type HouseId uint32

// SystemId identifies a starmap system.
type SystemId uint32

// FleetId identifies a fleet.
type FleetId uint32

// ShipId identifies a ship.
type ShipId uint32

// ColonyId identifies a colony.
type ColonyId uint32

// SquadronId identifies a docked fighter squadron.
type SquadronId uint32

// NeoriaId identifies a spaceport/shipyard/drydock facility.
type NeoriaId uint32

// KastraId identifies a starbase.
type KastraId uint32

// GroundUnitId identifies a marine/army/ground-battery unit.
type GroundUnitId uint32

// Unassigned is the sentinel value shared by every namespace.
const Unassigned = 0

// Allocator hands out monotonically increasing ids for a single
// namespace within a game. Never reuses a value, even across deletes.
type Allocator struct {
	next uint32
}

// NewAllocator starts an allocator after the given high-water mark
// (used when resuming a game loaded from persistence).
func NewAllocator(highWaterMark uint32) *Allocator {
	return &Allocator{next: highWaterMark}
}

// Next returns the next id, starting from 1 (0 is reserved).
func (a *Allocator) Next() uint32 {
	a.next++
	return a.next
}

// Peek returns the id that Next would return, without consuming it.
func (a *Allocator) Peek() uint32 {
	return a.next + 1
}

// HighWaterMark returns the last id handed out, for persisting an
// allocator's state across restarts (NewAllocator resumes from it).
func (a *Allocator) HighWaterMark() uint32 {
	return a.next
}
