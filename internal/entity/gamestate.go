package entity

import (
	"fmt"

	"github.com/ec4x/daemon/internal/ids"
)

// Phase is the current stage within a turn.
type Phase int

const (
	PhaseConflict Phase = iota
	PhaseCommand
	PhaseMaintenance
	PhaseCompleted
)

// GameEvent is an entry in the per-turn event log, spec.md §4.B.2.
type GameEvent struct {
	Turn           uint32
	Type           string
	HouseID        *ids.HouseId
	FleetID        *ids.FleetId
	SystemID       *ids.SystemId
	SourceHouseID  *ids.HouseId
	TargetHouseID  *ids.HouseId
	Action         string
	Success        *bool
	Description    string
	Details        map[string]string
}

// GameMeta is the game-level metadata carried outside the entity stores.
type GameMeta struct {
	ID          string
	Name        string
	Description string
	DeadlineUnix int64
}

// GameState is the root aggregate: the only place mutations are
// committed, per spec.md §3/§4.A.
type GameState struct {
	Turn  uint32
	Phase Phase
	Meta  GameMeta

	Starmap *Starmap

	Houses  *Store[ids.HouseId, House]
	Systems *Store[ids.SystemId, System]

	Colonies       *Store[ids.ColonyId, Colony]
	ColonyBySystem *Multimap[ids.SystemId, ids.ColonyId]

	Fleets        *Store[ids.FleetId, Fleet]
	FleetsBySystem *Multimap[ids.SystemId, ids.FleetId]
	FleetsByHouse  *Multimap[ids.HouseId, ids.FleetId]

	Ships         *Store[ids.ShipId, Ship]
	ShipsByFleet  *Multimap[ids.FleetId, ids.ShipId]
	ShipsByCarrier *Multimap[ids.ShipId, ids.ShipId]
	ShipsByHouse  *Multimap[ids.HouseId, ids.ShipId]

	Squadrons   *Store[ids.SquadronId, Squadron]
	GroundUnits *Store[ids.GroundUnitId, GroundUnit]
	Neoria      *Store[ids.NeoriaId, Neoria]
	Kastra      *Store[ids.KastraId, Kastra]

	Diplomacy *DiplomacyTable

	Intel map[ids.HouseId]*IntelligenceDatabase

	LastTurnEvents []GameEvent

	// Allocators, not serialized as entities but persisted as part of
	// the state blob so ids stay monotonic across restarts.
	Allocators IDAllocators

	// DBPath is runtime-only, never serialized (spec.md §3).
	DBPath string `json:"-"`
}

// IDAllocators bundles one monotonic allocator per namespace.
type IDAllocators struct {
	House      *ids.Allocator
	System     *ids.Allocator
	Fleet      *ids.Allocator
	Ship       *ids.Allocator
	Colony     *ids.Allocator
	Squadron   *ids.Allocator
	Neoria     *ids.Allocator
	Kastra     *ids.Allocator
	GroundUnit *ids.Allocator
}

// NewGameState constructs an empty game rooted at hub.
func NewGameState(gameID string, hub ids.SystemId) *GameState {
	return &GameState{
		Turn:    0,
		Phase:   PhaseMaintenance,
		Meta:    GameMeta{ID: gameID},
		Starmap: NewStarmap(hub),

		Houses:  NewStore[ids.HouseId, House](),
		Systems: NewStore[ids.SystemId, System](),

		Colonies:       NewStore[ids.ColonyId, Colony](),
		ColonyBySystem: NewMultimap[ids.SystemId, ids.ColonyId](),

		Fleets:         NewStore[ids.FleetId, Fleet](),
		FleetsBySystem: NewMultimap[ids.SystemId, ids.FleetId](),
		FleetsByHouse:  NewMultimap[ids.HouseId, ids.FleetId](),

		Ships:          NewStore[ids.ShipId, Ship](),
		ShipsByFleet:   NewMultimap[ids.FleetId, ids.ShipId](),
		ShipsByCarrier: NewMultimap[ids.ShipId, ids.ShipId](),
		ShipsByHouse:   NewMultimap[ids.HouseId, ids.ShipId](),

		Squadrons:   NewStore[ids.SquadronId, Squadron](),
		GroundUnits: NewStore[ids.GroundUnitId, GroundUnit](),
		Neoria:      NewStore[ids.NeoriaId, Neoria](),
		Kastra:      NewStore[ids.KastraId, Kastra](),

		Diplomacy: NewDiplomacyTable(),
		Intel:     make(map[ids.HouseId]*IntelligenceDatabase),

		Allocators: IDAllocators{
			House:      ids.NewAllocator(0),
			System:     ids.NewAllocator(0),
			Fleet:      ids.NewAllocator(0),
			Ship:       ids.NewAllocator(0),
			Colony:     ids.NewAllocator(0),
			Squadron:   ids.NewAllocator(0),
			Neoria:     ids.NewAllocator(0),
			Kastra:     ids.NewAllocator(0),
			GroundUnit: ids.NewAllocator(0),
		},
	}
}

// Clone produces an owned copy for the resolver's pure
// (state, commands) -> (state', events) contract, spec.md §3.
func (g *GameState) Clone() *GameState {
	clone := &GameState{
		Turn:    g.Turn,
		Phase:   g.Phase,
		Meta:    g.Meta,
		Starmap: g.Starmap, // starmap is immutable after world generation

		Houses:  g.Houses.Clone(),
		Systems: g.Systems.Clone(),

		Colonies:       g.Colonies.Clone(),
		ColonyBySystem: g.ColonyBySystem.Clone(),

		Fleets:         g.Fleets.Clone(),
		FleetsBySystem: g.FleetsBySystem.Clone(),
		FleetsByHouse:  g.FleetsByHouse.Clone(),

		Ships:          g.Ships.Clone(),
		ShipsByFleet:   g.ShipsByFleet.Clone(),
		ShipsByCarrier: g.ShipsByCarrier.Clone(),
		ShipsByHouse:   g.ShipsByHouse.Clone(),

		Squadrons:   g.Squadrons.Clone(),
		GroundUnits: g.GroundUnits.Clone(),
		Neoria:      g.Neoria.Clone(),
		Kastra:      g.Kastra.Clone(),

		Diplomacy: g.Diplomacy.Clone(),
		Intel:     cloneIntel(g.Intel),

		LastTurnEvents: append([]GameEvent(nil), g.LastTurnEvents...),
		Allocators:     g.Allocators,
		DBPath:         g.DBPath,
	}
	return clone
}

// --- Entity ops: fleet <-> ship coherence (invariants I2, I5, I8) ---

// AddShipToFleet inserts a ship and atomically updates every affected
// secondary index: Ships primary, ShipsByFleet, ShipsByHouse, and the
// fleet's own Ships slice.
func (g *GameState) AddShipToFleet(fleetID ids.FleetId, ship Ship) error {
	fleet, ok := g.Fleets.Get(fleetID)
	if !ok {
		return fmt.Errorf("entity: AddShipToFleet: fleet %d absent", fleetID)
	}
	if ship.HouseID != fleet.HouseID {
		return fmt.Errorf("entity: AddShipToFleet: ship house %d != fleet house %d (invariant I8)", ship.HouseID, fleet.HouseID)
	}
	ship.FleetID = fleetID
	if err := g.Ships.Add(ship.ID, ship); err != nil {
		return err
	}
	g.ShipsByFleet.Add(fleetID, ship.ID)
	g.ShipsByHouse.Add(ship.HouseID, ship.ID)

	fleet.Ships = append(fleet.Ships, ship.ID)
	return g.Fleets.Update(fleetID, fleet)
}

// RemoveShip destroys a ship symmetrically: every index entry is
// removed before the primary store entry, per spec.md §3's lifecycle.
func (g *GameState) RemoveShip(shipID ids.ShipId) error {
	ship, ok := g.Ships.Get(shipID)
	if !ok {
		return fmt.Errorf("entity: RemoveShip: ship %d absent", shipID)
	}
	if ship.FleetID != ids.Unassigned {
		if fleet, ok := g.Fleets.Get(ship.FleetID); ok {
			fleet.Ships = removeID(fleet.Ships, shipID)
			if err := g.Fleets.Update(ship.FleetID, fleet); err != nil {
				return err
			}
		}
		g.ShipsByFleet.Remove(ship.FleetID, shipID)
	}
	g.ShipsByHouse.Remove(ship.HouseID, shipID)
	if ship.AssignedToCarrier != ids.Unassigned {
		if err := g.DisembarkFighter(shipID); err != nil {
			return err
		}
	}
	return g.Ships.Remove(shipID)
}

// --- Entity ops: carrier <-> fighter coherence (invariant I3) ---

// EmbarkFighter assigns fighter to carrier atomically on both sides.
func (g *GameState) EmbarkFighter(carrierID, fighterID ids.ShipId) error {
	carrier, ok := g.Ships.Get(carrierID)
	if !ok {
		return fmt.Errorf("entity: EmbarkFighter: carrier %d absent", carrierID)
	}
	fighter, ok := g.Ships.Get(fighterID)
	if !ok {
		return fmt.Errorf("entity: EmbarkFighter: fighter %d absent", fighterID)
	}
	fighter.AssignedToCarrier = carrierID
	if err := g.Ships.Update(fighterID, fighter); err != nil {
		return err
	}
	carrier.EmbarkedFighters = append(carrier.EmbarkedFighters, fighterID)
	if err := g.Ships.Update(carrierID, carrier); err != nil {
		return err
	}
	g.ShipsByCarrier.Add(carrierID, fighterID)
	return nil
}

// DisembarkFighter releases a fighter from its carrier, both sides.
func (g *GameState) DisembarkFighter(fighterID ids.ShipId) error {
	fighter, ok := g.Ships.Get(fighterID)
	if !ok {
		return fmt.Errorf("entity: DisembarkFighter: fighter %d absent", fighterID)
	}
	carrierID := fighter.AssignedToCarrier
	if carrierID == ids.Unassigned {
		return nil
	}
	if carrier, ok := g.Ships.Get(carrierID); ok {
		carrier.EmbarkedFighters = removeID(carrier.EmbarkedFighters, fighterID)
		if err := g.Ships.Update(carrierID, carrier); err != nil {
			return err
		}
	}
	g.ShipsByCarrier.Remove(carrierID, fighterID)
	fighter.AssignedToCarrier = ids.Unassigned
	return g.Ships.Update(fighterID, fighter)
}

// --- Entity ops: colony <-> system coherence (invariant I4) ---

// AddColony inserts a colony, rejecting a second colony at the same
// system (invariant I4).
func (g *GameState) AddColony(c Colony) error {
	if existing := g.ColonyBySystem.Get(c.SystemID); len(existing) > 0 {
		return fmt.Errorf("entity: AddColony: system %d already has a colony (invariant I4)", c.SystemID)
	}
	if err := g.Colonies.Add(c.ID, c); err != nil {
		return err
	}
	g.ColonyBySystem.Add(c.SystemID, c.ID)
	return nil
}

// RemoveColony destroys a colony symmetrically.
func (g *GameState) RemoveColony(id ids.ColonyId) error {
	c, ok := g.Colonies.Get(id)
	if !ok {
		return fmt.Errorf("entity: RemoveColony: colony %d absent", id)
	}
	g.ColonyBySystem.Remove(c.SystemID, id)
	return g.Colonies.Remove(id)
}

// --- Entity ops: fleet <-> system/house coherence (invariant I2/I8) ---

// AddFleet inserts a fleet and its system/house secondary indexes.
func (g *GameState) AddFleet(f Fleet) error {
	if err := g.Fleets.Add(f.ID, f); err != nil {
		return err
	}
	g.FleetsBySystem.Add(f.Location, f.ID)
	g.FleetsByHouse.Add(f.HouseID, f.ID)
	return nil
}

// MoveFleet relocates a fleet and reindexes FleetsBySystem atomically.
func (g *GameState) MoveFleet(id ids.FleetId, to ids.SystemId) error {
	f, ok := g.Fleets.Get(id)
	if !ok {
		return fmt.Errorf("entity: MoveFleet: fleet %d absent", id)
	}
	g.FleetsBySystem.Move(f.Location, to, id)
	f.Location = to
	return g.Fleets.Update(id, f)
}

// RemoveFleet destroys a fleet. Ships still assigned to it are kept
// but detached (FleetID set to Unassigned), maintaining invariant I2
// (no orphaned ship.FleetID references).
func (g *GameState) RemoveFleet(id ids.FleetId) error {
	f, ok := g.Fleets.Get(id)
	if !ok {
		return fmt.Errorf("entity: RemoveFleet: fleet %d absent", id)
	}
	for _, shipID := range append([]ids.ShipId(nil), f.Ships...) {
		if ship, ok := g.Ships.Get(shipID); ok {
			ship.FleetID = ids.Unassigned
			if err := g.Ships.Update(shipID, ship); err != nil {
				return err
			}
		}
		g.ShipsByFleet.Remove(id, shipID)
	}
	g.FleetsBySystem.Remove(f.Location, id)
	g.FleetsByHouse.Remove(f.HouseID, id)
	return g.Fleets.Remove(id)
}

// EliminateHouse removes a house's diplomatic entries (invariant I6)
// and marks the house eliminated; it does not touch colonies/fleets,
// which the conflict phase disposes of via its own entity ops.
func (g *GameState) EliminateHouse(h ids.HouseId) error {
	house, ok := g.Houses.Get(h)
	if !ok {
		return fmt.Errorf("entity: EliminateHouse: house %d absent", h)
	}
	house.Status = HouseEliminated
	if err := g.Houses.Update(h, house); err != nil {
		return err
	}
	g.Diplomacy.EliminateHouse(h)
	return nil
}

func cloneIntel(in map[ids.HouseId]*IntelligenceDatabase) map[ids.HouseId]*IntelligenceDatabase {
	out := make(map[ids.HouseId]*IntelligenceDatabase, len(in))
	for h, db := range in {
		out[h] = db.Clone()
	}
	return out
}

// IntelFor returns the house's intelligence database, creating one on
// first access.
func (g *GameState) IntelFor(h ids.HouseId) *IntelligenceDatabase {
	db, ok := g.Intel[h]
	if !ok {
		db = NewIntelligenceDatabase()
		g.Intel[h] = db
	}
	return db
}

// RebuildIndexes regenerates every secondary multimap from the
// primary stores, per spec.md §4.A ("secondary indexes are
// rebuildable from primaries"). Used by internal/persist after
// decoding a state blob, so only primary entity data needs to be
// carried on the wire.
func (g *GameState) RebuildIndexes() {
	g.ColonyBySystem = NewMultimap[ids.SystemId, ids.ColonyId]()
	g.Colonies.All(func(id ids.ColonyId, c Colony) bool {
		g.ColonyBySystem.Add(c.SystemID, id)
		return true
	})

	g.FleetsBySystem = NewMultimap[ids.SystemId, ids.FleetId]()
	g.FleetsByHouse = NewMultimap[ids.HouseId, ids.FleetId]()
	g.Fleets.All(func(id ids.FleetId, f Fleet) bool {
		g.FleetsBySystem.Add(f.Location, id)
		g.FleetsByHouse.Add(f.HouseID, id)
		return true
	})

	g.ShipsByFleet = NewMultimap[ids.FleetId, ids.ShipId]()
	g.ShipsByCarrier = NewMultimap[ids.ShipId, ids.ShipId]()
	g.ShipsByHouse = NewMultimap[ids.HouseId, ids.ShipId]()
	g.Ships.All(func(id ids.ShipId, s Ship) bool {
		if s.FleetID != ids.Unassigned {
			g.ShipsByFleet.Add(s.FleetID, id)
		}
		if s.AssignedToCarrier != ids.Unassigned {
			g.ShipsByCarrier.Add(s.AssignedToCarrier, id)
		}
		g.ShipsByHouse.Add(s.HouseID, id)
		return true
	})
}

func removeID[T comparable](s []T, v T) []T {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
