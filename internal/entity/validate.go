package entity

import (
	"fmt"

	"github.com/ec4x/daemon/internal/ids"
)

// CheckInvariants validates entity-store state: primary-store
// coherence for houses, systems, colonies, fleets and ships, plus
// invariants I2, I8, I3 (checked from the carrier side), I4 and I5.
// It does not check fleet locations against FleetsBySystem, nor the
// squadron, ground-unit, Neoria or Kastra stores. Called by
// rules.Resolve on every resolved turn.
func (g *GameState) CheckInvariants() error {
	if err := g.Houses.CheckCoherence(); err != nil {
		return err
	}
	if err := g.Systems.CheckCoherence(); err != nil {
		return err
	}
	if err := g.Colonies.CheckCoherence(); err != nil {
		return err
	}
	if err := g.Fleets.CheckCoherence(); err != nil {
		return err
	}
	if err := g.Ships.CheckCoherence(); err != nil {
		return err
	}

	// I2: fleet.Ships <-> ShipsByFleet agreement.
	var fleetErr error
	g.Fleets.All(func(fid ids.FleetId, f Fleet) bool {
		indexed := g.ShipsByFleet.Get(fid)
		if len(indexed) != len(f.Ships) {
			fleetErr = fmt.Errorf("entity: fleet %d has %d ships but index has %d (invariant I2)", fid, len(f.Ships), len(indexed))
			return false
		}
		for _, sid := range f.Ships {
			ship, ok := g.Ships.Get(sid)
			if !ok {
				fleetErr = fmt.Errorf("entity: fleet %d references missing ship %d", fid, sid)
				return false
			}
			if ship.FleetID != fid {
				fleetErr = fmt.Errorf("entity: ship %d fleetId %d != owning fleet %d (invariant I2)", sid, ship.FleetID, fid)
				return false
			}
		}
		return true
	})
	if fleetErr != nil {
		return fleetErr
	}

	// I8: every ship in a fleet is owned by the fleet's house.
	var ownerErr error
	g.Fleets.All(func(fid ids.FleetId, f Fleet) bool {
		for _, sid := range f.Ships {
			ship, _ := g.Ships.Get(sid)
			if ship.HouseID != f.HouseID {
				ownerErr = fmt.Errorf("entity: ship %d house %d != fleet %d house %d (invariant I8)", sid, ship.HouseID, fid, f.HouseID)
				return false
			}
		}
		return true
	})
	if ownerErr != nil {
		return ownerErr
	}

	// I3: carrier <-> fighter symmetry.
	var carrierErr error
	g.Ships.All(func(sid ids.ShipId, s Ship) bool {
		for _, fighterID := range s.EmbarkedFighters {
			fighter, ok := g.Ships.Get(fighterID)
			if !ok || fighter.AssignedToCarrier != sid {
				carrierErr = fmt.Errorf("entity: carrier %d embarked list disagrees with fighter %d (invariant I3)", sid, fighterID)
				return false
			}
		}
		return true
	})
	if carrierErr != nil {
		return carrierErr
	}

	// I4: at most one colony per system.
	var colonyErr error
	seen := make(map[uint32]bool)
	g.Colonies.All(func(_ ids.ColonyId, c Colony) bool {
		key := uint32(c.SystemID)
		if seen[key] {
			colonyErr = fmt.Errorf("entity: system %d has multiple colonies (invariant I4)", c.SystemID)
			return false
		}
		seen[key] = true
		return true
	})
	if colonyErr != nil {
		return colonyErr
	}

	// I5: ships.byHouse agreement.
	var houseErr error
	g.Houses.All(func(hid ids.HouseId, _ House) bool {
		indexed := g.ShipsByHouse.Get(hid)
		seenShips := make(map[ids.ShipId]bool)
		for _, sid := range indexed {
			seenShips[sid] = true
		}
		var actual int
		g.Ships.All(func(sid ids.ShipId, s Ship) bool {
			if s.HouseID == hid {
				actual++
				if !seenShips[sid] {
					houseErr = fmt.Errorf("entity: ship %d owned by house %d missing from ShipsByHouse index (invariant I5)", sid, hid)
					return false
				}
			}
			return true
		})
		if houseErr != nil {
			return false
		}
		if actual != len(indexed) {
			houseErr = fmt.Errorf("entity: house %d index has %d ships but %d actually owned (invariant I5)", hid, len(indexed), actual)
			return false
		}
		return true
	})
	return houseErr
}
