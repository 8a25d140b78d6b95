// Package view derives each house's fog-of-war projection of the
// shared GameState, spec.md §4.B.3: a pure (GameState, HouseId) ->
// PlayerState construction by deliberate inclusion, never redaction
// of the full state.
package view

import (
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

// Level is a system's visibility tier to a viewing house.
type Level int

const (
	LevelNone Level = iota
	LevelAdjacent
	LevelScouted
	LevelOccupied
	LevelOwned
)

// SystemView is one system as seen by a viewing house.
type SystemView struct {
	ID             ids.SystemId
	Level          Level
	Name           string
	Coords         entity.AxialCoord
	PlanetClass    entity.PlanetClass
	ResourceRating entity.ResourceRating
	HostileOwner   *ids.HouseId
	ApproxStrength float64
	ScoutedTurn    uint32
}

// PlayerState is the filtered view of the game handed to one house.
type PlayerState struct {
	HouseID ids.HouseId
	Turn    uint32

	OwnColonies []entity.Colony
	OwnFleets   []entity.Fleet
	OwnShips    []entity.Ship

	Systems map[ids.SystemId]SystemView

	ColonyReports   map[ids.ColonyId]entity.ColonyReport
	StarbaseReports map[ids.KastraId]entity.StarbaseReport
}

// Derive builds viewer's PlayerState from state. Pure: state is read
// only, never mutated.
func Derive(state *entity.GameState, viewer ids.HouseId, cfg config.Game) PlayerState {
	ps := PlayerState{
		HouseID: viewer,
		Turn:    state.Turn,
		Systems: make(map[ids.SystemId]SystemView),
	}

	occupied := map[ids.SystemId]bool{}
	state.Fleets.All(func(_ ids.FleetId, f entity.Fleet) bool {
		if f.HouseID == viewer {
			ps.OwnFleets = append(ps.OwnFleets, f)
			occupied[f.Location] = true
		}
		return true
	})
	state.Ships.All(func(_ ids.ShipId, s entity.Ship) bool {
		if s.HouseID == viewer {
			ps.OwnShips = append(ps.OwnShips, s)
		}
		return true
	})
	ownedSystems := map[ids.SystemId]bool{}
	state.Colonies.All(func(_ ids.ColonyId, c entity.Colony) bool {
		if c.Owner == viewer {
			ps.OwnColonies = append(ps.OwnColonies, c)
			ownedSystems[c.SystemID] = true
		}
		return true
	})

	intel := state.Intel[viewer]

	visible := map[ids.SystemId]bool{}
	for sysID := range occupied {
		visible[sysID] = true
	}
	for sysID := range ownedSystems {
		visible[sysID] = true
	}

	for _, sysID := range state.Systems.Ids() {
		lvl := levelFor(sysID, occupied, ownedSystems)
		if lvl == LevelOwned || lvl == LevelOccupied {
			ps.Systems[sysID] = buildOccupiedOrOwnedView(state, sysID, lvl, viewer)
			continue
		}
		if intel != nil {
			if rep, ok := intel.SystemReports[sysID]; ok && state.Turn-rep.GatheredTurn <= uint32(cfg.Limits.ScoutStaleTurns) {
				ps.Systems[sysID] = buildScoutedView(state, sysID, rep)
				visible[sysID] = true
				continue
			}
		}
	}

	for sysID := range visible {
		for _, lane := range state.Starmap.Neighbors(sysID) {
			if _, already := ps.Systems[lane.To]; already {
				continue
			}
			ps.Systems[lane.To] = buildAdjacentView(state, lane.To)
		}
	}

	for _, sysID := range state.Systems.Ids() {
		if _, already := ps.Systems[sysID]; already {
			continue
		}
		ps.Systems[sysID] = SystemView{ID: sysID, Level: LevelNone}
	}

	if intel != nil {
		ps.ColonyReports = intel.ColonyReports
		ps.StarbaseReports = intel.StarbaseReports
	}

	return ps
}

func levelFor(sysID ids.SystemId, occupied, owned map[ids.SystemId]bool) Level {
	switch {
	case owned[sysID]:
		return LevelOwned
	case occupied[sysID]:
		return LevelOccupied
	default:
		return LevelNone
	}
}

func buildOccupiedOrOwnedView(state *entity.GameState, sysID ids.SystemId, lvl Level, viewer ids.HouseId) SystemView {
	sys, _ := state.Systems.Get(sysID)
	v := SystemView{
		ID:             sysID,
		Level:          lvl,
		Name:           sys.Name,
		Coords:         sys.Coords,
		PlanetClass:    sys.PlanetClass,
		ResourceRating: sys.ResourceRating,
	}
	if lvl == LevelOwned {
		return v
	}
	var strength float64
	var hostileOwner *ids.HouseId
	for _, fid := range state.FleetsBySystem.Get(sysID) {
		f, ok := state.Fleets.Get(fid)
		if !ok || f.HouseID == viewer {
			continue
		}
		for _, sid := range f.Ships {
			if s, ok := state.Ships.Get(sid); ok {
				strength += float64(s.Stats.AS)
			}
		}
		h := f.HouseID
		hostileOwner = &h
	}
	for _, cid := range state.ColonyBySystem.Get(sysID) {
		if c, ok := state.Colonies.Get(cid); ok && c.Owner != viewer {
			h := c.Owner
			hostileOwner = &h
		}
	}
	v.ApproxStrength = strength
	v.HostileOwner = hostileOwner
	return v
}

func buildScoutedView(state *entity.GameState, sysID ids.SystemId, rep entity.SystemReport) SystemView {
	sys, _ := state.Systems.Get(sysID)
	var hostileOwner *ids.HouseId
	if rep.OccupyingHouseID != ids.Unassigned {
		h := rep.OccupyingHouseID
		hostileOwner = &h
	}
	return SystemView{
		ID:             sysID,
		Level:          LevelScouted,
		Name:           sys.Name,
		Coords:         sys.Coords,
		PlanetClass:    sys.PlanetClass,
		ResourceRating: sys.ResourceRating,
		HostileOwner:   hostileOwner,
		ApproxStrength: rep.ApproxStrength,
		ScoutedTurn:    rep.GatheredTurn,
	}
}

func buildAdjacentView(state *entity.GameState, sysID ids.SystemId) SystemView {
	sys, _ := state.Systems.Get(sysID)
	return SystemView{
		ID:     sysID,
		Level:  LevelAdjacent,
		Name:   sys.Name,
		Coords: sys.Coords,
	}
}
