package rules

import (
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

// RunAutomation applies spec.md §4.B.4: auto-retreat overrides and
// fallback-route refresh, for every house's fleets. Runs after
// Command (so current orders are known) and before Conflict (so an
// override takes effect the same turn it triggers).
func RunAutomation(state *entity.GameState, cfg config.Game, l *log) {
	for _, fid := range state.Fleets.Ids() {
		fleet, ok := state.Fleets.Get(fid)
		if !ok || fleet.Status != entity.FleetActive {
			continue
		}
		refreshFallbackRoute(state, cfg, &fleet)
		applyAutoRetreat(state, cfg, &fleet, l)
		_ = state.Fleets.Update(fid, fleet)
	}
}

func applyAutoRetreat(state *entity.GameState, cfg config.Game, fleet *entity.Fleet, l *log) {
	policy := fleet.Command.RetreatPolicy
	if policy == entity.RetreatNever {
		return
	}
	own, enemy := localStrengthRatio(state, *fleet)
	if enemy <= 0 {
		return
	}
	ratio := own / enemy
	if ratio >= cfg.Fallback.RetreatThreshold {
		return
	}
	if policy == entity.RetreatMissionsOnly && isCombatCommand(fleet.Command.Type) {
		return
	}
	fleet.Command = entity.FleetCommand{Type: entity.CmdSeekHome, RetreatPolicy: policy}
	e := newEvent(state.Turn, EventOrderAccepted)
	fidCopy := fleet.ID
	e.FleetID = &fidCopy
	e.Description = "auto-retreat triggered, strength ratio below threshold"
	l.emit(e)
}

func isCombatCommand(t entity.FleetCommandType) bool {
	switch t {
	case entity.CmdInvade, entity.CmdBlitz, entity.CmdBombard, entity.CmdBlockade:
		return true
	default:
		return false
	}
}

func localStrengthRatio(state *entity.GameState, fleet entity.Fleet) (own, enemy float64) {
	for _, fid := range state.FleetsBySystem.Get(fleet.Location) {
		f, ok := state.Fleets.Get(fid)
		if !ok || f.Status != entity.FleetActive {
			continue
		}
		strength := fleetStrength(state, f)
		if f.HouseID == fleet.HouseID {
			own += strength
		} else {
			enemy += strength
		}
	}
	return
}

func fleetStrength(state *entity.GameState, f entity.Fleet) float64 {
	var total float64
	for _, sid := range f.Ships {
		if s, ok := state.Ships.Get(sid); ok && s.State != entity.ShipDestroyed {
			total += float64(s.Stats.AS)
		}
	}
	return total
}

// refreshFallbackRoute recomputes fleet's route home if it has none
// or the existing one has expired.
func refreshFallbackRoute(state *entity.GameState, cfg config.Game, fleet *entity.Fleet) {
	if fleet.Fallback != nil && state.Turn < fleet.Fallback.ExpiresAt {
		return
	}
	dest := nearestSafeColony(state, cfg, fleet.HouseID, fleet.Location)
	if dest == ids.Unassigned {
		fleet.Fallback = nil
		return
	}
	path := state.Starmap.ShortestPath(fleet.Location, dest, func(sys ids.SystemId) bool {
		return hasHostileColony(state, sys, fleet.HouseID)
	})
	if path == nil {
		fleet.Fallback = nil
		return
	}
	fleet.Fallback = &entity.FallbackRoute{
		Path:       path,
		ComputedAt: state.Turn,
		ExpiresAt:  state.Turn + cfg.Fallback.RouteExpiryTurns,
	}
}

func hasHostileColony(state *entity.GameState, sys ids.SystemId, viewer ids.HouseId) bool {
	for _, cid := range state.ColonyBySystem.Get(sys) {
		if c, ok := state.Colonies.Get(cid); ok && c.Owner != viewer && isHostile(state, c.Owner, viewer) {
			return true
		}
	}
	return false
}

// nearestSafeColony finds the closest owned colony meeting the
// defensive-rating safety bar (starbase present OR >= N friendly
// fleets), breaking ties by system id for determinism.
func nearestSafeColony(state *entity.GameState, cfg config.Game, houseID ids.HouseId, from ids.SystemId) ids.SystemId {
	var best ids.SystemId
	bestDist := -1
	state.Colonies.All(func(_ ids.ColonyId, c entity.Colony) bool {
		if c.Owner != houseID || !colonyIsSafe(state, cfg, c) {
			return true
		}
		path := state.Starmap.ShortestPath(from, c.SystemID, nil)
		if path == nil {
			return true
		}
		dist := len(path)
		if bestDist == -1 || dist < bestDist || (dist == bestDist && c.SystemID < best) {
			bestDist = dist
			best = c.SystemID
		}
		return true
	})
	return best
}

func colonyIsSafe(state *entity.GameState, cfg config.Game, c entity.Colony) bool {
	for _, kid := range c.KastraIDs {
		if k, ok := state.Kastra.Get(kid); ok && !k.Destroyed {
			return true
		}
	}
	friendly := 0
	for _, fid := range state.FleetsBySystem.Get(c.SystemID) {
		if f, ok := state.Fleets.Get(fid); ok && f.HouseID == c.Owner && f.Status == entity.FleetActive {
			friendly++
		}
	}
	return friendly >= cfg.Fallback.SafeFriendlyFleets
}
