package rules

import (
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

// prestigeSource binds one event type to a configured delta and the
// event field naming the house to credit, spec.md §4.B.1's "18
// sources" table (config.PrestigeConfig.Deltas).
type prestigeSource struct {
	eventType string
	deltaKey  string
	field     func(entity.GameEvent) *ids.HouseId
}

var prestigeSources = []prestigeSource{
	{EventMaintenanceResearch, "tech_advance", func(e entity.GameEvent) *ids.HouseId { return e.HouseID }},
	{EventColonyFounded, "colonize", func(e entity.GameEvent) *ids.HouseId { return e.HouseID }},
	{EventColonyInvaded, "invasion_success", func(e entity.GameEvent) *ids.HouseId { return e.SourceHouseID }},
	{EventColonyInvaded, "colony_lost", func(e entity.GameEvent) *ids.HouseId { return e.TargetHouseID }},
	{EventInvasionFailed, "invasion_failure", func(e entity.GameEvent) *ids.HouseId { return e.SourceHouseID }},
	{EventStarbaseDestroyed, "starbase_destroyed", func(e entity.GameEvent) *ids.HouseId { return e.HouseID }},
	{EventShipsDestroyed, "combat_victory", func(e entity.GameEvent) *ids.HouseId { return e.SourceHouseID }},
	{EventShipsDestroyed, "combat_defeat", func(e entity.GameEvent) *ids.HouseId { return e.TargetHouseID }},
	{EventColonyBlockaded, "blockade_imposed", func(e entity.GameEvent) *ids.HouseId { return e.SourceHouseID }},
	{EventColonyBlockaded, "colony_undefended", func(e entity.GameEvent) *ids.HouseId { return e.HouseID }},
	{EventDiplomaticViolation, "pact_violation", func(e entity.GameEvent) *ids.HouseId { return e.SourceHouseID }},
	{EventEspionageSucceeded, "espionage_success", func(e entity.GameEvent) *ids.HouseId { return e.SourceHouseID }},
	{EventEspionageDetected, "espionage_caught", func(e entity.GameEvent) *ids.HouseId { return e.SourceHouseID }},
	{EventMaintenanceShortfall, "shortfall_penalty", func(e entity.GameEvent) *ids.HouseId { return e.HouseID }},
	{EventHouseEliminated, "house_eliminated", func(e entity.GameEvent) *ids.HouseId { return e.SourceHouseID }},
}

// ApplyPrestige folds the turn's event log into per-house prestige
// deltas, then advances each house's victory-progress streak and
// emits prestigeVictory for any house that reaches three consecutive
// turns at or above the configured threshold.
func ApplyPrestige(state *entity.GameState, cfg config.Game, events []entity.GameEvent, l *log) {
	for _, e := range events {
		for _, src := range prestigeSources {
			if src.eventType != e.Type {
				continue
			}
			hid := src.field(e)
			if hid == nil {
				continue
			}
			delta := cfg.Prestige.Deltas[src.deltaKey]
			addPrestige(state, *hid, delta)
		}
	}
	checkPrestigeVictory(state, cfg, l)
}

func addPrestige(state *entity.GameState, hid ids.HouseId, delta int64) {
	h, ok := state.Houses.Get(hid)
	if !ok {
		return
	}
	h.Prestige += delta
	if h.Prestige < 0 {
		h.NegativePrestigeTurns++
	} else {
		h.NegativePrestigeTurns = 0
	}
	_ = state.Houses.Update(hid, h)
}

func checkPrestigeVictory(state *entity.GameState, cfg config.Game, l *log) {
	state.Houses.All(func(hid ids.HouseId, h entity.House) bool {
		if h.Status != entity.HouseActive {
			return true
		}
		if h.Prestige >= cfg.Prestige.VictoryThreshold {
			h.PrestigeVictoryStreak++
		} else {
			h.PrestigeVictoryStreak = 0
		}
		_ = state.Houses.Update(hid, h)
		if h.PrestigeVictoryStreak >= cfg.Prestige.VictoryStreakTurns {
			e := newEvent(state.Turn, EventPrestigeVictory)
			hidCopy := hid
			e.HouseID = &hidCopy
			l.emit(e)
		}
		return true
	})
}

// CheckEliminationVictory reports whether all but one Active house
// has been eliminated, spec.md B2; the surviving house id is returned
// with ok=true, or ok=false if the condition does not hold.
func CheckEliminationVictory(state *entity.GameState) (winner ids.HouseId, ok bool) {
	var active []ids.HouseId
	state.Houses.All(func(hid ids.HouseId, h entity.House) bool {
		if h.Status != entity.HouseEliminated {
			active = append(active, hid)
		}
		return true
	})
	if len(active) == 1 {
		return active[0], true
	}
	return 0, false
}
