package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

func TestApplyAutoRetreatOverridesWeakFleet(t *testing.T) {
	s, f1, f2 := twoHouseSystemState()
	cfg := config.DefaultGame()
	l := &log{}

	fleet, _ := s.Fleets.Get(f1)
	fleet.Command = entity.FleetCommand{Type: entity.CmdHold, RetreatPolicy: entity.RetreatAggressive}
	_ = s.Fleets.Update(f1, fleet)

	// make house 1 much weaker than house 2 so the ratio trips the threshold
	s.Ships.All(func(id ids.ShipId, sh entity.Ship) bool {
		if sh.HouseID == 1 {
			sh.Stats.AS = 1
			_ = s.Ships.Update(id, sh)
		}
		return true
	})
	_ = f2

	applyAutoRetreat(s, cfg, &fleet, l)
	// applyAutoRetreat mutates the local copy; RunAutomation is what
	// persists it, so re-fetch via the mutated local var directly.
	require.Equal(t, entity.CmdSeekHome, fleet.Command.Type)
}

func TestApplyAutoRetreatNeverPolicyNeverOverrides(t *testing.T) {
	s, f1, _ := twoHouseSystemState()
	cfg := config.DefaultGame()
	l := &log{}

	fleet, _ := s.Fleets.Get(f1)
	fleet.Command = entity.FleetCommand{Type: entity.CmdHold, RetreatPolicy: entity.RetreatNever}
	_ = s.Fleets.Update(f1, fleet)

	applyAutoRetreat(s, cfg, &fleet, l)
	require.Equal(t, entity.CmdHold, fleet.Command.Type)
}

func TestNearestSafeColonyPrefersStarbaseDefendedColony(t *testing.T) {
	s := entity.NewGameState("game-fallback", 1)
	_ = s.Systems.Add(1, entity.System{ID: 1})
	_ = s.Systems.Add(2, entity.System{ID: 2})
	s.Starmap.AddLane(entity.JumpLane{From: 1, To: 2})
	s.Starmap.AddLane(entity.JumpLane{From: 2, To: 1})
	_ = s.AddColony(entity.Colony{ID: 1, SystemID: 2, Owner: 1})

	cfg := config.DefaultGame()
	got := nearestSafeColony(s, cfg, 1, 1)
	require.Equal(t, ids.SystemId(0), got, "colony with no starbase and no friendly fleets is not safe")

	kastra := entity.Kastra{ID: 1, ColonyID: 1, Level: 1}
	_ = s.Kastra.Add(1, kastra)
	c, _ := s.Colonies.Get(1)
	c.KastraIDs = append(c.KastraIDs, 1)
	_ = s.Colonies.Update(1, c)

	got = nearestSafeColony(s, cfg, 1, 1)
	require.Equal(t, ids.SystemId(2), got)
}
