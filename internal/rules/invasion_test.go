package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

// invasionFixture sets up a system with house 2 holding a colony
// defended by one weak ship, and house 1 parking an overwhelming
// battle fleet plus a troop transport carrying marines with an
// Invade order.
func invasionFixture() (*entity.GameState, ids.SystemId) {
	s := entity.NewGameState("game-invasion", 1)
	_ = s.Systems.Add(1, entity.System{ID: 1, Name: "Front"})
	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	_ = s.Houses.Add(2, entity.House{ID: 2, Status: entity.HouseActive})
	s.Diplomacy.Set(1, 2, entity.Relation{State: entity.RelationHostile})

	_ = s.AddColony(entity.Colony{ID: 1, SystemID: 1, Owner: 2})

	_ = s.AddFleet(entity.Fleet{ID: 1, HouseID: 1, Location: 1, Status: entity.FleetActive,
		Command: entity.FleetCommand{Type: entity.CmdInvade}})
	_ = s.AddFleet(entity.Fleet{ID: 2, HouseID: 2, Location: 1, Status: entity.FleetActive})

	for i := uint32(1); i <= 5; i++ {
		_ = s.AddShipToFleet(1, entity.Ship{ID: ids.ShipId(i), HouseID: 1, Stats: entity.ShipStats{AS: 50, DS: 40}})
	}
	_ = s.AddShipToFleet(1, entity.Ship{ID: 6, HouseID: 1, Stats: entity.ShipStats{AS: 0, DS: 4},
		Cargo: &entity.Cargo{Type: "marines", Quantity: 500}})

	_ = s.AddShipToFleet(2, entity.Ship{ID: 11, HouseID: 2, Stats: entity.ShipStats{AS: 2, DS: 2}})

	return s, 1
}

func TestResolveSystemCombatInvasionTransfersColonyOwnership(t *testing.T) {
	s, sysID := invasionFixture()
	cfg := config.DefaultGame()
	l := &log{}

	resolveSystemCombat(s, cfg, "game-invasion", sysID, l)

	c, _ := s.Colonies.Get(1)
	require.Equal(t, ids.HouseId(1), c.Owner, "overwhelming marine force should take an undefended colony")
}

func TestResolveSystemCombatInvasionFailsAgainstStrongGroundDefense(t *testing.T) {
	s, sysID := invasionFixture()
	_ = s.GroundUnits.Add(1, entity.GroundUnit{ID: 1, ColonyID: 1, HouseID: 2, Kind: entity.GroundBattery, Strength: 100000})
	c, _ := s.Colonies.Get(1)
	c.GroundUnitIDs = append(c.GroundUnitIDs, 1)
	_ = s.Colonies.Update(1, c)

	cfg := config.DefaultGame()
	l := &log{}
	resolveSystemCombat(s, cfg, "game-invasion", sysID, l)

	got, _ := s.Colonies.Get(1)
	require.Equal(t, ids.HouseId(2), got.Owner, "a fortified ground battery should repel the invasion")
}

func TestResolveSystemCombatOrbitalAssaultDamagesStarbase(t *testing.T) {
	s, sysID := invasionFixture()
	_ = s.Kastra.Add(1, entity.Kastra{ID: 1, ColonyID: 1, Level: 1, HullPoints: 10000})
	c, _ := s.Colonies.Get(1)
	c.KastraIDs = append(c.KastraIDs, 1)
	_ = s.Colonies.Update(1, c)

	cfg := config.DefaultGame()
	l := &log{}
	resolveSystemCombat(s, cfg, "game-invasion", sysID, l)

	k, _ := s.Kastra.Get(1)
	require.Less(t, k.HullPoints, 10000, "a present attacking fleet should chip the starbase's hull")
}

func TestResolveEspionageRecordsSystemReportOnGuaranteedSuccess(t *testing.T) {
	s, _ := invasionFixture()
	cfg := config.DefaultGame()
	cfg.Espionage.BaseSuccessChance = 1.0
	cfg.Espionage.DetectionChance = 0.0
	l := &log{}

	pkts := map[ids.HouseId]command.Packet{
		1: {
			HouseID: 1,
			EspionageActions: []command.EspionageAction{
				{Type: "system", Target: 1, Budget: 100},
			},
		},
	}
	resolveEspionage(s, cfg, "game-invasion", pkts, l)

	intel := s.IntelFor(1)
	report, ok := intel.SystemReports[1]
	require.True(t, ok)
	require.Equal(t, ids.HouseId(1), report.OccupyingHouseID, "house 1's battle fleet dominates the system's total strength")

	require.Len(t, l.events, 1)
	require.Equal(t, EventEspionageSucceeded, l.events[0].Type)
}

func TestCheckHouseEliminationsMarksColonylessHouseAndCreditsConqueror(t *testing.T) {
	s := entity.NewGameState("game-eliminate", 1)
	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	_ = s.Houses.Add(2, entity.House{ID: 2, Status: entity.HouseActive})
	_ = s.AddColony(entity.Colony{ID: 1, SystemID: 1, Owner: 1})

	l := &log{}
	victim := ids.HouseId(2)
	attacker := ids.HouseId(1)
	invaded := newEvent(s.Turn, EventColonyInvaded)
	invaded.TargetHouseID = &victim
	invaded.SourceHouseID = &attacker
	l.emit(invaded)

	checkHouseEliminations(s, l)

	h, _ := s.Houses.Get(2)
	require.Equal(t, entity.HouseEliminated, h.Status)

	require.Len(t, l.events, 2)
	require.Equal(t, EventHouseEliminated, l.events[1].Type)
	require.Equal(t, ids.HouseId(2), *l.events[1].HouseID)
	require.Equal(t, ids.HouseId(1), *l.events[1].SourceHouseID)

	active, ok := s.Houses.Get(1)
	require.True(t, ok)
	require.Equal(t, entity.HouseActive, active.Status, "the sole colony-owning house stays active")
}
