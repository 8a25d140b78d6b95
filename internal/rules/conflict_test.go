package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

func twoHouseSystemState() (*entity.GameState, ids.FleetId, ids.FleetId) {
	s := entity.NewGameState("game-combat", 1)
	_ = s.Systems.Add(1, entity.System{ID: 1, Name: "Front"})
	_ = s.Systems.Add(2, entity.System{ID: 2, Name: "Rear"})
	s.Starmap.AddLane(entity.JumpLane{From: 1, To: 2})
	s.Starmap.AddLane(entity.JumpLane{From: 2, To: 1})

	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	_ = s.Houses.Add(2, entity.House{ID: 2, Status: entity.HouseActive})
	s.Diplomacy.Set(1, 2, entity.Relation{State: entity.RelationHostile})

	_ = s.AddFleet(entity.Fleet{ID: 1, HouseID: 1, Location: 1, Status: entity.FleetActive})
	_ = s.AddFleet(entity.Fleet{ID: 2, HouseID: 2, Location: 1, Status: entity.FleetActive})

	for i := uint32(1); i <= 3; i++ {
		_ = s.AddShipToFleet(1, entity.Ship{ID: ids.ShipId(i), HouseID: 1, Stats: entity.ShipStats{AS: 10, DS: 20}})
	}
	for i := uint32(11); i <= 12; i++ {
		_ = s.AddShipToFleet(2, entity.Ship{ID: ids.ShipId(i), HouseID: 2, Stats: entity.ShipStats{AS: 5, DS: 5}})
	}
	return s, 1, 2
}

func TestContestedSystemsFindsMultiHouseSystem(t *testing.T) {
	s, _, _ := twoHouseSystemState()
	got := contestedSystems(s)
	require.Equal(t, []ids.SystemId{1}, got)
}

func TestContestedSystemsEmptyWhenSingleHouse(t *testing.T) {
	s, _, f2 := twoHouseSystemState()
	_ = s.RemoveFleet(f2)
	require.Empty(t, contestedSystems(s))
}

func TestIsHostileReflectsDiplomacyTable(t *testing.T) {
	s, _, _ := twoHouseSystemState()
	require.True(t, isHostile(s, 1, 2))
	require.False(t, isHostile(s, 1, 3))
}

func TestResolveSystemCombatDestroysOutmatchedSide(t *testing.T) {
	s, _, _ := twoHouseSystemState()
	cfg := config.DefaultGame()
	l := &log{}

	house2ShipsBefore := 0
	s.Ships.All(func(_ ids.ShipId, sh entity.Ship) bool {
		if sh.HouseID == 2 {
			house2ShipsBefore++
		}
		return true
	})
	require.Equal(t, 2, house2ShipsBefore)

	resolveSystemCombat(s, cfg, "game-combat", 1, l)

	house2ShipsAfter := 0
	s.Ships.All(func(_ ids.ShipId, sh entity.Ship) bool {
		if sh.HouseID == 2 {
			house2ShipsAfter++
		}
		return true
	})
	require.Less(t, house2ShipsAfter, house2ShipsBefore, "house 2's heavily outgunned fleet should lose ships")
}

func TestResolveColonizationFoundsColonyAndConsumesCargo(t *testing.T) {
	s := entity.NewGameState("game-colonize", 1)
	_ = s.Systems.Add(1, entity.System{ID: 1, Name: "Home"})
	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	_ = s.AddFleet(entity.Fleet{ID: 1, HouseID: 1, Location: 1, Status: entity.FleetActive,
		Command: entity.FleetCommand{Type: entity.CmdColonize}})
	_ = s.AddShipToFleet(1, entity.Ship{ID: 1, HouseID: 1, ShipClass: "etac",
		Cargo: &entity.Cargo{Type: "colonists", Quantity: 500}})

	cfg := config.DefaultGame()
	l := &log{}
	resolveColonization(s, cfg, l)

	c, ok := colonyAtSystem(s, 1)
	require.True(t, ok, "a colony should be founded at the fleet's system")
	require.Equal(t, ids.HouseId(1), c.Owner)

	ship, _ := s.Ships.Get(1)
	require.Nil(t, ship.Cargo, "the ETAC's colonist cargo should be consumed")

	fleet, _ := s.Fleets.Get(1)
	require.Equal(t, entity.CmdHold, fleet.Command.Type)

	require.Len(t, l.events, 1)
	require.Equal(t, EventColonyFounded, l.events[0].Type)
}

func TestResolveColonizationSkipsSystemWithExistingColony(t *testing.T) {
	s := entity.NewGameState("game-colonize", 1)
	_ = s.Systems.Add(1, entity.System{ID: 1, Name: "Home"})
	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	_ = s.AddColony(entity.Colony{ID: 1, SystemID: 1, Owner: 2})
	_ = s.AddFleet(entity.Fleet{ID: 1, HouseID: 1, Location: 1, Status: entity.FleetActive,
		Command: entity.FleetCommand{Type: entity.CmdColonize}})
	_ = s.AddShipToFleet(1, entity.Ship{ID: 1, HouseID: 1, ShipClass: "etac",
		Cargo: &entity.Cargo{Type: "colonists", Quantity: 500}})

	cfg := config.DefaultGame()
	l := &log{}
	resolveColonization(s, cfg, l)

	require.Empty(t, l.events, "a system with an existing colony must not be colonized again")
}

func TestUpdateBlockadesMarksColonyUnderHostileFleet(t *testing.T) {
	s, _, _ := twoHouseSystemState()
	_ = s.AddColony(entity.Colony{ID: 1, SystemID: 1, Owner: 1})
	l := &log{}

	updateBlockades(s, l)

	c, _ := s.Colonies.Get(1)
	require.True(t, c.Blockaded)
	require.Equal(t, []ids.HouseId{2}, c.BlockadedBy)
}
