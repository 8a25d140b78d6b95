package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

func soloGameState() *entity.GameState {
	s := entity.NewGameState("game-solo", 1)
	_ = s.Systems.Add(1, entity.System{ID: 1, Name: "Hub", PlanetClass: entity.PlanetBenign, ResourceRating: entity.ResourceAbundant})
	_ = s.Houses.Add(1, entity.House{ID: 1, Name: "House One", Treasury: 500, TaxPolicy: 1.0, Status: entity.HouseActive})
	_ = s.AddColony(entity.Colony{ID: 1, SystemID: 1, Owner: 1, PopulationUnits: 50, TaxRate: 1.0, IndustrialUnits: 10})
	s.Allocators.Colony.Next()
	s.Allocators.House.Next()
	s.Allocators.System.Next()
	return s
}

func TestResolveSoloTurnAdvancesAndStaysInvariant(t *testing.T) {
	s := soloGameState()
	cfg := config.DefaultGame()

	result, err := Resolve(s, map[ids.HouseId]command.Packet{}, cfg)
	require.NoError(t, err)
	require.EqualValues(t, 1, result.State.Turn)
	require.NoError(t, result.State.CheckInvariants())
}

func TestResolveDoesNotMutateInputState(t *testing.T) {
	s := soloGameState()
	cfg := config.DefaultGame()

	_, err := Resolve(s, map[ids.HouseId]command.Packet{}, cfg)
	require.NoError(t, err)
	require.EqualValues(t, 0, s.Turn, "Resolve must not mutate its input state")
}

func TestResolveBuildOrderCommissionsShip(t *testing.T) {
	s := soloGameState()
	cfg := config.DefaultGame()
	pkt := command.Packet{
		HouseID: 1,
		Turn:    1,
		BuildCommands: []command.BuildOrder{
			{ColonyID: 1, BuildType: command.BuildShip, ItemID: "scout", Quantity: 1},
		},
	}

	result, err := Resolve(s, map[ids.HouseId]command.Packet{1: pkt}, cfg)
	require.NoError(t, err)
	require.NoError(t, result.State.CheckInvariants())
}
