package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

func TestApplyPrestigeCreditsTechAdvanceToEventHouse(t *testing.T) {
	s := entity.NewGameState("game-prestige", 1)
	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	cfg := config.DefaultGame()
	l := &log{}

	hid := ids.HouseId(1)
	events := []entity.GameEvent{
		{Type: EventMaintenanceResearch, HouseID: &hid},
	}
	ApplyPrestige(s, cfg, events, l)

	h, _ := s.Houses.Get(1)
	require.EqualValues(t, cfg.Prestige.Deltas["tech_advance"], h.Prestige)
}

func TestApplyPrestigeCombatCreditsBothSidesOppositely(t *testing.T) {
	s := entity.NewGameState("game-prestige", 1)
	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	_ = s.Houses.Add(2, entity.House{ID: 2, Status: entity.HouseActive})
	cfg := config.DefaultGame()
	l := &log{}

	attacker, defender := ids.HouseId(1), ids.HouseId(2)
	events := []entity.GameEvent{
		{Type: EventShipsDestroyed, SourceHouseID: &attacker, TargetHouseID: &defender},
	}
	ApplyPrestige(s, cfg, events, l)

	h1, _ := s.Houses.Get(1)
	h2, _ := s.Houses.Get(2)
	require.EqualValues(t, cfg.Prestige.Deltas["combat_victory"], h1.Prestige)
	require.EqualValues(t, cfg.Prestige.Deltas["combat_defeat"], h2.Prestige)
}

func TestCheckPrestigeVictoryRequiresThreeConsecutiveTurns(t *testing.T) {
	s := entity.NewGameState("game-prestige", 1)
	cfg := config.DefaultGame()
	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive, Prestige: cfg.Prestige.VictoryThreshold})
	l := &log{}

	checkPrestigeVictory(s, cfg, l)
	checkPrestigeVictory(s, cfg, l)
	require.Empty(t, l.events, "victory should not fire before the configured streak length")

	checkPrestigeVictory(s, cfg, l)
	require.Len(t, l.events, 1)
	require.Equal(t, EventPrestigeVictory, l.events[0].Type)
}

func TestCheckEliminationVictoryWithOneSurvivor(t *testing.T) {
	s := entity.NewGameState("game-prestige", 1)
	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	_ = s.Houses.Add(2, entity.House{ID: 2, Status: entity.HouseEliminated})

	winner, ok := CheckEliminationVictory(s)
	require.True(t, ok)
	require.Equal(t, ids.HouseId(1), winner)
}

func TestCheckEliminationVictoryNoneWhenMultipleActive(t *testing.T) {
	s := entity.NewGameState("game-prestige", 1)
	_ = s.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	_ = s.Houses.Add(2, entity.House{ID: 2, Status: entity.HouseActive})

	_, ok := CheckEliminationVictory(s)
	require.False(t, ok)
}
