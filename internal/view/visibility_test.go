package view

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

func newTestState() *entity.GameState {
	s := entity.NewGameState("game-1", 1)
	for i := uint32(1); i <= 3; i++ {
		_ = s.Systems.Add(ids.SystemId(i), entity.System{ID: ids.SystemId(i), Name: "Sys" + string(rune('0'+i))})
	}
	s.Starmap.AddLane(entity.JumpLane{From: 1, To: 2})
	s.Starmap.AddLane(entity.JumpLane{From: 2, To: 1})
	s.Starmap.AddLane(entity.JumpLane{From: 2, To: 3})
	s.Starmap.AddLane(entity.JumpLane{From: 3, To: 2})
	return s
}

func TestDeriveOwnSystemIsOwnedLevel(t *testing.T) {
	s := newTestState()
	_ = s.Colonies.Add(1, entity.Colony{ID: 1, SystemID: 1, Owner: 1})
	ps := Derive(s, 1, config.DefaultGame())
	require.Equal(t, LevelOwned, ps.Systems[1].Level)
	require.Len(t, ps.OwnColonies, 1)
}

func TestDeriveAdjacentSystemNameOnly(t *testing.T) {
	s := newTestState()
	_ = s.Colonies.Add(1, entity.Colony{ID: 1, SystemID: 1, Owner: 1})
	ps := Derive(s, 1, config.DefaultGame())
	require.Equal(t, LevelAdjacent, ps.Systems[2].Level)
	require.Zero(t, ps.Systems[2].ApproxStrength)
}

func TestDeriveStaleScoutedReportNotOverwrittenByCurrentState(t *testing.T) {
	s := newTestState()
	s.Turn = 5
	intel := s.IntelFor(1)
	intel.RecordSystemReport(entity.SystemReport{SystemID: 3, ApproxStrength: 40, OccupyingHouseID: 2, GatheredTurn: 3})

	ps := Derive(s, 1, config.DefaultGame())
	view, ok := ps.Systems[3]
	require.True(t, ok)
	require.Equal(t, LevelScouted, view.Level)
	require.EqualValues(t, 3, view.ScoutedTurn)
	require.EqualValues(t, 40, view.ApproxStrength)
}

func TestDeriveUnseenSystemHasNoneLevelAndNoName(t *testing.T) {
	s := newTestState()
	_ = s.Systems.Add(4, entity.System{ID: 4, Name: "Far"})
	ps := Derive(s, 1, config.DefaultGame())
	view, ok := ps.Systems[4]
	require.True(t, ok)
	require.Equal(t, LevelNone, view.Level)
	require.Empty(t, view.Name)
}
