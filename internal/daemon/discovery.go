package daemon

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/persist"
)

// tickProposal fires on every poll interval: it discovers newly
// created game directories, evaluates each known game's readiness gate,
// and resolves any game whose houses have all submitted (or whose
// deadline has passed).
type tickProposal struct{}

func (tickProposal) Apply(m *Model) error {
	if err := discoverGames(m); err != nil {
		m.Log.Error("game discovery failed", logging.Err(err))
	}

	for gameID := range m.games {
		if err := checkReadiness(m, gameID); err != nil {
			m.Log.Error("readiness check failed", logging.Str("game", gameID), logging.Err(err))
		}
		if err := pruneGame(m, gameID); err != nil {
			m.Log.Error("retention prune failed", logging.Str("game", gameID), logging.Err(err))
		}
	}
	return nil
}

// pruneGame trims gameID's event log and replay log to the daemon's
// configured retention window, run once per tick so the tables a long-
// lived game accumulates don't grow without bound.
func pruneGame(m *Model, gameID string) error {
	entry := m.games[gameID]
	if err := entry.db.PruneEvents(gameID, entry.state.Turn, uint32(m.Config.ReplayRetentionTurns)); err != nil {
		return err
	}
	cutoff := time.Unix(now(), 0).AddDate(0, 0, -m.Config.ReplayRetentionDays).Unix()
	return entry.db.PruneReplayLog(gameID, cutoff)
}

// discoverGames scans {DataDir}/games for directories persist.Open
// hasn't already loaded, opening and loading each into m.games.
func discoverGames(m *Model) error {
	root := filepath.Join(m.Config.DataDir, "games")
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		gameID := e.Name()
		if _, loaded := m.games[gameID]; loaded {
			continue
		}
		if err := loadGame(m, gameID); err != nil {
			m.Log.Error("failed to load discovered game", logging.Str("game", gameID), logging.Err(err))
		}
	}
	return nil
}

func loadGame(m *Model, gameID string) error {
	db, err := persist.Open(m.Config.DataDir, gameID)
	if err != nil {
		return err
	}
	state, ok, err := db.LoadGameState()
	if err != nil {
		db.Close()
		return err
	}
	if !ok {
		db.Close()
		return nil
	}

	cfg := config.DefaultGame()
	cfgPath := filepath.Join(m.Config.DataDir, "games", gameID, "game.kdl")
	if loaded, err := config.LoadGame(cfgPath); err == nil {
		cfg = loaded
	}

	m.games[gameID] = &gameEntry{db: db, state: state, cfg: cfg}
	m.Log.Info("loaded game", logging.Str("game", gameID), logging.Uint32("turn", state.Turn))
	return nil
}

// activeHouseCount returns how many houses still need to submit
// orders for the turn to resolve — eliminated houses are excluded from
// the readiness gate (spec.md §4.E R2).
func activeHouseCount(state *entity.GameState) int {
	n := 0
	state.Houses.All(func(_ ids.HouseId, h entity.House) bool {
		if h.Status != entity.HouseEliminated {
			n++
		}
		return true
	})
	return n
}

// checkReadiness resolves gameID's current turn once every active
// house has a pending command packet queued, or once its deadline has
// elapsed (whichever comes first).
func checkReadiness(m *Model, gameID string) error {
	entry := m.games[gameID]
	pending, err := entry.db.PendingHouseCount(gameID, entry.state.Turn)
	if err != nil {
		return err
	}

	active := activeHouseCount(entry.state)
	deadlinePassed := entry.state.Meta.DeadlineUnix != 0 && now() >= entry.state.Meta.DeadlineUnix

	if active == 0 {
		return nil
	}
	if pending < active && !deadlinePassed {
		return nil
	}

	return resolveTurn(m, gameID)
}
