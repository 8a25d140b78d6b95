package daemon

import (
	"fmt"

	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/rules"
)

// resolveTurnProposal wraps resolveTurn so the readiness-gate path
// resolves a turn through the queue. ManualResolve calls resolveTurn
// directly, without going through the queue.
type resolveTurnProposal struct {
	gameID string
}

func (p resolveTurnProposal) Apply(m *Model) error {
	return resolveTurn(m, p.gameID)
}

// ManualResolve forces gameID's current turn to resolve immediately,
// bypassing the readiness gate — the CLI's `resolve` subcommand
// (spec.md §6), useful when a house has gone unresponsive.
func ManualResolve(m *Model, gameID string) error {
	if _, ok := m.games[gameID]; !ok {
		if err := loadGame(m, gameID); err != nil {
			return err
		}
	}
	return resolveTurn(m, gameID)
}

// resolveTurn loads the turn's pending packets, runs rules.Resolve
// over a clone of the live state, and — only on success — commits the
// result and republishes the game definition and snapshots. Per spec.md §4.B.5, an invariant
// violation leaves the previously persisted state untouched; the
// caller must intervene.
func resolveTurn(m *Model, gameID string) error {
	entry, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("daemon: resolve: unknown game %q: %w", gameID, daemonerr.ErrConfiguration)
	}

	turn := entry.state.Turn
	packets, err := entry.db.LoadPendingPackets(gameID, turn)
	if err != nil {
		return err
	}

	byHouse := make(map[ids.HouseId]command.Packet, len(packets))
	for _, pkt := range packets {
		byHouse[pkt.HouseID] = pkt
	}

	result, err := rules.Resolve(entry.state, byHouse, entry.cfg)
	if err != nil {
		return fmt.Errorf("daemon: resolve turn %d of game %s: %w: %w", turn, gameID, err, daemonerr.ErrResolverInvariant)
	}

	entry.state = result.State
	if err := entry.db.CommitTurn(entry.state, turn, result.Events, entry.cfg, now()); err != nil {
		return err
	}

	m.Log.Info("resolved turn",
		logging.Str("game", gameID),
		logging.Uint32("turn", turn),
		logging.Int("events", len(result.Events)))

	if result.EliminationWon {
		m.Log.Info("game won by elimination", logging.Str("game", gameID), logging.Uint32("house", uint32(result.EliminationWinner)))
	}

	publishGameDefinition(m, gameID)
	publishSnapshots(m, gameID)
	return nil
}
