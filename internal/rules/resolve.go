package rules

import (
	"fmt"

	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/rng"
)

// Result is the outcome of one turn resolution.
type Result struct {
	State           *entity.GameState
	Events          []entity.GameEvent
	EliminationWinner ids.HouseId
	EliminationWon   bool
}

// Resolve runs the full Maintenance -> Command -> Conflict pipeline
// over a cloned copy of state, per spec.md §4.B.1's pure-transform
// contract: the input is never mutated, and the resolver never
// consults wall-clock time or any other unrepeatable source.
//
// Callers (the daemon loop) are responsible for catching panics and
// leaving the previous turn's persisted state intact, per §4.B.5's
// non-recoverable invariant-break semantics.
func Resolve(state *entity.GameState, packets map[ids.HouseId]command.Packet, cfg config.Game) (Result, error) {
	next := state.Clone()
	l := &log{}
	gameID := next.Meta.ID

	maintStream := rng.New(gameID, next.Turn, rng.PhaseMaintenance, "maintenance")
	RunMaintenance(next, cfg, maintStream, l)

	RunCommand(next, cfg, packets, l)
	RunAutomation(next, cfg, l)
	RunConflict(next, cfg, gameID, packets, l)

	ApplyPrestige(next, cfg, l.events, l)

	winner, won := CheckEliminationVictory(next)
	if won {
		e := newEvent(next.Turn, EventEliminationVictory)
		e.HouseID = &winner
		l.emit(e)
	}

	if err := next.CheckInvariants(); err != nil {
		return Result{}, fmt.Errorf("rules: Resolve: invariant violated: %w", err)
	}

	next.LastTurnEvents = l.events

	return Result{
		State:             next,
		Events:            l.events,
		EliminationWinner: winner,
		EliminationWon:    won,
	}, nil
}
