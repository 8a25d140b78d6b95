// Package rules implements the deterministic turn-resolution engine:
// the three-phase pipeline (maintenance, command, conflict), the
// visibility filter, automated fleet behavior, and prestige/victory
// accounting, spec.md §4.B.
package rules

import "github.com/ec4x/daemon/internal/entity"

// log is a small per-resolution event accumulator, appended to by
// every phase and drained into GameState.LastTurnEvents at the end of
// Resolve. Kept as a plain slice, not a channel: the resolver is
// synchronous by contract (spec.md §9).
type log struct {
	events []entity.GameEvent
}

func (l *log) emit(e entity.GameEvent) {
	l.events = append(l.events, e)
}

func newEvent(turn uint32, eventType string) entity.GameEvent {
	return entity.GameEvent{Turn: turn, Type: eventType, Details: map[string]string{}}
}

// Event type constants. Kept as plain strings (not an enum) since the
// event log is persisted and replayed; string tags survive schema
// evolution better than ordinal values, matching the teacher's own
// string-tagged event_type column (ownworld.go's transaction_log).
const (
	EventMaintenanceUpkeepPaid      = "UpkeepPaid"
	EventMaintenanceIncome          = "IncomeCollected"
	EventMaintenanceResearch        = "ResearchAdvanced"
	EventMaintenanceShortfall       = "TreasuryShortfall"
	EventMaintenanceHouseStatus     = "HouseStatusChanged"
	EventMaintenanceConstruction    = "ConstructionAdvanced"
	EventMaintenanceCommissioned    = "ShipCommissioned"
	EventMaintenanceRepaired        = "ShipRepaired"
	EventMaintenancePopGrowth       = "PopulationGrew"

	EventBuildStarted    = "BuildStarted"
	EventBuildCompleted  = "BuildCompleted"
	EventBuildRejected   = "BuildRejected"
	EventOrderAccepted   = "OrderAccepted"
	EventOrderRejected   = "OrderRejected"
	EventAutoLoaded      = "FightersAutoLoaded"

	EventColonyFounded      = "ColonyFounded"
	EventFleetMoved         = "FleetMoved"
	EventFleetMoveFailed    = "FleetMoveFailed"
	EventShipsDestroyed     = "ShipsDestroyed"
	EventStarbaseDestroyed  = "StarbaseDestroyed"
	EventColonyBlockaded    = "ColonyBlockaded"
	EventColonyInvaded      = "ColonyInvaded"
	EventInvasionFailed     = "InvasionFailed"
	EventEspionageSucceeded = "EspionageSucceeded"
	EventEspionageDetected  = "EspionageDetected"
	EventDiplomaticViolation = "DiplomaticViolation"
	EventHouseEliminated    = "HouseEliminated"
	EventPrestigeVictory    = "PrestigeVictory"
	EventEliminationVictory = "EliminationVictory"
	EventCommandFailedStale = "CommandFailedStaleTarget"
)
