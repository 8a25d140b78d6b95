package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/entity"
)

// InsertEvents appends a turn's GameEvent log inside an existing
// transaction, called from CommitTurn.
func InsertEvents(tx *sql.Tx, gameID string, turn uint32, events []entity.GameEvent) error {
	stmt, err := tx.Prepare(
		`INSERT INTO game_events (game_id, turn, event_type, house_id, fleet_id, system_id, description, event_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return wrapErr(err)
	}
	defer stmt.Close()

	for _, ev := range events {
		data, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("persist: marshal event details: %w: %w", err, daemonerr.ErrPersistence)
		}
		_, err = stmt.Exec(gameID, turn, ev.Type, nullableID(ev.HouseID), nullableID(ev.FleetID), nullableID(ev.SystemID), ev.Description, string(data))
		if err != nil {
			return wrapErr(err)
		}
	}
	return nil
}

// nullableID converts a possibly-nil *uint32-like pointer into a value
// usable as a nullable INTEGER column, matching the *ids.X fields on
// entity.GameEvent.
func nullableID[T ~uint32](p *T) any {
	if p == nil {
		return nil
	}
	return uint32(*p)
}
