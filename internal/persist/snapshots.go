package persist

import (
	"database/sql"
	"errors"

	"github.com/ec4x/daemon/internal/ids"
)

// InsertPlayerSnapshot stores the per-house filtered view blob
// produced by internal/view.Derive for turn, inside CommitTurn's
// transaction.
func InsertPlayerSnapshot(tx *sql.Tx, gameID string, houseID ids.HouseId, turn uint32, blob []byte) error {
	_, err := tx.Exec(
		`INSERT OR REPLACE INTO player_state_snapshots (game_id, house_id, turn, state_blob) VALUES (?, ?, ?, ?)`,
		gameID, houseID, turn, blob,
	)
	return wrapErr(err)
}

// LatestPlayerSnapshot returns the most recent snapshot blob recorded
// for houseID, or (nil, false, nil) if none exists yet.
func (d *DB) LatestPlayerSnapshot(gameID string, houseID ids.HouseId) ([]byte, bool, error) {
	var blob []byte
	err := d.conn.QueryRow(
		`SELECT state_blob FROM player_state_snapshots WHERE game_id = ? AND house_id = ? ORDER BY turn DESC LIMIT 1`,
		gameID, houseID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr(err)
	}
	return blob, true, nil
}
