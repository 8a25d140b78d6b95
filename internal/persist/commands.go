package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/ids"
)

// InsertCommand records one submitted command.Packet as a single row,
// at packet granularity — readiness gating only needs one row per
// house per turn, so the per-order columns are left null and the full
// packet travels in params_json.
func (d *DB) InsertCommand(gameID string, pkt command.Packet, receivedAt int64) error {
	payload, err := json.Marshal(pkt)
	if err != nil {
		return fmt.Errorf("persist: marshal packet: %w: %w", err, daemonerr.ErrPersistence)
	}
	_, err = d.conn.Exec(
		`INSERT INTO commands (game_id, turn, house_id, command_type, params_json, processed, received_at)
		 VALUES (?, ?, ?, 'packet', ?, 0, ?)`,
		gameID, pkt.Turn, pkt.HouseID, string(payload), receivedAt,
	)
	return wrapErr(err)
}

// PendingHouseCount returns how many distinct houses have an
// unprocessed packet queued for turn, used by the daemon's readiness
// gate (spec.md §4.E R2).
func (d *DB) PendingHouseCount(gameID string, turn uint32) (int, error) {
	var n int
	err := d.conn.QueryRow(
		`SELECT COUNT(DISTINCT house_id) FROM commands WHERE game_id = ? AND turn = ? AND processed = 0`,
		gameID, turn,
	).Scan(&n)
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// LoadPendingPackets returns every unprocessed packet for turn, one
// per house (last write per house wins, matching "commands resubmitted
// before the deadline replace the prior submission").
func (d *DB) LoadPendingPackets(gameID string, turn uint32) ([]command.Packet, error) {
	rows, err := d.conn.Query(
		`SELECT house_id, params_json FROM commands
		 WHERE game_id = ? AND turn = ? AND processed = 0
		 ORDER BY id ASC`,
		gameID, turn,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	byHouse := map[ids.HouseId]command.Packet{}
	for rows.Next() {
		var houseID ids.HouseId
		var payload string
		if err := rows.Scan(&houseID, &payload); err != nil {
			return nil, wrapErr(err)
		}
		var pkt command.Packet
		if err := json.Unmarshal([]byte(payload), &pkt); err != nil {
			return nil, fmt.Errorf("persist: unmarshal packet: %w: %w", err, daemonerr.ErrPersistence)
		}
		byHouse[houseID] = pkt
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}

	out := make([]command.Packet, 0, len(byHouse))
	for _, pkt := range byHouse {
		out = append(out, pkt)
	}
	return out, nil
}

// MarkProcessed flags every pending command row for turn as consumed,
// called inside the same transaction as CommitTurn.
func MarkProcessed(tx *sql.Tx, gameID string, turn uint32) error {
	_, err := tx.Exec(`UPDATE commands SET processed = 1 WHERE game_id = ? AND turn = ? AND processed = 0`, gameID, turn)
	return wrapErr(err)
}
