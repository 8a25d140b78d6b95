package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/view"
)

// SaveGameState writes state as the games row's authoritative
// state_blob, creating the row if it doesn't exist yet. updatedAt is
// a Unix timestamp supplied by the caller since this package never
// calls time.Now itself.
func (d *DB) SaveGameState(state *entity.GameState, updatedAt int64) error {
	blob, err := EncodeState(state)
	if err != nil {
		return err
	}
	compressed, err := CompressBlob(blob)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(
		`INSERT INTO games (id, name, description, turn, phase, turn_deadline, state_blob, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, description = excluded.description, turn = excluded.turn,
		   phase = excluded.phase, turn_deadline = excluded.turn_deadline,
		   state_blob = excluded.state_blob, updated_at = excluded.updated_at`,
		state.Meta.ID, state.Meta.Name, state.Meta.Description, state.Turn, state.Phase,
		state.Meta.DeadlineUnix, compressed, updatedAt,
	)
	return wrapErr(err)
}

// LoadGameMeta returns the games row's metadata without decoding the
// full state blob, used by daemon discovery to list known games
// cheaply.
func (d *DB) LoadGameMeta() (entity.GameMeta, uint32, entity.Phase, bool, error) {
	var meta entity.GameMeta
	var turn uint32
	var phase entity.Phase
	err := d.conn.QueryRow(`SELECT id, name, description, turn, phase, turn_deadline FROM games LIMIT 1`).
		Scan(&meta.ID, &meta.Name, &meta.Description, &turn, &phase, &meta.DeadlineUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.GameMeta{}, 0, 0, false, nil
	}
	if err != nil {
		return entity.GameMeta{}, 0, 0, false, wrapErr(err)
	}
	return meta, turn, phase, true, nil
}

// LoadGameState reads and decodes the games row's state_blob back
// into a live GameState, rebuilding its secondary indexes.
func (d *DB) LoadGameState() (*entity.GameState, bool, error) {
	var compressed []byte
	err := d.conn.QueryRow(`SELECT state_blob FROM games LIMIT 1`).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr(err)
	}
	blob, err := DecompressBlob(compressed)
	if err != nil {
		return nil, false, err
	}
	state, err := DecodeState(blob)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// CommitTurn atomically persists the result of resolving one turn:
// the new authoritative state, that turn's event log, a fresh
// per-house snapshot for every house in the state, and marks the
// turn's inbox rows consumed. Either everything lands or nothing does.
func (d *DB) CommitTurn(state *entity.GameState, resolvedTurn uint32, events []entity.GameEvent, cfg config.Game, updatedAt int64) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return wrapErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	blob, err := EncodeState(state)
	if err != nil {
		return err
	}
	compressed, err := CompressBlob(blob)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO games (id, name, description, turn, phase, turn_deadline, state_blob, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   turn = excluded.turn, phase = excluded.phase, turn_deadline = excluded.turn_deadline,
		   state_blob = excluded.state_blob, updated_at = excluded.updated_at`,
		state.Meta.ID, state.Meta.Name, state.Meta.Description, state.Turn, state.Phase,
		state.Meta.DeadlineUnix, compressed, updatedAt,
	)
	if err != nil {
		return wrapErr(err)
	}

	if err := InsertEvents(tx, state.Meta.ID, resolvedTurn, events); err != nil {
		return err
	}

	houseIDs := make([]ids.HouseId, 0, state.Houses.Len())
	state.Houses.All(func(id ids.HouseId, _ entity.House) bool {
		houseIDs = append(houseIDs, id)
		return true
	})
	for _, hid := range houseIDs {
		snap := view.Derive(state, hid, cfg)
		snapBlob, err := EncodeSnapshot(snap)
		if err != nil {
			return err
		}
		if err := InsertPlayerSnapshot(tx, state.Meta.ID, hid, state.Turn, snapBlob); err != nil {
			return err
		}
	}

	if err := MarkProcessed(tx, state.Meta.ID, resolvedTurn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapErr(err)
	}
	committed = true
	return nil
}

// EncodeSnapshot serializes a per-house filtered view as plain JSON;
// unlike the authoritative state_blob it has no need for protowire
// framing since it is never partially read field-by-field.
func EncodeSnapshot(snap view.PlayerState) ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("persist: marshal snapshot: %w: %w", err, daemonerr.ErrPersistence)
	}
	return b, nil
}
