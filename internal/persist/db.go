// Package persist implements spec.md §4.C: one embedded SQLite
// database per game holding its authoritative state blob, the
// command inbox, the turn-by-turn event log, per-house snapshots, and
// the relay replay log — adapted from the teacher's db.go (initDB's
// WAL-mode open, createSchema's DDL-on-boot pattern) generalized from
// one shared federation database to one file per game.
package persist

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ec4x/daemon/internal/daemonerr"
)

// DB is one game's on-disk store.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates {dataDir}/games/{gameID} if absent and opens (creating)
// ec4x.db in WAL mode, mirroring the teacher's initDB.
func Open(dataDir, gameID string) (*DB, error) {
	dir := filepath.Join(dataDir, "games", gameID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("persist: mkdir %s: %w: %w", dir, err, daemonerr.ErrPersistence)
	}
	path := filepath.Join(dir, "ec4x.db")
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w: %w", path, err, daemonerr.ErrPersistence)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("persist: create schema: %w: %w", err, daemonerr.ErrPersistence)
	}
	return &DB{conn: conn, path: path}, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file's path, for logging.
func (d *DB) Path() string { return d.path }

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("persist: %w: %w", err, daemonerr.ErrPersistence)
}
