package persist

// schemaSQL creates the five tables of spec.md §4.C. One database
// lives per game, at {dataDir}/games/{gameId}/ec4x.db, so none of
// these tables need a cross-game index beyond the game_id column kept
// for defensive symmetry with the shared-schema teacher pattern
// (db.go's createSchema).
const schemaSQL = `
CREATE TABLE IF NOT EXISTS games (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	turn          INTEGER NOT NULL,
	phase         INTEGER NOT NULL,
	turn_deadline INTEGER NOT NULL DEFAULT 0,
	state_blob    BLOB NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS commands (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id          TEXT NOT NULL,
	turn             INTEGER NOT NULL,
	house_id         INTEGER NOT NULL,
	command_type     TEXT NOT NULL,
	fleet_id         INTEGER,
	colony_id        INTEGER,
	target_system_id INTEGER,
	target_fleet_id  INTEGER,
	params_json      TEXT NOT NULL,
	processed        INTEGER NOT NULL DEFAULT 0,
	received_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_commands_game_turn ON commands (game_id, turn, processed);

CREATE TABLE IF NOT EXISTS game_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id     TEXT NOT NULL,
	turn        INTEGER NOT NULL,
	event_type  TEXT NOT NULL,
	house_id    INTEGER,
	fleet_id    INTEGER,
	system_id   INTEGER,
	description TEXT NOT NULL DEFAULT '',
	event_data  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_game_turn ON game_events (game_id, turn);

CREATE TABLE IF NOT EXISTS player_state_snapshots (
	game_id    TEXT NOT NULL,
	house_id   INTEGER NOT NULL,
	turn       INTEGER NOT NULL,
	state_blob BLOB NOT NULL,
	PRIMARY KEY (game_id, house_id, turn)
);

CREATE TABLE IF NOT EXISTS nostr_event_log (
	game_id     TEXT NOT NULL,
	kind        INTEGER NOT NULL,
	event_id    TEXT NOT NULL,
	direction   INTEGER NOT NULL,
	turn        INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL,
	PRIMARY KEY (game_id, kind, event_id, direction)
);
CREATE INDEX IF NOT EXISTS idx_replay_game_recorded ON nostr_event_log (game_id, recorded_at);
`
