package persist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/command"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
)

func sampleState() *entity.GameState {
	state := entity.NewGameState("game-1", 1)
	state.Meta.Name = "Test Game"
	state.Turn = 3

	_ = state.Systems.Add(1, entity.System{ID: 1, Name: "Hub"})
	_ = state.Systems.Add(2, entity.System{ID: 2, Name: "Rim"})
	state.Starmap.AddLane(entity.JumpLane{From: 1, To: 2})

	_ = state.Houses.Add(1, entity.House{ID: 1, Name: "House Aurel", NostrPubkey: "abc", DHPublicKey: "def"})
	_ = state.Houses.Add(2, entity.House{ID: 2, Name: "House Ryn"})

	state.Diplomacy.Relations[entity.NewRelationKey(1, 2)] = entity.Relation{State: entity.RelationEnemy, SinceTurn: 2}

	state.Allocators.House.Next()
	state.Allocators.System.Next()
	state.Allocators.System.Next()

	state.RebuildIndexes()
	return state
}

func TestEncodeDecodeStateRoundTrips(t *testing.T) {
	state := sampleState()

	blob, err := EncodeState(state)
	require.NoError(t, err)

	decoded, err := DecodeState(blob)
	require.NoError(t, err)

	require.Equal(t, state.Turn, decoded.Turn)
	require.Equal(t, state.Meta.Name, decoded.Meta.Name)
	require.Equal(t, state.Houses.Len(), decoded.Houses.Len())

	h, ok := decoded.Houses.Get(1)
	require.True(t, ok)
	require.Equal(t, "abc", h.NostrPubkey)
	require.Equal(t, "def", h.DHPublicKey)

	rel, ok := decoded.Diplomacy.Relations[entity.NewRelationKey(1, 2)]
	require.True(t, ok)
	require.Equal(t, entity.RelationEnemy, rel.State)

	require.Equal(t, state.Allocators.House.HighWaterMark(), decoded.Allocators.House.HighWaterMark())
	require.Equal(t, state.Allocators.System.HighWaterMark(), decoded.Allocators.System.HighWaterMark())

	require.Equal(t, len(state.Starmap.Lanes), len(decoded.Starmap.Lanes))
}

func TestCompressDecompressBlobRoundTrips(t *testing.T) {
	blob, err := EncodeState(sampleState())
	require.NoError(t, err)

	compressed, err := CompressBlob(blob)
	require.NoError(t, err)

	out, err := DecompressBlob(compressed)
	require.NoError(t, err)
	require.Equal(t, blob, out)
}

func TestSaveAndLoadGameState(t *testing.T) {
	db, err := Open(t.TempDir(), "game-1")
	require.NoError(t, err)
	defer db.Close()

	state := sampleState()
	require.NoError(t, db.SaveGameState(state, 1000))

	meta, turn, _, ok, err := db.LoadGameMeta()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "game-1", meta.ID)
	require.Equal(t, uint32(3), turn)

	loaded, ok, err := db.LoadGameState()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, state.Turn, loaded.Turn)
}

func TestCommandsInboxTracksPendingPerHouse(t *testing.T) {
	db, err := Open(t.TempDir(), "game-1")
	require.NoError(t, err)
	defer db.Close()

	pkt := command.Packet{HouseID: 1, Turn: 5, FleetCommands: []command.FleetOrder{{FleetID: 7, CommandType: entity.CmdHold}}}
	require.NoError(t, db.InsertCommand("game-1", pkt, 100))

	n, err := db.PendingHouseCount("game-1", 5)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	pending, err := db.LoadPendingPackets("game-1", 5)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, ids.HouseId(1), pending[0].HouseID)

	tx, err := db.conn.Begin()
	require.NoError(t, err)
	require.NoError(t, MarkProcessed(tx, "game-1", 5))
	require.NoError(t, tx.Commit())

	n, err = db.PendingHouseCount("game-1", 5)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestReplayLogRejectsDuplicateEventID(t *testing.T) {
	db, err := Open(t.TempDir(), "game-1")
	require.NoError(t, err)
	defer db.Close()

	seen, err := db.SeenEvent("game-1", 30402, "evt-1", Inbound)
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, db.RecordEvent("game-1", 30402, "evt-1", Inbound, 5, 1000))
	require.NoError(t, db.RecordEvent("game-1", 30402, "evt-1", Inbound, 5, 1000))

	seen, err = db.SeenEvent("game-1", 30402, "evt-1", Inbound)
	require.NoError(t, err)
	require.True(t, seen)
}
