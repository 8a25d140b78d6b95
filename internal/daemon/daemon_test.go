package daemon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/identity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/persist"
	"github.com/ec4x/daemon/internal/transport"
	"github.com/ec4x/daemon/internal/wire"
)

func testModel(t *testing.T) *Model {
	t.Helper()
	id, err := identity.Load(t.TempDir(), false)
	require.NoError(t, err)
	log, closer, err := logging.Init(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })
	cfg := config.DefaultDaemon()
	cfg.DataDir = t.TempDir()
	return NewModel(id, cfg, log)
}

func TestActiveHouseCountExcludesEliminated(t *testing.T) {
	state := entity.NewGameState("game-1", 1)
	_ = state.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseActive})
	_ = state.Houses.Add(2, entity.House{ID: 2, Status: entity.HouseEliminated})

	require.Equal(t, 1, activeHouseCount(state))
}

func TestFindInviteCodeMatchesUnclaimedHouseOnly(t *testing.T) {
	state := entity.NewGameState("game-1", 1)
	_ = state.Houses.Add(1, entity.House{ID: 1, InviteCode: "tango-rose-oak"})
	_ = state.Houses.Add(2, entity.House{ID: 2})

	houseID, ok := findInviteCode(state, "tango-rose-oak")
	require.True(t, ok)
	require.Equal(t, ids.HouseId(1), houseID)

	_, ok = findInviteCode(state, "unknown-code")
	require.False(t, ok)
}

func TestFindPeerDHLooksUpByNostrPubkey(t *testing.T) {
	state := entity.NewGameState("game-1", 1)
	_ = state.Houses.Add(1, entity.House{ID: 1, NostrPubkey: "abc", DHPublicKey: "dh-abc"})

	dh := findPeerDH(state, "abc")
	require.Equal(t, "dh-abc", dh)

	require.Empty(t, findPeerDH(state, "unknown"))
}

func TestCheckReadinessNoOpsWithNoActiveHouses(t *testing.T) {
	m := testModel(t)
	db, err := persist.Open(m.Config.DataDir, "game-1")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	state := entity.NewGameState("game-1", 1)
	_ = state.Houses.Add(1, entity.House{ID: 1, Status: entity.HouseEliminated})
	m.games["game-1"] = &gameEntry{db: db, state: state, cfg: config.DefaultGame()}

	require.NoError(t, checkReadiness(m, "game-1"))
}

func TestHandleSlotClaimBindsHouseAndPersists(t *testing.T) {
	m := testModel(t)
	db, err := persist.Open(m.Config.DataDir, "game-1")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	state := entity.NewGameState("game-1", 1)
	_ = state.Houses.Add(1, entity.House{ID: 1, InviteCode: "tango-rose-oak"})
	m.games["game-1"] = &gameEntry{db: db, state: state, cfg: config.DefaultGame()}

	player := mustIdentity(t)
	payload := `{"invite_code":"tango-rose-oak","dh_pubkey":"` + player.DHPublicHex() + `"}`
	env := wire.Seal(player, wire.KindSlotClaim, []wire.Tag{{"g", "game-1"}}, payload, 1700000000)

	require.NoError(t, handleSlotClaim(m, "game-1", transport.Decrypted{Envelope: env, Plaintext: []byte(payload)}))

	house, ok := state.Houses.Get(1)
	require.True(t, ok)
	require.Equal(t, player.PublicHex(), house.NostrPubkey)
	require.Equal(t, player.DHPublicHex(), house.DHPublicKey)
	require.Empty(t, house.InviteCode)

	_, loaded, err := db.LoadGameState()
	require.NoError(t, err)
	require.True(t, loaded)
}

func mustIdentity(t *testing.T) identity.Identity {
	t.Helper()
	id, err := identity.Load(t.TempDir(), false)
	require.NoError(t, err)
	return id
}
