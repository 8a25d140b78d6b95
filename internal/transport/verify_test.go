package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/persist"
	"github.com/ec4x/daemon/internal/wire"
)

func TestVerifyAcceptsFreshEncryptedTurnCommand(t *testing.T) {
	sender := testIdentity(t)
	daemon := testIdentity(t)
	db, err := persist.Open(t.TempDir(), "game-1")
	require.NoError(t, err)
	defer db.Close()

	tags := []wire.Tag{{"g", "game-1"}, {"t", "4"}, {"h", "1"}}
	env, err := SealEncrypted(sender, daemon.DHPublicHex(), wire.KindTurnCommand, tags, []byte("orders turn=4 house=1 {}"), 1700000000)
	require.NoError(t, err)

	decrypted, err := Verify(db, daemon, "game-1", 4, env, 1700000001, sender.DHPublicHex())
	require.NoError(t, err)
	require.Equal(t, "orders turn=4 house=1 {}", string(decrypted.Plaintext))
}

func TestVerifyRejectsReplayedEvent(t *testing.T) {
	sender := testIdentity(t)
	daemon := testIdentity(t)
	db, err := persist.Open(t.TempDir(), "game-1")
	require.NoError(t, err)
	defer db.Close()

	tags := []wire.Tag{{"g", "game-1"}, {"t", "4"}, {"h", "1"}}
	env, err := SealEncrypted(sender, daemon.DHPublicHex(), wire.KindTurnCommand, tags, []byte("orders turn=4 house=1 {}"), 1700000000)
	require.NoError(t, err)

	_, err = Verify(db, daemon, "game-1", 4, env, 1700000001, sender.DHPublicHex())
	require.NoError(t, err)

	_, err = Verify(db, daemon, "game-1", 4, env, 1700000002, sender.DHPublicHex())
	require.Error(t, err)
}

func TestVerifyRejectsTurnMismatch(t *testing.T) {
	sender := testIdentity(t)
	daemon := testIdentity(t)
	db, err := persist.Open(t.TempDir(), "game-1")
	require.NoError(t, err)
	defer db.Close()

	tags := []wire.Tag{{"g", "game-1"}, {"t", "4"}, {"h", "1"}}
	env, err := SealEncrypted(sender, daemon.DHPublicHex(), wire.KindTurnCommand, tags, []byte("orders turn=4 house=1 {}"), 1700000000)
	require.NoError(t, err)

	_, err = Verify(db, daemon, "game-1", 5, env, 1700000001, sender.DHPublicHex())
	require.Error(t, err)
}

func TestVerifyRejectsMismatchedGameID(t *testing.T) {
	sender := testIdentity(t)
	daemon := testIdentity(t)
	db, err := persist.Open(t.TempDir(), "game-1")
	require.NoError(t, err)
	defer db.Close()

	tags := []wire.Tag{{"g", "other-game"}, {"t", "4"}, {"h", "1"}}
	env, err := SealEncrypted(sender, daemon.DHPublicHex(), wire.KindTurnCommand, tags, []byte("orders turn=4 house=1 {}"), 1700000000)
	require.NoError(t, err)

	_, err = Verify(db, daemon, "game-1", 4, env, 1700000001, sender.DHPublicHex())
	require.Error(t, err)
}
