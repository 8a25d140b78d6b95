package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/identity"
)

func testIdentity(t *testing.T) identity.Identity {
	t.Helper()
	id, err := identity.Load(t.TempDir(), false)
	require.NoError(t, err)
	return id
}

func TestSealProducesAVerifiableEnvelope(t *testing.T) {
	id := testIdentity(t)
	tags := []Tag{{"g", "game-1"}, {"t", "4"}}
	env := Seal(id, KindTurnCommand, tags, `{"turn":4}`, 1700000000)

	require.NoError(t, Verify(env))

	turn, ok := env.Turn()
	require.True(t, ok)
	require.Equal(t, uint32(4), turn)

	gameID, ok := env.GameID()
	require.True(t, ok)
	require.Equal(t, "game-1", gameID)
}

func TestVerifyRejectsTamperedContent(t *testing.T) {
	id := testIdentity(t)
	env := Seal(id, KindTurnCommand, nil, "original", 1700000000)

	env.Content = "tampered"
	require.Error(t, Verify(env))
}

func TestVerifyRejectsWrongSigner(t *testing.T) {
	id := testIdentity(t)
	other := testIdentity(t)

	env := Seal(id, KindTurnCommand, nil, "payload", 1700000000)
	env.Pubkey = other.PublicHex()
	env.ID = ComputeID(env.Pubkey, env.CreatedAt, env.Kind, env.Tags, env.Content)

	require.Error(t, Verify(env))
}
