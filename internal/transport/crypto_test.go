package transport

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/identity"
	"github.com/ec4x/daemon/internal/wire"
)

func testIdentity(t *testing.T) identity.Identity {
	t.Helper()
	id, err := identity.Load(t.TempDir(), false)
	require.NoError(t, err)
	return id
}

func TestSharedSecretIsSymmetric(t *testing.T) {
	a := testIdentity(t)
	b := testIdentity(t)

	secretAB, err := SharedSecret(a, b.DHPublicHex())
	require.NoError(t, err)
	secretBA, err := SharedSecret(b, a.DHPublicHex())
	require.NoError(t, err)

	require.Equal(t, secretAB, secretBA)
}

func TestEncryptDecryptRoundTrips(t *testing.T) {
	a := testIdentity(t)
	b := testIdentity(t)
	key, err := SharedSecret(a, b.DHPublicHex())
	require.NoError(t, err)

	tags := []wire.Tag{{"g", "game-1"}, {"t", "4"}}
	ciphertextHex, err := Encrypt(key, a.PublicHex(), 1700000000, wire.KindTurnCommand, tags, []byte("orders turn=4"))
	require.NoError(t, err)

	plaintext, err := Decrypt(key, a.PublicHex(), 1700000000, wire.KindTurnCommand, tags, ciphertextHex)
	require.NoError(t, err)
	require.Equal(t, "orders turn=4", string(plaintext))
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	a := testIdentity(t)
	b := testIdentity(t)
	key, err := SharedSecret(a, b.DHPublicHex())
	require.NoError(t, err)

	tags := []wire.Tag{{"g", "game-1"}}
	ciphertextHex, err := Encrypt(key, a.PublicHex(), 1700000000, wire.KindTurnCommand, tags, []byte("payload"))
	require.NoError(t, err)

	raw, err := hex.DecodeString(ciphertextHex)
	require.NoError(t, err)
	raw[0] ^= 0xff
	tampered := hex.EncodeToString(raw)
	_, err = Decrypt(key, a.PublicHex(), 1700000000, wire.KindTurnCommand, tags, tampered)
	require.Error(t, err)
}

func TestSealEncryptedOpenEncryptedRoundTrips(t *testing.T) {
	a := testIdentity(t)
	b := testIdentity(t)

	tags := []wire.Tag{{"g", "game-1"}, {"h", "1"}}
	env, err := SealEncrypted(a, b.DHPublicHex(), wire.KindTurnCommand, tags, []byte("orders turn=1"), 1700000000)
	require.NoError(t, err)

	plaintext, err := OpenEncrypted(b, a.DHPublicHex(), env)
	require.NoError(t, err)
	require.Equal(t, "orders turn=1", string(plaintext))
}
