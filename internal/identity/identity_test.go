package identity

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadGeneratesAndPersistsOnFirstBoot(t *testing.T) {
	dir := t.TempDir()

	id, err := Load(dir, false)
	require.NoError(t, err)
	require.Len(t, id.SignPublic, 32)

	_, err = os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
}

func TestLoadIsStableAcrossCalls(t *testing.T) {
	dir := t.TempDir()

	first, err := Load(dir, false)
	require.NoError(t, err)

	second, err := Load(dir, false)
	require.NoError(t, err)

	require.Equal(t, first.PublicHex(), second.PublicHex())
	require.Equal(t, first.DHPublicHex(), second.DHPublicHex())
}

func TestLoadRegenProducesADifferentKeypair(t *testing.T) {
	dir := t.TempDir()

	first, err := Load(dir, false)
	require.NoError(t, err)

	second, err := Load(dir, true)
	require.NoError(t, err)

	require.NotEqual(t, first.PublicHex(), second.PublicHex())
}

func TestSignVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	id, err := Load(dir, false)
	require.NoError(t, err)

	msg := []byte("turn-command-envelope-id")
	sig := id.Sign(msg)
	require.True(t, len(sig) > 0)
	require.True(t, ed25519.Verify(id.SignPublic, msg, sig))
}
