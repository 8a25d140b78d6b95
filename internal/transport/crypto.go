// Package transport implements spec.md §4.D: publishing and consuming
// the four relay event kinds over a nostr-shaped relay, including the
// per-pair ECDH encryption of slot-claim, turn-command, and
// turn-state payloads. Grounded on the teacher's consensus.go (relay
// connect/reconnect loop) and pkg/core/security.go (symmetric
// encrypt/decrypt around a derived key).
package transport

import (
	"crypto/cipher"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"lukechampine.com/blake3"

	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/identity"
	"github.com/ec4x/daemon/internal/wire"
)

// SharedSecret derives the symmetric key for a pair of identities: raw
// X25519 ECDH followed by a BLAKE3 hash, so the AEAD key is uniformly
// distributed regardless of the DH output's structure.
func SharedSecret(self identity.Identity, peerDHPublicHex string) ([32]byte, error) {
	var out [32]byte
	peerPub, err := hex.DecodeString(peerDHPublicHex)
	if err != nil || len(peerPub) != 32 {
		return out, fmt.Errorf("transport: malformed peer DH key: %w", daemonerr.ErrCrypto)
	}
	raw, err := curve25519.X25519(self.DHPrivate[:], peerPub)
	if err != nil {
		return out, fmt.Errorf("transport: ECDH: %w: %w", err, daemonerr.ErrCrypto)
	}
	out = blake3.Sum256(raw)
	return out, nil
}

// precursorNonce derives a deterministic 12-byte AEAD nonce from an
// envelope's public metadata (pubkey/createdAt/kind/tags) computed
// with an empty content string. Both sealer and opener can compute it
// without knowing the plaintext first, which the real event ID can't
// provide since it is computed over the ciphertext.
func precursorNonce(pubkeyHex string, createdAt int64, kind int, tags []wire.Tag) []byte {
	precursor := wire.ComputeID(pubkeyHex, createdAt, kind, tags, "")
	raw, err := hex.DecodeString(precursor)
	if err != nil {
		// ComputeID always returns valid hex; this would indicate
		// a corrupted build, not a runtime condition to recover from.
		panic("transport: wire.ComputeID returned non-hex output")
	}
	return raw[:chacha20poly1305.NonceSize]
}

func newAEAD(key [32]byte) (cipher.AEAD, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("transport: init AEAD: %w: %w", err, daemonerr.ErrCrypto)
	}
	return aead, nil
}

// Encrypt seals plaintext under the pair's shared secret, using the
// envelope metadata (pre-encryption, since the real content isn't
// known yet) to derive a unique nonce.
func Encrypt(key [32]byte, pubkeyHex string, createdAt int64, kind int, tags []wire.Tag, plaintext []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}
	nonce := precursorNonce(pubkeyHex, createdAt, kind, tags)
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt, given the same envelope metadata the
// sealer used.
func Decrypt(key [32]byte, pubkeyHex string, createdAt int64, kind int, tags []wire.Tag, ciphertextHex string) ([]byte, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, fmt.Errorf("transport: malformed ciphertext encoding: %w", daemonerr.ErrCrypto)
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := precursorNonce(pubkeyHex, createdAt, kind, tags)
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: decrypt: %w: %w", err, daemonerr.ErrCrypto)
	}
	return plaintext, nil
}
