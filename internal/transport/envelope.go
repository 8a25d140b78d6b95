package transport

import (
	"github.com/ec4x/daemon/internal/identity"
	"github.com/ec4x/daemon/internal/wire"
)

// SealPlain wraps content in a signed, unencrypted envelope — used
// only for kind 30400 (game definition), which is public by design.
func SealPlain(self identity.Identity, kind int, tags []wire.Tag, content string, createdAt int64) wire.Envelope {
	return wire.Seal(self, kind, tags, content, createdAt)
}

// SealEncrypted encrypts plaintext under the ECDH secret shared with
// peerDHPublicHex, then seals the resulting ciphertext into a signed
// envelope. Used for kinds 30401-30403.
func SealEncrypted(self identity.Identity, peerDHPublicHex string, kind int, tags []wire.Tag, plaintext []byte, createdAt int64) (wire.Envelope, error) {
	key, err := SharedSecret(self, peerDHPublicHex)
	if err != nil {
		return wire.Envelope{}, err
	}
	ciphertextHex, err := Encrypt(key, self.PublicHex(), createdAt, kind, tags, plaintext)
	if err != nil {
		return wire.Envelope{}, err
	}
	return wire.Seal(self, kind, tags, ciphertextHex, createdAt), nil
}

// OpenEncrypted verifies e's signature/content-address, then decrypts
// its content under the ECDH secret shared with the envelope's own
// claimed pubkey (the peer's DH key, looked up by the caller).
func OpenEncrypted(self identity.Identity, peerDHPublicHex string, e wire.Envelope) ([]byte, error) {
	if err := wire.Verify(e); err != nil {
		return nil, err
	}
	key, err := SharedSecret(self, peerDHPublicHex)
	if err != nil {
		return nil, err
	}
	return Decrypt(key, e.Pubkey, e.CreatedAt, e.Kind, e.Tags, e.Content)
}
