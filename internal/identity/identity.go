// Package identity manages the daemon's long-lived keypair, persisted
// at {dataDir}/daemon.identity with 0600 permissions (spec.md §6's
// on-disk layout). Adapted from the teacher's initIdentity (db.go),
// which generates an ed25519 keypair on first boot and stores it
// hex-encoded in a system_meta row — here backed by a flat file
// instead of a table, since each game owns its own database (§4.C)
// and the daemon itself has none. An X25519 keypair travels alongside
// the signing key, for the per-pair ECDH secrets internal/transport
// derives (spec.md §4.D).
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/curve25519"

	"github.com/ec4x/daemon/internal/daemonerr"
)

const fileName = "daemon.identity"

// Identity bundles the daemon's signing keypair (event authorship)
// and Diffie-Hellman keypair (per-pair payload encryption).
type Identity struct {
	SignPublic  ed25519.PublicKey
	SignPrivate ed25519.PrivateKey
	DHPublic    [32]byte
	DHPrivate   [32]byte
}

// PublicHex renders the signing public key as the hex32 wire format
// used in Envelope.Pubkey, spec.md §6.
func (i Identity) PublicHex() string {
	return hex.EncodeToString(i.SignPublic)
}

// DHPublicHex renders the X25519 public key as hex32, published
// alongside the invite-code claim (spec.md §4.D kind 30401).
func (i Identity) DHPublicHex() string {
	return hex.EncodeToString(i.DHPublic[:])
}

// Sign signs msg with the daemon's signing key.
func (i Identity) Sign(msg []byte) []byte {
	return ed25519.Sign(i.SignPrivate, msg)
}

// Load reads the keypair at {dataDir}/daemon.identity, generating and
// persisting a fresh one on first boot. regen discards any existing
// file and generates a new keypair — gated by the caller on
// EC4X_REGEN_IDENTITY=1 (spec.md §6's environment contract), since it
// invalidates the daemon's prior authorship.
func Load(dataDir string, regen bool) (Identity, error) {
	path := filepath.Join(dataDir, fileName)

	if !regen {
		data, err := os.ReadFile(path)
		if err == nil {
			id, perr := parse(data)
			if perr != nil {
				return Identity{}, fmt.Errorf("identity: parse %s: %w: %w", path, perr, daemonerr.ErrIdentity)
			}
			return id, nil
		}
		if !os.IsNotExist(err) {
			return Identity{}, fmt.Errorf("identity: read %s: %w: %w", path, err, daemonerr.ErrIdentity)
		}
	}

	id, err := generate()
	if err != nil {
		return Identity{}, fmt.Errorf("identity: generate: %w: %w", err, daemonerr.ErrIdentity)
	}
	if err := save(path, id); err != nil {
		return Identity{}, err
	}
	return id, nil
}

func generate() (Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, err
	}
	var dhPriv [32]byte
	if _, err := rand.Read(dhPriv[:]); err != nil {
		return Identity{}, err
	}
	clamp(&dhPriv)
	dhPubBytes, err := curve25519.X25519(dhPriv[:], curve25519.Basepoint)
	if err != nil {
		return Identity{}, err
	}
	var dhPub [32]byte
	copy(dhPub[:], dhPubBytes)
	return Identity{SignPublic: pub, SignPrivate: priv, DHPublic: dhPub, DHPrivate: dhPriv}, nil
}

func clamp(k *[32]byte) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}

func save(path string, id Identity) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("identity: mkdir: %w: %w", err, daemonerr.ErrIdentity)
	}
	body := hex.EncodeToString(id.SignPrivate) + "\n" + hex.EncodeToString(id.DHPrivate[:]) + "\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		return fmt.Errorf("identity: write %s: %w: %w", path, err, daemonerr.ErrIdentity)
	}
	return nil
}

func parse(data []byte) (Identity, error) {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 2 {
		return Identity{}, fmt.Errorf("identity: malformed identity file: expected 2 lines, got %d", len(lines))
	}
	signRaw, err := hex.DecodeString(strings.TrimSpace(lines[0]))
	if err != nil || len(signRaw) != ed25519.PrivateKeySize {
		return Identity{}, fmt.Errorf("identity: bad signing key encoding")
	}
	dhRaw, err := hex.DecodeString(strings.TrimSpace(lines[1]))
	if err != nil || len(dhRaw) != 32 {
		return Identity{}, fmt.Errorf("identity: bad DH key encoding")
	}
	var dhPriv [32]byte
	copy(dhPriv[:], dhRaw)
	dhPubBytes, err := curve25519.X25519(dhPriv[:], curve25519.Basepoint)
	if err != nil {
		return Identity{}, err
	}
	var dhPub [32]byte
	copy(dhPub[:], dhPubBytes)

	priv := ed25519.PrivateKey(signRaw)
	pub := priv.Public().(ed25519.PublicKey)
	return Identity{SignPublic: pub, SignPrivate: priv, DHPublic: dhPub, DHPrivate: dhPriv}, nil
}
