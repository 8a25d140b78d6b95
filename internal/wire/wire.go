// Package wire defines the relay event envelope and event-kind
// constants of spec.md §4.D/§6: a flat, signed, content-addressed
// frame modeled on the teacher's hashBLAKE3 content-addressing
// convention (utils.go) and its ed25519 sign/verify pair, generalized
// from a single federation message type to the daemon's four event
// kinds.
package wire

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"lukechampine.com/blake3"

	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/identity"
	"github.com/ec4x/daemon/internal/ids"
)

// Event kinds, spec.md §4.D.
const (
	KindGameDefinition = 30400 // public, plaintext, one per game
	KindSlotClaim      = 30401 // encrypted house binding request
	KindTurnCommand    = 30402 // encrypted per-house order submission
	KindTurnState      = 30403 // encrypted per-house resolved-turn projection
)

// Tag is one ["key", "value", ...] array entry.
type Tag []string

// Envelope is the wire frame every relay event is carried in.
type Envelope struct {
	ID        string `json:"id"`
	Pubkey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      []Tag  `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

// Tag looks up the first tag with the given key.
func (e Envelope) Tag(key string) (string, bool) {
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == key {
			return t[1], true
		}
	}
	return "", false
}

// GameID returns the "g" tag value, present on every kind.
func (e Envelope) GameID() (string, bool) { return e.Tag("g") }

// Turn returns the "t" tag value as a uint32, present on
// turn-scoped kinds (30402, 30403).
func (e Envelope) Turn() (uint32, bool) {
	s, ok := e.Tag("t")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// HouseID returns the "h" tag value as a HouseId, present on
// house-scoped kinds (30401, 30402, 30403).
func (e Envelope) HouseID() (ids.HouseId, bool) {
	s, ok := e.Tag("h")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return ids.HouseId(n), true
}

// ComputeID returns the canonical content-address of an event: a
// BLAKE3 digest over every field but id/sig, so recomputing it detects
// any tampering with pubkey, timestamp, kind, tags, or content.
func ComputeID(pubkeyHex string, createdAt int64, kind int, tags []Tag, content string) string {
	h := blake3.New(32, nil)
	fmt.Fprintf(h, "%s\n%d\n%d\n", pubkeyHex, createdAt, kind)
	for _, t := range tags {
		fmt.Fprintln(h, strings.Join(t, "\x1f"))
	}
	fmt.Fprint(h, content)
	return hex.EncodeToString(h.Sum(nil))
}

// Seal computes the canonical id over (kind, tags, content) and signs
// it with id's signing key, producing a ready-to-publish Envelope.
func Seal(signer identity.Identity, kind int, tags []Tag, content string, createdAt int64) Envelope {
	pubHex := signer.PublicHex()
	eventID := ComputeID(pubHex, createdAt, kind, tags, content)
	sig := signer.Sign([]byte(eventID))
	return Envelope{
		ID:        eventID,
		Pubkey:    pubHex,
		CreatedAt: createdAt,
		Kind:      kind,
		Tags:      tags,
		Content:   content,
		Sig:       hex.EncodeToString(sig),
	}
}

// Verify checks that an envelope's id matches its recomputed content
// address and that its signature is valid for that id under its own
// claimed pubkey — step (1) of transport.Verify's verification
// pipeline.
func Verify(e Envelope) error {
	expected := ComputeID(e.Pubkey, e.CreatedAt, e.Kind, e.Tags, e.Content)
	if expected != e.ID {
		return fmt.Errorf("wire: event id mismatch (got %s, want %s): %w", e.ID, expected, daemonerr.ErrCrypto)
	}
	pub, err := hex.DecodeString(e.Pubkey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("wire: malformed pubkey: %w", daemonerr.ErrCrypto)
	}
	sig, err := hex.DecodeString(e.Sig)
	if err != nil {
		return fmt.Errorf("wire: malformed signature encoding: %w", daemonerr.ErrCrypto)
	}
	if !ed25519.Verify(pub, []byte(e.ID), sig) {
		return fmt.Errorf("wire: signature verification failed: %w", daemonerr.ErrCrypto)
	}
	return nil
}
