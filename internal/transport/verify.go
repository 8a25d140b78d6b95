package transport

import (
	"fmt"

	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/identity"
	"github.com/ec4x/daemon/internal/persist"
	"github.com/ec4x/daemon/internal/wire"
)

// Decrypted is a verified, decrypted inbound event ready for the
// daemon loop to act on.
type Decrypted struct {
	Envelope wire.Envelope
	Plaintext []byte
}

// Verify runs spec.md §4.D's six-step inbound pipeline: (1) signature
// and content-address check, (2) replay rejection against the
// per-game event log, (3) game-id tag match, (4) turn-tag sanity
// check against the game's current turn for turn-scoped kinds, (5)
// decryption under the claimed peer's DH key, (6) recording the event
// in the replay log so step 2 rejects it next time.
func Verify(db *persist.DB, self identity.Identity, gameID string, currentTurn uint32, e wire.Envelope, recordedAt int64, peerDHPublicHex string) (Decrypted, error) {
	if err := wire.Verify(e); err != nil {
		return Decrypted{}, err
	}

	seen, err := db.SeenEvent(gameID, e.Kind, e.ID, persist.Inbound)
	if err != nil {
		return Decrypted{}, err
	}
	if seen {
		return Decrypted{}, fmt.Errorf("transport: event %s already processed: %w", e.ID, daemonerr.ErrReplay)
	}

	tagGameID, ok := e.GameID()
	if !ok || tagGameID != gameID {
		return Decrypted{}, fmt.Errorf("transport: event %s missing/mismatched game tag: %w", e.ID, daemonerr.ErrTurnMismatch)
	}

	var plaintext []byte
	switch e.Kind {
	case wire.KindGameDefinition:
		plaintext = []byte(e.Content)
	default:
		turn, ok := e.Turn()
		if ok && turn != currentTurn {
			return Decrypted{}, fmt.Errorf("transport: event %s targets turn %d, daemon is on turn %d: %w", e.ID, turn, currentTurn, daemonerr.ErrTurnMismatch)
		}
		plaintext, err = OpenEncrypted(self, peerDHPublicHex, e)
		if err != nil {
			return Decrypted{}, err
		}
	}

	if err := db.RecordEvent(gameID, e.Kind, e.ID, persist.Inbound, currentTurn, recordedAt); err != nil {
		return Decrypted{}, err
	}

	return Decrypted{Envelope: e, Plaintext: plaintext}, nil
}
