package daemon

import (
	"encoding/json"
	"fmt"

	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/transport"
)

// slotClaimPayload is the decrypted content of a kind 30401 event: a
// player binding their relay identity to one of the game's unclaimed
// houses via its out-of-band invite code.
type slotClaimPayload struct {
	InviteCode string `json:"invite_code"`
	DHPublicKey string `json:"dh_pubkey"`
}

// handleSlotClaim binds decrypted's sender pubkey and DH key to the
// house whose invite code it presents, persisting the binding
// immediately rather than waiting for the next turn to resolve — a
// claim has no effect on game state invariants, so there is nothing
// for rules.Resolve to validate.
func handleSlotClaim(m *Model, gameID string, decrypted transport.Decrypted) error {
	entry := m.games[gameID]

	var payload slotClaimPayload
	if err := json.Unmarshal(decrypted.Plaintext, &payload); err != nil {
		return fmt.Errorf("daemon: malformed slot claim payload for game %s: %w: %w", gameID, err, daemonerr.ErrCommandValidation)
	}

	houseID, ok := findInviteCode(entry.state, payload.InviteCode)
	if !ok {
		return fmt.Errorf("daemon: slot claim presented unknown or already-claimed invite code: %w", daemonerr.ErrInviteMismatch)
	}

	house, _ := entry.state.Houses.Get(houseID)
	house.NostrPubkey = decrypted.Envelope.Pubkey
	house.DHPublicKey = payload.DHPublicKey
	house.InviteCode = ""
	if err := entry.state.Houses.Update(houseID, house); err != nil {
		return fmt.Errorf("daemon: bind house %d: %w", houseID, err)
	}

	if err := entry.db.SaveGameState(entry.state, now()); err != nil {
		return err
	}

	publishGameDefinition(m, gameID)
	publishSnapshots(m, gameID)

	m.Log.Info("slot claimed",
		logging.Str("game", gameID),
		logging.Uint32("house", uint32(houseID)),
		logging.Str("pubkey", decrypted.Envelope.Pubkey))
	return nil
}

// findInviteCode returns the house whose still-live invite code
// matches code. A house with an empty InviteCode has already been
// claimed (or never had one assigned) and never matches.
func findInviteCode(state *entity.GameState, code string) (ids.HouseId, bool) {
	var found ids.HouseId
	var ok bool
	state.Houses.All(func(id ids.HouseId, h entity.House) bool {
		if code != "" && h.InviteCode == code {
			found, ok = id, true
			return false
		}
		return true
	})
	return found, ok
}
