package daemon

import (
	"fmt"

	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/orders"
	"github.com/ec4x/daemon/internal/transport"
	"github.com/ec4x/daemon/internal/wire"
)

// inboundEventProposal carries one relay-delivered envelope through
// verification and into the matching per-kind handler.
type inboundEventProposal struct {
	env        wire.Envelope
	recordedAt int64
}

func (p inboundEventProposal) Apply(m *Model) error {
	gameID, ok := p.env.GameID()
	if !ok {
		return fmt.Errorf("daemon: inbound event %s missing game tag: %w", p.env.ID, daemonerr.ErrTurnMismatch)
	}
	entry, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("daemon: inbound event for unknown game %q: %w", gameID, daemonerr.ErrConfiguration)
	}

	peerDH := findPeerDH(entry.state, p.env.Pubkey)

	decrypted, err := transport.Verify(entry.db, m.Identity, gameID, entry.state.Turn, p.env, p.recordedAt, peerDH)
	if err != nil {
		return err
	}

	switch p.env.Kind {
	case wire.KindSlotClaim:
		return handleSlotClaim(m, gameID, decrypted)
	case wire.KindTurnCommand:
		return handleTurnCommand(m, gameID, decrypted)
	case wire.KindGameDefinition, wire.KindTurnState:
		m.Log.Debug("ignoring daemon-authored event kind received inbound", logging.Int("kind", p.env.Kind))
		return nil
	default:
		return fmt.Errorf("daemon: unknown event kind %d: %w", p.env.Kind, daemonerr.ErrTransport)
	}
}

// findPeerDH scans gameID's houses for the one whose claimed Nostr
// pubkey matches pubkeyHex, returning its bound DH key — empty before
// a slot claim has been processed, which is fine for kind 30401
// (the claim itself supplies its own DH key in its payload tag).
func findPeerDH(state *entity.GameState, pubkeyHex string) string {
	var dh string
	state.Houses.All(func(_ ids.HouseId, h entity.House) bool {
		if h.NostrPubkey == pubkeyHex {
			dh = h.DHPublicKey
			return false
		}
		return true
	})
	return dh
}

// handleTurnCommand parses a decrypted turn-command payload with the
// structured-text grammar and queues it in the game's command inbox.
func handleTurnCommand(m *Model, gameID string, decrypted transport.Decrypted) error {
	entry := m.games[gameID]

	pkt, err := orders.Parse(string(decrypted.Plaintext))
	if err != nil {
		return fmt.Errorf("daemon: parse turn command for game %s: %w: %w", gameID, err, daemonerr.ErrCommandValidation)
	}
	if pkt.Turn != entry.state.Turn {
		return fmt.Errorf("daemon: turn command targets turn %d, game %s is on turn %d: %w", pkt.Turn, gameID, entry.state.Turn, daemonerr.ErrTurnMismatch)
	}
	if _, ok := entry.state.Houses.Get(pkt.HouseID); !ok {
		return fmt.Errorf("daemon: turn command from unknown house %d: %w", pkt.HouseID, daemonerr.ErrCommandValidation)
	}

	if !m.houseLimiter(pkt.HouseID).Allow() {
		return fmt.Errorf("daemon: house %d is resubmitting commands too fast: %w", pkt.HouseID, daemonerr.ErrCommandValidation)
	}

	if err := entry.db.InsertCommand(gameID, pkt, decrypted.Envelope.CreatedAt); err != nil {
		return err
	}
	m.Log.Info("accepted turn command",
		logging.Str("game", gameID),
		logging.Uint32("turn", pkt.Turn),
		logging.Uint32("house", uint32(pkt.HouseID)))
	return nil
}
