package daemon

import (
	"encoding/json"
	"strconv"

	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/persist"
	"github.com/ec4x/daemon/internal/transport"
	"github.com/ec4x/daemon/internal/view"
	"github.com/ec4x/daemon/internal/wire"
)

// houseRosterEntry is one house's public roster line in a kind 30400
// game-definition event — no treasury, tech, or fleet detail, just
// enough for a prospective player to find an open seat.
type houseRosterEntry struct {
	HouseID ids.HouseId `json:"house_id"`
	Name    string      `json:"name"`
	Claimed bool        `json:"claimed"`
}

type gameDefinition struct {
	GameID      string             `json:"game_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Turn        uint32             `json:"turn"`
	Houses      []houseRosterEntry `json:"houses"`
}

// publishGameDefinition broadcasts gameID's current public roster as
// a fresh kind 30400 event, called whenever a slot is claimed or a
// turn resolves so prospective players see an up-to-date open-seat
// count.
func publishGameDefinition(m *Model, gameID string) {
	entry, ok := m.games[gameID]
	if !ok {
		return
	}

	def := gameDefinition{
		GameID:      gameID,
		Name:        entry.state.Meta.Name,
		Description: entry.state.Meta.Description,
		Turn:        entry.state.Turn,
	}
	entry.state.Houses.All(func(id ids.HouseId, h entity.House) bool {
		def.Houses = append(def.Houses, houseRosterEntry{HouseID: id, Name: h.Name, Claimed: h.NostrPubkey != ""})
		return true
	})

	payload, err := json.Marshal(def)
	if err != nil {
		m.Log.Error("marshal game definition", logging.Err(err))
		return
	}

	tags := []wire.Tag{{"g", gameID}}
	env := transport.SealPlain(m.Identity, wire.KindGameDefinition, tags, string(payload), now())
	broadcast(m, gameID, env)
}

// publishSnapshots publishes a fresh kind 30403 turn-state event to
// every house that has bound a relay identity, each encrypted under
// that house's own ECDH secret so no other player can read it.
func publishSnapshots(m *Model, gameID string) {
	entry, ok := m.games[gameID]
	if !ok {
		return
	}

	entry.state.Houses.All(func(id ids.HouseId, h entity.House) bool {
		if h.NostrPubkey == "" || h.DHPublicKey == "" {
			return true
		}
		snap := view.Derive(entry.state, id, entry.cfg)
		payload, err := json.Marshal(snap)
		if err != nil {
			m.Log.Error("marshal player snapshot", logging.Str("game", gameID), logging.Err(err))
			return true
		}

		tags := []wire.Tag{{"g", gameID}, {"t", itoa(entry.state.Turn)}, {"h", itoa(uint32(id))}}
		env, err := transport.SealEncrypted(m.Identity, h.DHPublicKey, wire.KindTurnState, tags, payload, now())
		if err != nil {
			m.Log.Error("seal player snapshot", logging.Str("game", gameID), logging.Err(err))
			return true
		}
		broadcast(m, gameID, env)
		return true
	})
}

// broadcast publishes env to every connected relay and records it in
// the outbound replay log so a relay echoing it back never re-enters
// the inbound pipeline as if it were fresh.
func broadcast(m *Model, gameID string, env wire.Envelope) {
	for _, r := range m.Relays {
		r.Publish(env)
	}
	turn, _ := env.Turn()
	if err := m.games[gameID].db.RecordEvent(gameID, env.Kind, env.ID, persist.Outbound, turn, now()); err != nil {
		m.Log.Error("record outbound event", logging.Str("game", gameID), logging.Err(err))
	}
}

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
