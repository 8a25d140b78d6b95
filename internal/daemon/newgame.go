package daemon

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/persist"
)

// mnemonicWords backs inviteCode generation. Three words drawn from
// this list give houses a claim code short enough to read over voice
// chat, long enough that guessing one is impractical for a handful of
// open slots.
var mnemonicWords = []string{
	"tango", "rose", "oak", "delta", "crimson", "ember", "nova", "quartz",
	"falcon", "cedar", "harbor", "signal", "ridge", "violet", "comet", "iron",
	"maple", "opal", "summit", "tide", "willow", "zephyr", "amber", "basalt",
	"coral", "dune", "flint", "granite", "hazel", "indigo",
}

func randomWord() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(mnemonicWords))))
	if err != nil {
		return "", err
	}
	return mnemonicWords[n.Int64()], nil
}

// generateInviteCode mints a fresh "word-word-word" mnemonic, retrying
// against taken to guarantee uniqueness within the new game's roster.
func generateInviteCode(taken map[string]bool) (string, error) {
	for {
		w1, err := randomWord()
		if err != nil {
			return "", err
		}
		w2, err := randomWord()
		if err != nil {
			return "", err
		}
		w3, err := randomWord()
		if err != nil {
			return "", err
		}
		code := w1 + "-" + w2 + "-" + w3
		if !taken[code] {
			taken[code] = true
			return code, nil
		}
	}
}

// NewGame creates a fresh game under dataDir/games/{id}: an unclaimed
// house roster of houseCount seats, each with its own invite-code
// mnemonic, rooted at a single hub system. The game's id is a random
// UUID rather than a user-chosen slug, since nothing in the wire
// protocol or storage layer requires ids to be human-meaningful
// (spec.md §4.C's games table takes any string primary key).
func NewGame(dataDir, name string, houseCount int, cfg config.Game, gameID string, createdAt int64) (string, error) {
	state := entity.NewGameState(gameID, 1)
	state.Meta.Name = name

	taken := make(map[string]bool, houseCount)
	for i := 0; i < houseCount; i++ {
		hid := ids.HouseId(state.Allocators.House.Next())
		code, err := generateInviteCode(taken)
		if err != nil {
			return "", fmt.Errorf("daemon: generate invite code: %w", err)
		}
		if err := state.Houses.Add(hid, entity.House{
			ID:         hid,
			Name:       fmt.Sprintf("House %d", hid),
			Status:     entity.HouseActive,
			InviteCode: code,
		}); err != nil {
			return "", fmt.Errorf("daemon: seed house %d: %w", hid, err)
		}
	}

	db, err := persist.Open(dataDir, gameID)
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := db.SaveGameState(state, createdAt); err != nil {
		return "", err
	}
	return gameID, nil
}
