// Package daemon implements spec.md §4.E: the single-process event
// loop that discovers games, ingests relay events, gates readiness,
// runs turn resolution, and republishes per-house snapshots.
// Structured as a serialized proposal queue rather than the teacher's
// goroutine-per-concern layout (consensus.go's heartbeat/peer-prune
// goroutines racing over shared maps under peerLock): every mutation
// to a gameEntry happens on one goroutine, so games never need a
// mutex of their own.
package daemon

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ec4x/daemon/internal/config"
	"github.com/ec4x/daemon/internal/entity"
	"github.com/ec4x/daemon/internal/identity"
	"github.com/ec4x/daemon/internal/ids"
	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/persist"
	"github.com/ec4x/daemon/internal/transport"
)

// gameEntry is one game's live, in-memory state plus its backing
// store and its gameplay config.
type gameEntry struct {
	db    *persist.DB
	state *entity.GameState
	cfg   config.Game
}

// Model is the daemon's full in-memory view: every loaded game, the
// daemon's own identity, and its relay connections. All fields are
// only ever touched from loop.Run's goroutine.
type Model struct {
	Identity identity.Identity
	Config   config.Daemon
	Log      logging.Logger

	Relays []*transport.Relay

	games map[string]*gameEntry

	limiterMu sync.Mutex
	limiters  map[ids.HouseId]*rate.Limiter
}

// NewModel constructs an empty Model; games are populated by the
// tickProposal's discovery pass as their directories are found under
// {DataDir}/games.
func NewModel(id identity.Identity, cfg config.Daemon, log logging.Logger) *Model {
	return &Model{
		Identity: id,
		Config:   cfg,
		Log:      log.Component("daemon"),
		games:    make(map[string]*gameEntry),
		limiters: make(map[ids.HouseId]*rate.Limiter),
	}
}

// houseLimiter returns (creating if needed) the per-house submission
// limiter throttling how often one house's turn commands are
// accepted, adapted from the teacher's per-IP getLimiter
// (utils.go/ownworld.go) generalized from an HTTP client IP to a
// relay-authenticated house.
func (m *Model) houseLimiter(houseID ids.HouseId) *rate.Limiter {
	m.limiterMu.Lock()
	defer m.limiterMu.Unlock()
	l, ok := m.limiters[houseID]
	if !ok {
		l = rate.NewLimiter(1, 5)
		m.limiters[houseID] = l
	}
	return l
}

func (m *Model) gameIDs() []string {
	out := make([]string, 0, len(m.games))
	for id := range m.games {
		out = append(out, id)
	}
	return out
}

// now is the single place the daemon loop is allowed to read the
// wall clock; every other component takes timestamps as parameters.
func now() int64 { return time.Now().Unix() }
