package daemon

import (
	"context"
	"time"

	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/transport"
)

// Proposal is one unit of work the daemon loop applies serially
// against the Model — a tick (which also runs game discovery), an
// inbound relay event, a turn resolution. Keeping every state change
// behind this interface is what lets Model live without locks.
type Proposal interface {
	Apply(m *Model) error
}

// Queue is the daemon's single serialization point: every goroutine
// in the running daemon that wants to touch Model (relay readers, the
// poll ticker) submits a Proposal here instead of mutating state
// directly. The CLI's manual resolve command (ManualResolve) does not
// use the queue; it calls resolveTurn on its own Model.
type Queue struct {
	ch chan Proposal
}

// NewQueue returns a Queue with reasonable buffering for a handful of
// concurrently-connected relays.
func NewQueue() *Queue {
	return &Queue{ch: make(chan Proposal, 256)}
}

// Submit enqueues p, blocking only if the queue is saturated.
func (q *Queue) Submit(p Proposal) {
	q.ch <- p
}

// Run drains q against m until ctx is canceled, also emitting a
// tickProposal every m.Config.PollInterval so discovery and readiness
// checks happen even with no inbound traffic.
func Run(ctx context.Context, m *Model, q *Queue) error {
	ticker := time.NewTicker(m.Config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			q.Submit(tickProposal{})
		case p := <-q.ch:
			if err := p.Apply(m); err != nil {
				m.Log.Error("proposal failed", logging.Err(err))
			}
		}
	}
}

// PumpRelay forwards every envelope relay delivers into q as an
// inboundEventProposal, stamped with the time it arrived, until ctx
// is canceled or relay's inbox channel closes.
func PumpRelay(ctx context.Context, relay *transport.Relay, q *Queue) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-relay.Inbox():
			if !ok {
				return
			}
			q.Submit(inboundEventProposal{env: env, recordedAt: time.Now().Unix()})
		}
	}
}
