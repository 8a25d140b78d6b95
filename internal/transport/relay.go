package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ec4x/daemon/internal/daemonerr"
	"github.com/ec4x/daemon/internal/logging"
	"github.com/ec4x/daemon/internal/wire"
)

const (
	minBackoff = 1 * time.Second
	maxBackoff = 30 * time.Second
)

// Relay is a single websocket connection to a relay URL, reconnecting
// with exponential backoff on drop — adapted from the teacher's
// startHeartbeatLoop ticker pattern (consensus.go), generalized from
// an HTTP fan-out to a persistent duplex socket.
type Relay struct {
	url string
	log logging.Logger

	inbox chan wire.Envelope
	out   chan wire.Envelope

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewRelay constructs a Relay bound to url; call Run to connect.
func NewRelay(url string, log logging.Logger) *Relay {
	return &Relay{
		url:   url,
		log:   log.Component("relay"),
		inbox: make(chan wire.Envelope, 64),
		out:   make(chan wire.Envelope, 64),
	}
}

// Inbox delivers envelopes received from the relay.
func (r *Relay) Inbox() <-chan wire.Envelope { return r.inbox }

// Publish queues an envelope for sending; non-blocking best effort —
// Publish drops it with a logged warning if the outbound buffer is full.
func (r *Relay) Publish(e wire.Envelope) {
	select {
	case r.out <- e:
	default:
		r.log.Warn("outbound buffer full, dropping event", logging.Str("event_id", e.ID))
	}
}

// Run connects and reconnects until ctx is canceled, doubling its
// backoff on each failed attempt up to maxBackoff and resetting it to
// minBackoff on every successful dial.
func (r *Relay) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
		if err != nil {
			r.log.Warn("relay dial failed", logging.Str("url", r.url), logging.Err(err), logging.Str("retry_in", backoff.String()))
			if !sleepOrDone(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		r.log.Info("relay connected", logging.Str("url", r.url))
		r.mu.Lock()
		r.conn = conn
		r.mu.Unlock()
		backoff = minBackoff

		if err := r.pump(ctx, conn); err != nil {
			r.log.Warn("relay connection dropped", logging.Err(err))
		}
		conn.Close()
		r.mu.Lock()
		r.conn = nil
		r.mu.Unlock()

		if !sleepOrDone(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
}

func (r *Relay) pump(ctx context.Context, conn *websocket.Conn) error {
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			var e wire.Envelope
			if err := json.Unmarshal(data, &e); err != nil {
				r.log.Warn("discarding malformed relay frame", logging.Err(err))
				continue
			}
			select {
			case r.inbox <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case e := <-r.out:
			data, err := json.Marshal(e)
			if err != nil {
				r.log.Warn("discarding unmarshalable outbound event", logging.Err(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("transport: write: %w: %w", err, daemonerr.ErrTransport)
			}
		}
	}
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
