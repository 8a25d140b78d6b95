// Package rng derives a deterministic pseudo-random stream for a turn
// phase from the game id, turn number, phase, and a caller-supplied
// context string. Any two daemons resolving the same turn produce
// byte-identical rolls because the stream never touches wall-clock
// time or any other unrepeatable source.
//
// The seed derivation is the same hash-chain idea as the teacher's
// PreviousHash = BLAKE3(tick ‖ prevHash): instead of chaining ticks
// for consensus, a per-phase-per-context digest chains the resolution
// inputs into a single seed.
package rng

import (
	"encoding/binary"
	"math/rand/v2"

	"lukechampine.com/blake3"
)

// Phase names the turn stage a roll belongs to, so a combat roll in
// Conflict and a colonization roll in Command never draw from the
// same stream even within the same turn.
type Phase string

const (
	PhaseMaintenance Phase = "maintenance"
	PhaseCommand     Phase = "command"
	PhaseConflict    Phase = "conflict"
)

// Stream is a deterministic source of randomness for one (game, turn,
// phase, context) tuple. Not safe for concurrent use; callers resolve
// turns single-threaded per spec.md's daemon loop.
type Stream struct {
	r *rand.Rand
}

// New derives a Stream seeded from BLAKE3(gameID ‖ turn ‖ phase ‖ ctx).
// ctx disambiguates rolls within a phase, e.g. a fleet id or a system
// id, so two independent rolls in the same phase never collide.
func New(gameID string, turn uint32, phase Phase, ctx string) *Stream {
	h := blake3.New(32, nil)
	h.Write([]byte(gameID))
	h.Write([]byte{0})
	var turnBuf [4]byte
	binary.BigEndian.PutUint32(turnBuf[:], turn)
	h.Write(turnBuf[:])
	h.Write([]byte{0})
	h.Write([]byte(phase))
	h.Write([]byte{0})
	h.Write([]byte(ctx))
	sum := h.Sum(nil)

	var seed [32]byte
	copy(seed[:], sum)
	return &Stream{r: rand.New(rand.NewChaCha8(seed))}
}

// Intn returns a pseudo-random int in [0, n).
func (s *Stream) Intn(n int) int {
	return s.r.IntN(n)
}

// Float64 returns a pseudo-random float64 in [0.0, 1.0).
func (s *Stream) Float64() float64 {
	return s.r.Float64()
}

// Bool returns true with probability p, p in [0.0, 1.0].
func (s *Stream) Bool(p float64) bool {
	return s.r.Float64() < p
}

// Shuffle permutes a slice of length n in place using swap(i, j).
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	s.r.Shuffle(n, swap)
}
