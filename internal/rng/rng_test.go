package rng_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ec4x/daemon/internal/rng"
)

func TestStreamIsDeterministic(t *testing.T) {
	a := rng.New("game-1", 7, rng.PhaseConflict, "fleet-42")
	b := rng.New("game-1", 7, rng.PhaseConflict, "fleet-42")

	for i := 0; i < 32; i++ {
		require.Equal(t, a.Intn(1_000_000), b.Intn(1_000_000))
	}
}

func TestStreamVariesByContext(t *testing.T) {
	a := rng.New("game-1", 7, rng.PhaseConflict, "fleet-42")
	b := rng.New("game-1", 7, rng.PhaseConflict, "fleet-43")

	same := true
	for i := 0; i < 16; i++ {
		if a.Intn(1_000_000) != b.Intn(1_000_000) {
			same = false
		}
	}
	assert.False(t, same, "streams with different context should diverge")
}

func TestStreamVariesByPhase(t *testing.T) {
	a := rng.New("game-1", 7, rng.PhaseConflict, "x")
	b := rng.New("game-1", 7, rng.PhaseCommand, "x")
	assert.NotEqual(t, a.Intn(1<<31), b.Intn(1<<31))
}

func TestStreamVariesByTurn(t *testing.T) {
	a := rng.New("game-1", 7, rng.PhaseMaintenance, "x")
	b := rng.New("game-1", 8, rng.PhaseMaintenance, "x")
	assert.NotEqual(t, a.Intn(1<<31), b.Intn(1<<31))
}

func TestBoolRespectsExtremes(t *testing.T) {
	s := rng.New("game-1", 1, rng.PhaseMaintenance, "p")
	for i := 0; i < 8; i++ {
		assert.False(t, s.Bool(0.0))
	}
	s2 := rng.New("game-1", 1, rng.PhaseMaintenance, "q")
	for i := 0; i < 8; i++ {
		assert.True(t, s2.Bool(1.0))
	}
}
