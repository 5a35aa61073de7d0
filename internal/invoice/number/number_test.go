package number

import (
	"math/rand"
	"testing"
	"time"

	"github.com/smallbiznis/gomart/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestNextFormat(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC))
	gen := NewGeneratorWithSource(clk, rand.NewSource(1))

	got := gen.Next()

	assert.Len(t, got, 21)
	assert.True(t, Valid(got))
	assert.Equal(t, "INV20250314150926", got[:17])
}

func TestNextDeterministicWithSeed(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))

	first := NewGeneratorWithSource(clk, rand.NewSource(42))
	second := NewGeneratorWithSource(clk, rand.NewSource(42))

	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Next(), second.Next())
	}
}

func TestNextFollowsClock(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC))
	gen := NewGeneratorWithSource(clk, rand.NewSource(7))

	before := gen.Next()
	clk.Advance(time.Second)
	after := gen.Next()

	assert.Equal(t, "INV20251231235959", before[:17])
	assert.Equal(t, "INV20260101000000", after[:17])
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("INV202503141509260042"))
	assert.False(t, Valid("INV2025031415092600"))     // too short
	assert.False(t, Valid("inv202503141509260042"))   // wrong case
	assert.False(t, Valid("INV20250314150926004200")) // too long
	assert.False(t, Valid("INV2025031415092600AB"))   // non-numeric
}
