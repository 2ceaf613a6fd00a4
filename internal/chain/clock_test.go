package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeClock_Height(t *testing.T) {
	genesis := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewTimeClock(genesis, 10*time.Minute)

	clock.now = func() time.Time { return genesis.Add(-time.Hour) }
	assert.Equal(t, uint64(0), clock.Height())

	clock.now = func() time.Time { return genesis.Add(25 * time.Minute) }
	assert.Equal(t, uint64(2), clock.Height())

	clock.now = func() time.Time { return genesis.Add(72 * time.Hour) }
	assert.Equal(t, uint64(432), clock.Height())
}

func TestManualClock(t *testing.T) {
	clock := NewManualClock(10)
	assert.Equal(t, uint64(10), clock.Height())

	clock.Advance(5)
	assert.Equal(t, uint64(15), clock.Height())

	clock.Set(3)
	assert.Equal(t, uint64(3), clock.Height())
}
