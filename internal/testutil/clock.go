package testutil

import (
	"sync"
	"time"
)

// Epoch is the base timestamp deterministic tests tick from. Arbitrary
// but fixed, so golden snapshots stay byte-identical across runs.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock hands out strictly increasing timestamps, one
// second apart, starting at Epoch. It satisfies engine.Clock.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu   sync.Mutex
	tick int64
}

// NewDeterministicClock creates a clock whose first Now() returns Epoch.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now returns the next timestamp and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.tick) * time.Second)
	c.tick++
	return t
}

// Reset rewinds the clock so the next Now() returns Epoch again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = 0
}

// At returns the timestamp the clock's nth call produces, for building
// expected values without consuming the clock.
func At(n int) time.Time {
	return Epoch.Add(time.Duration(n) * time.Second)
}
