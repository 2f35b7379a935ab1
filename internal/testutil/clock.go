package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant handed out by a DeterministicClock.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock hands out strictly increasing timestamps so run
// creation order in tests never depends on wall time.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	seq  int64
	step time.Duration
}

// NewDeterministicClock creates a clock that advances one minute per tick.
//
// The first call to Next() returns Epoch plus one minute.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{step: time.Minute}
}

// Next advances the clock and returns the new time.
func (c *DeterministicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.at(c.seq)
}

// Current returns the current time without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at(c.seq)
}

// Ticks returns how many times Next has been called since the last reset.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

func (c *DeterministicClock) at(seq int64) time.Time {
	return Epoch.Add(time.Duration(seq) * c.step)
}
