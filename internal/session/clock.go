package session

import (
	"sync"
	"time"
)

// Clock tells the tracker what time it is.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

// Wall is the clock backed by time.Now.
var Wall Clock = wallClock{}

func (wallClock) Now() time.Time {
	return time.Now()
}

// MockClock is a Clock that only moves when told to. It starts at the Unix
// epoch.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ Clock = (*MockClock)(nil)

// NewMockClock returns a mock clock set to the Unix epoch.
func NewMockClock() *MockClock {
	return &MockClock{now: time.Unix(0, 0)}
}

// Now implements Clock.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
