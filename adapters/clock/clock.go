// Package clock abstracts time so period math can be tested without
// waiting for real months to pass.
package clock

import (
	"sync"
	"time"
)

// Real reads the system clock. Times are normalized to UTC because usage
// periods are keyed on UTC months; a local-zone timestamp near midnight
// would land a request in the wrong period.
type Real struct{}

// Now returns the current time in UTC.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a manually driven clock for tests. Safe for concurrent use, so
// tests can advance time while request goroutines read it.
type Fake struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFake creates a fake clock frozen at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now returns the frozen time.
func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set moves the clock to t, forward or backward.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
