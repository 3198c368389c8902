// Package cooldown tracks when rules last fired so repeat notifications
// can be suppressed. State is in-memory only and rebuilt after a restart.
package cooldown

import (
	"sync"
	"time"
)

// Tracker is a thread-safe map from cooldown key to last-fired instant.
// Keys are "{ruleID}:{deviceID|deviceIP|global}". Entries are evicted by
// a periodic Cleanup sweep so memory stays bounded under any event volume.
type Tracker struct {
	mu        sync.Mutex
	lastFired map[string]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewTracker creates an empty cooldown tracker.
func NewTracker() *Tracker {
	return &Tracker{
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// IsInCooldown reports whether the key is currently suppressed. A
// non-positive cooldown never suppresses, and neither does an unknown key.
func (t *Tracker) IsInCooldown(key string, cooldownSeconds int) bool {
	if cooldownSeconds <= 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.lastFired[key]
	if !ok {
		return false
	}
	return t.now().Sub(last) < time.Duration(cooldownSeconds)*time.Second
}

// RecordFired upserts the last-fired instant for the key.
func (t *Tracker) RecordFired(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastFired[key] = t.now()
}

// Cleanup removes every entry older than maxAge. Safe to call concurrently
// with reads and writes.
func (t *Tracker) Cleanup(maxAge time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-maxAge)
	for key, last := range t.lastFired {
		if last.Before(cutoff) {
			delete(t.lastFired, key)
		}
	}
}

// Len returns the number of tracked keys. Useful for tests and metrics.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lastFired)
}
