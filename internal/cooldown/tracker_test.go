package cooldown

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests advance time manually.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestTracker() (*Tracker, *fakeClock) {
	clock := newFakeClock()
	tracker := NewTracker()
	tracker.now = clock.Now
	return tracker, clock
}

func TestTracker_ZeroCooldownNeverSuppresses(t *testing.T) {
	tracker, _ := newTestTracker()

	tracker.RecordFired("rule-1:global")
	if tracker.IsInCooldown("rule-1:global", 0) {
		t.Error("cooldown of 0 seconds must never suppress")
	}
	if tracker.IsInCooldown("rule-1:global", -5) {
		t.Error("negative cooldown must never suppress")
	}
}

func TestTracker_UnknownKeyNotInCooldown(t *testing.T) {
	tracker, _ := newTestTracker()

	if tracker.IsInCooldown("rule-1:global", 300) {
		t.Error("key with no prior record must not be in cooldown")
	}
}

func TestTracker_CooldownExpiresWithTime(t *testing.T) {
	tracker, clock := newTestTracker()

	tracker.RecordFired("rule-1:10.0.0.5")

	if !tracker.IsInCooldown("rule-1:10.0.0.5", 300) {
		t.Error("key should be in cooldown immediately after RecordFired")
	}

	clock.Advance(299 * time.Second)
	if !tracker.IsInCooldown("rule-1:10.0.0.5", 300) {
		t.Error("key should still be in cooldown just before expiry")
	}

	clock.Advance(2 * time.Second)
	if tracker.IsInCooldown("rule-1:10.0.0.5", 300) {
		t.Error("key should not be in cooldown after the window passes")
	}
}

func TestTracker_KeysAreIndependent(t *testing.T) {
	tracker, _ := newTestTracker()

	tracker.RecordFired("rule-1:dev-a")
	if tracker.IsInCooldown("rule-1:dev-b", 300) {
		t.Error("cooldown for one device must not suppress another")
	}
	if tracker.IsInCooldown("rule-2:dev-a", 300) {
		t.Error("cooldown for one rule must not suppress another")
	}
}

func TestTracker_CleanupEvictsStaleEntries(t *testing.T) {
	tracker, clock := newTestTracker()

	tracker.RecordFired("old")
	clock.Advance(3 * time.Hour)
	tracker.RecordFired("fresh")

	tracker.Cleanup(2 * time.Hour)
	if tracker.Len() != 1 {
		t.Errorf("Len() after cleanup = %d, want 1", tracker.Len())
	}
	if tracker.IsInCooldown("old", 24*3600) {
		t.Error("evicted key should not be in cooldown")
	}
	if !tracker.IsInCooldown("fresh", 24*3600) {
		t.Error("fresh key should survive cleanup")
	}
}

func TestTracker_CleanupIsIdempotent(t *testing.T) {
	tracker, clock := newTestTracker()

	tracker.RecordFired("a")
	tracker.RecordFired("b")
	clock.Advance(3 * time.Hour)
	tracker.RecordFired("c")

	tracker.Cleanup(2 * time.Hour)
	firstLen := tracker.Len()

	tracker.Cleanup(2 * time.Hour)
	if tracker.Len() != firstLen {
		t.Errorf("second Cleanup changed state: %d -> %d", firstLen, tracker.Len())
	}
	if !tracker.IsInCooldown("c", 24*3600) {
		t.Error("surviving key state changed across idempotent cleanups")
	}
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := "rule:" + string(rune('a'+n))
			for j := 0; j < 500; j++ {
				tracker.RecordFired(key)
				tracker.IsInCooldown(key, 60)
				if j%100 == 0 {
					tracker.Cleanup(time.Hour)
				}
			}
		}(i)
	}
	wg.Wait()
}
