package services

import (
	"testing"
	"time"
)

func TestThrottle_PerKeyBurst(t *testing.T) {
	th := NewThrottle(time.Hour, 2)
	defer th.Stop()

	if !th.Allow("user:9876543210") || !th.Allow("user:9876543210") {
		t.Fatal("burst not allowed")
	}
	if th.Allow("user:9876543210") {
		t.Error("third send within the interval allowed")
	}
	if !th.Allow("partner:9876543210") {
		t.Error("keys are not independent")
	}
	if th.Len() != 2 {
		t.Errorf("Len = %d, want 2", th.Len())
	}
}

func TestThrottle_Disabled(t *testing.T) {
	th := NewThrottle(0, 1)
	defer th.Stop()
	for i := 0; i < 10; i++ {
		if !th.Allow("k") {
			t.Fatal("disabled throttle refused a send")
		}
	}

	var nilThrottle *Throttle
	if !nilThrottle.Allow("k") {
		t.Error("nil throttle refused a send")
	}
}

func TestThrottle_CleanupDropsIdleKeys(t *testing.T) {
	th := NewThrottle(time.Hour, 1)
	defer th.Stop()
	th.Allow("k")

	th.mu.Lock()
	th.limiters["k"].lastAccess = time.Now().Add(-3 * time.Hour)
	th.mu.Unlock()

	th.cleanup(2 * time.Hour)
	if th.Len() != 0 {
		t.Errorf("idle key kept, Len = %d", th.Len())
	}
}
