package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Throttle limits how often an OTP may be sent to one contact
type Throttle struct {
	every time.Duration
	burst int

	mu       sync.Mutex
	limiters map[string]*keyLimiter

	stopCh chan struct{}
	once   sync.Once
}

// NewThrottle allows burst sends per key, refilling one every interval.
// A zero interval disables throttling.
func NewThrottle(every time.Duration, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	t := &Throttle{
		every:    every,
		burst:    burst,
		limiters: make(map[string]*keyLimiter),
		stopCh:   make(chan struct{}),
	}
	if every > 0 {
		go t.cleanupLoop()
	}
	return t
}

func (t *Throttle) Allow(key string) bool {
	if t == nil || t.every <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	kl, exists := t.limiters[key]
	if !exists {
		kl = &keyLimiter{limiter: rate.NewLimiter(rate.Every(t.every), t.burst)}
		t.limiters[key] = kl
	}
	kl.lastAccess = time.Now()
	return kl.limiter.Allow()
}

// Len returns the number of tracked keys
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

func (t *Throttle) Stop() {
	t.once.Do(func() { close(t.stopCh) })
}

func (t *Throttle) cleanupLoop() {
	interval := t.every * time.Duration(t.burst)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup(2 * interval)
		case <-t.stopCh:
			return
		}
	}
}

// cleanup drops limiters idle longer than ttl; by then they are full again
func (t *Throttle) cleanup(ttl time.Duration) {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, kl := range t.limiters {
		if now.Sub(kl.lastAccess) > ttl {
			delete(t.limiters, key)
		}
	}
}
