package notify

import (
	"sync"
	"time"
)

// Throttle suppresses repeat notifications inside a rolling window, keyed
// by an arbitrary string (here: author+task). Suppression is silent; the
// update that triggered the notification is persisted regardless.
type Throttle struct {
	window time.Duration
	mu     sync.Mutex
	last   map[string]time.Time
	now    func() time.Time
}

func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether a notification for key may go out now, and if so
// starts a new window.
func (t *Throttle) Allow(key string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.last[key]; ok && now.Sub(prev) < t.window {
		return false
	}

	t.last[key] = now
	return true
}
