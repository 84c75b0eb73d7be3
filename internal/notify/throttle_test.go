package notify

import (
	"testing"
	"time"
)

func TestThrottle_SuppressesInsideWindow(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(5 * time.Minute)
	th.now = func() time.Time { return current }

	if !th.Allow("hank:task-1") {
		t.Fatal("first notification should be allowed")
	}
	if th.Allow("hank:task-1") {
		t.Error("second notification inside the window should be suppressed")
	}

	current = current.Add(3 * time.Minute)
	if th.Allow("hank:task-1") {
		t.Error("notification at 3 minutes should still be suppressed")
	}

	current = current.Add(2*time.Minute + time.Second)
	if !th.Allow("hank:task-1") {
		t.Error("notification after the window should be allowed")
	}
}

func TestThrottle_KeysAreIndependent(t *testing.T) {
	th := NewThrottle(5 * time.Minute)

	if !th.Allow("hank:task-1") {
		t.Fatal("first key should be allowed")
	}
	if !th.Allow("paula:task-1") {
		t.Error("a different author on the same task has its own window")
	}
	if !th.Allow("hank:task-2") {
		t.Error("the same author on a different task has its own window")
	}
}
