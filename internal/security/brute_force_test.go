package security_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/security"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestGuard(t *testing.T) (*security.BruteForceGuard, *fakeClock) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := security.NewBruteForceGuard(ctx, log)
	g.SetClock(clock.Now)

	return g, clock
}

func TestBruteForce_SuccessfulAuthResetsCount(t *testing.T) {
	guard, _ := newTestGuard(t)

	guard.RecordFailure("key1", "api")
	guard.RecordFailure("key1", "api")
	guard.Reset("key1")

	if guard.IsBlocked("key1") {
		t.Fatal("credential should not be blocked after reset")
	}
}

func TestBruteForce_FailureIncrementsAndBlocks(t *testing.T) {
	guard, _ := newTestGuard(t)

	var locked bool
	for range security.BruteForceMaxAttempts {
		locked = guard.RecordFailure("badkey", "api")
	}

	if !locked {
		t.Error("expected the last failure to report the lockout")
	}

	if !guard.IsBlocked("badkey") {
		t.Fatal("credential should be blocked after max failures")
	}

	if guard.IsBlocked("otherkey") {
		t.Fatal("unrelated credential should not be blocked")
	}
}

func TestBruteForce_NotBlockedBeforeMax(t *testing.T) {
	guard, _ := newTestGuard(t)

	for range security.BruteForceMaxAttempts - 1 {
		guard.RecordFailure("almostbad", "api")
	}

	if guard.IsBlocked("almostbad") {
		t.Fatal("credential should not be blocked before max failures")
	}
}

func TestBruteForce_LockoutExpires(t *testing.T) {
	guard, clock := newTestGuard(t)

	for range security.BruteForceMaxAttempts {
		guard.RecordFailure("k", "jwt")
	}

	wait, blocked := guard.RetryAfter("k")
	if !blocked || wait != security.BruteForceLockout {
		t.Fatalf("expected full lockout, got %v blocked=%v", wait, blocked)
	}

	clock.Advance(security.BruteForceLockout)

	if guard.IsBlocked("k") {
		t.Fatal("lockout should expire")
	}
}

func TestBruteForce_WindowResets(t *testing.T) {
	guard, clock := newTestGuard(t)

	for range security.BruteForceMaxAttempts - 1 {
		guard.RecordFailure("slow", "api")
	}

	clock.Advance(security.BruteForceWindow + time.Second)
	guard.RecordFailure("slow", "api")

	if guard.IsBlocked("slow") {
		t.Fatal("failures outside the window should not accumulate")
	}
}

func TestBruteForce_SweepRemovesStale(t *testing.T) {
	guard, clock := newTestGuard(t)

	guard.RecordFailure("a", "api")
	for range security.BruteForceMaxAttempts {
		guard.RecordFailure("b", "api")
	}

	if guard.Tracked() != 2 {
		t.Fatalf("expected 2 tracked, got %d", guard.Tracked())
	}

	clock.Advance(security.BruteForceWindow)
	guard.Sweep()

	if guard.Tracked() != 0 {
		t.Fatalf("expected sweep to clear stale records, got %d", guard.Tracked())
	}
}

func TestFingerprint(t *testing.T) {
	fp := security.Fingerprint("secret")
	if len(fp) != 64 {
		t.Fatalf("expected hex sha256, got %q", fp)
	}
	if fp == security.Fingerprint("other") {
		t.Fatal("expected distinct fingerprints")
	}
}
