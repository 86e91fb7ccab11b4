// Package security holds in-process defenses against credential guessing.
package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Lockout policy.
const (
	BruteForceMaxAttempts = 5
	BruteForceWindow      = 15 * time.Minute
	BruteForceLockout     = 5 * time.Minute
	bruteForceCleanup     = 60 * time.Second
	bruteForceMaxRecords  = 10000
)

type failureRecord struct {
	attempts  int
	firstFail time.Time
	lockedAt  time.Time
}

// BruteForceGuard tracks failures per credential fingerprint and locks out
// credentials that fail too often within the tracking window. Credentials are
// bearer tokens of any guard driver: API keys, JWTs or session ids.
type BruteForceGuard struct {
	mu      sync.Mutex
	records map[string]*failureRecord
	now     func() time.Time
	log     *logrus.Logger
}

// NewBruteForceGuard creates a guard and starts a cleanup goroutine that
// stops when ctx is cancelled.
func NewBruteForceGuard(ctx context.Context, log *logrus.Logger) *BruteForceGuard {
	g := &BruteForceGuard{
		records: make(map[string]*failureRecord),
		now:     time.Now,
		log:     log,
	}
	go g.cleanupLoop(ctx)
	return g
}

// Fingerprint returns the hex sha256 of a credential. Only fingerprints are
// stored or logged.
func Fingerprint(credential string) string {
	h := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(h[:])
}

// IsBlocked reports whether the credential is locked out.
func (g *BruteForceGuard) IsBlocked(credential string) bool {
	_, blocked := g.RetryAfter(credential)
	return blocked
}

// RetryAfter returns the remaining lockout for a blocked credential.
func (g *BruteForceGuard) RetryAfter(credential string) (time.Duration, bool) {
	fp := Fingerprint(credential)

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[fp]
	if !ok || rec.lockedAt.IsZero() {
		return 0, false
	}

	remaining := BruteForceLockout - g.now().Sub(rec.lockedAt)
	if remaining <= 0 {
		return 0, false
	}

	return remaining, true
}

// RecordFailure records a failed authentication attempt. It returns true when
// this failure triggered a lockout.
func (g *BruteForceGuard) RecordFailure(credential, guard string) bool {
	fp := Fingerprint(credential)

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	rec, ok := g.records[fp]
	if !ok {
		g.records[fp] = &failureRecord{attempts: 1, firstFail: now}
		return false
	}

	if now.Sub(rec.firstFail) > BruteForceWindow {
		rec.attempts = 1
		rec.firstFail = now
		rec.lockedAt = time.Time{}
		return false
	}

	rec.attempts++
	if rec.attempts >= BruteForceMaxAttempts && rec.lockedAt.IsZero() {
		rec.lockedAt = now
		g.log.WithFields(logrus.Fields{
			"credential": fp[:16] + "...",
			"guard":      guard,
		}).Warn("credential locked out after repeated auth failures")
		return true
	}

	return false
}

// Reset clears failure tracking for a credential after a successful auth.
func (g *BruteForceGuard) Reset(credential string) {
	fp := Fingerprint(credential)
	g.mu.Lock()
	delete(g.records, fp)
	g.mu.Unlock()
}

// Tracked returns the number of credentials currently tracked.
func (g *BruteForceGuard) Tracked() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

func (g *BruteForceGuard) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(bruteForceCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

func (g *BruteForceGuard) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	for k, rec := range g.records {
		switch {
		case !rec.lockedAt.IsZero():
			if now.Sub(rec.lockedAt) >= BruteForceLockout {
				delete(g.records, k)
			}
		case now.Sub(rec.firstFail) >= BruteForceWindow:
			delete(g.records, k)
		}
	}

	if len(g.records) > bruteForceMaxRecords {
		g.evictOldest(len(g.records) - bruteForceMaxRecords)
	}
}

// evictOldest removes n entries with the oldest firstFail times.
// Caller must hold g.mu.
func (g *BruteForceGuard) evictOldest(n int) {
	type entry struct {
		key  string
		time time.Time
	}
	entries := make([]entry, 0, len(g.records))
	for k, rec := range g.records {
		entries = append(entries, entry{k, rec.firstFail})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})
	for i := range n {
		delete(g.records, entries[i].key)
	}
}
