package security

import "time"

// SetClock replaces the guard's clock.
func (g *BruteForceGuard) SetClock(now func() time.Time) {
	g.mu.Lock()
	g.now = now
	g.mu.Unlock()
}

// Sweep runs one cleanup pass.
func (g *BruteForceGuard) Sweep() { g.sweep() }
