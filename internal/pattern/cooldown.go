package pattern

import (
	"context"
	"sync"
	"time"
)

// CooldownRegistry tracks when each (session, rule) pair last fired.
// TryAcquire is the atomic check-and-set: it must never let two callers
// both succeed inside one cooldown window for the same key.
type CooldownRegistry interface {
	// InCooldown is a cheap peek used to skip rules early. It may race
	// with concurrent acquires; TryAcquire remains the source of truth.
	InCooldown(ctx context.Context, sessionID, ruleID string, cooldown time.Duration, now time.Time) bool

	// TryAcquire atomically checks the cooldown and, if clear, records
	// now as the last-fired time. Returns true when the caller may fire.
	TryAcquire(ctx context.Context, sessionID, ruleID string, cooldown time.Duration, now time.Time) (bool, error)

	// Forget releases all entries for a session (called on eviction).
	Forget(ctx context.Context, sessionID string) error
}

// MemoryCooldowns is the default in-process registry: one mutex over a
// last-fired map keyed by session and rule.
type MemoryCooldowns struct {
	mu        sync.Mutex
	lastFired map[string]map[string]time.Time // sessionID -> ruleID -> fired at
}

// NewMemoryCooldowns creates an empty in-memory registry.
func NewMemoryCooldowns() *MemoryCooldowns {
	return &MemoryCooldowns{lastFired: make(map[string]map[string]time.Time)}
}

// InCooldown implements CooldownRegistry.
func (m *MemoryCooldowns) InCooldown(_ context.Context, sessionID, ruleID string, cooldown time.Duration, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fired, ok := m.lastFired[sessionID][ruleID]; ok {
		return now.Sub(fired) < cooldown
	}
	return false
}

// TryAcquire implements CooldownRegistry.
func (m *MemoryCooldowns) TryAcquire(_ context.Context, sessionID, ruleID string, cooldown time.Duration, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fired, ok := m.lastFired[sessionID][ruleID]; ok && now.Sub(fired) < cooldown {
		return false, nil
	}
	if _, ok := m.lastFired[sessionID]; !ok {
		m.lastFired[sessionID] = make(map[string]time.Time)
	}
	m.lastFired[sessionID][ruleID] = now
	return true, nil
}

// Forget implements CooldownRegistry.
func (m *MemoryCooldowns) Forget(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lastFired, sessionID)
	return nil
}
