// Package engine turns raw interaction signals into emotion candidates.
package engine

import (
	"time"
)

const (
	// signalCooldown suppresses duplicate spam from continuous events
	// like mouse movement: the same type is accepted at most once per 2s.
	signalCooldown = 2000 * time.Millisecond

	// detectionWindow is the trailing window that defines the active set.
	detectionWindow = 10 * time.Second

	// bufferCap bounds the signal history per session.
	bufferCap = 50
)

type signalEntry struct {
	typ string
	at  time.Time
}

// SignalBuffer is a per-session, time-windowed store of recently observed
// signal types. It is owned exclusively by the session's processing worker
// and is not safe for concurrent use.
type SignalBuffer struct {
	entries    []signalEntry
	lastByType map[string]time.Time
}

// NewSignalBuffer creates an empty signal buffer.
func NewSignalBuffer() *SignalBuffer {
	return &SignalBuffer{
		lastByType: make(map[string]time.Time),
	}
}

// Record appends a signal observation. It returns false without changing
// state when the same type was last accepted less than 2000ms ago.
func (b *SignalBuffer) Record(signalType string, now time.Time) bool {
	if last, ok := b.lastByType[signalType]; ok && now.Sub(last) < signalCooldown {
		return false
	}

	b.entries = append(b.entries, signalEntry{typ: signalType, at: now})
	if len(b.entries) > bufferCap {
		b.entries = b.entries[len(b.entries)-bufferCap:]
	}
	b.lastByType[signalType] = now
	b.prune(now)
	return true
}

// Active returns the current active set: every signal type recorded within
// the trailing 10-second window, mapped to its most recent observation time.
func (b *SignalBuffer) Active(now time.Time) map[string]time.Time {
	b.prune(now)
	active := make(map[string]time.Time, len(b.entries))
	for _, e := range b.entries {
		if t, ok := active[e.typ]; !ok || e.at.After(t) {
			active[e.typ] = e.at
		}
	}
	return active
}

// Len returns the number of buffered entries.
func (b *SignalBuffer) Len() int {
	return len(b.entries)
}

// prune drops entries older than the detection window. lastByType is kept
// intact so the per-type cooldown still applies to evicted types.
func (b *SignalBuffer) prune(now time.Time) {
	cutoff := now.Add(-detectionWindow)
	i := 0
	for i < len(b.entries) && b.entries[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.entries = b.entries[i:]
	}
}
