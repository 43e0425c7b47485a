// Package pattern matches a session's emotion history against the
// intervention rule table and enforces per-(session, rule) cooldowns.
package pattern

import "github.com/sentientiq/pulse/internal/domain"

// historyCap bounds the per-session emotion history.
const historyCap = 20

// SequenceStore is a bounded FIFO of a session's emitted emotion events,
// oldest dropped on overflow. Owned by the session worker; not locked.
type SequenceStore struct {
	events []domain.EmotionEvent
}

// NewSequenceStore creates an empty history.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{}
}

// Append pushes an event onto the history, evicting the oldest when full.
func (s *SequenceStore) Append(ev domain.EmotionEvent) {
	s.events = append(s.events, ev)
	if len(s.events) > historyCap {
		s.events = s.events[len(s.events)-historyCap:]
	}
}

// Events returns the ordered history, oldest first. The returned slice is
// the store's backing array; callers must not mutate it.
func (s *SequenceStore) Events() []domain.EmotionEvent {
	return s.events
}

// Len returns the number of stored events.
func (s *SequenceStore) Len() int {
	return len(s.events)
}
