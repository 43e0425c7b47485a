// Package dispatch delivers fired interventions to the owning session and
// fans events out to monitoring subscribers.
package dispatch

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// SubjectInterventions is the monitor subject carrying every intervention.
const SubjectInterventions = "interventions.events"

// SubjectEmotions returns the per-tenant emotion topic.
func SubjectEmotions(tenantID string) string {
	return "emotions." + tenantID
}

// Frame is one message delivered to a monitor subscriber.
type Frame struct {
	Subject string
	Data    any
}

// Subscriber receives frames for its subjects on a buffered channel.
// Monitors are observability, not correctness-critical: when a subscriber
// falls behind, frames addressed to it are dropped, never queued.
type Subscriber struct {
	subjects []string
	ch       chan Frame
}

// C returns the subscriber's receive channel. It is closed on Unsubscribe.
func (s *Subscriber) C() <-chan Frame {
	return s.ch
}

// Hub is the monitor fan-out topic. Publishing never blocks the caller.
type Hub struct {
	mu        sync.RWMutex
	subs      map[*Subscriber]struct{}
	queueSize int
	dropped   atomic.Uint64
	logger    *slog.Logger
}

// NewHub creates a hub whose subscribers buffer up to queueSize frames.
func NewHub(queueSize int, logger *slog.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:      make(map[*Subscriber]struct{}),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Subscribe registers a subscriber for the given subjects. A subject of
// the form "prefix.*" matches any single trailing token.
func (h *Hub) Subscribe(subjects ...string) *Subscriber {
	sub := &Subscriber{
		subjects: subjects,
		ch:       make(chan Frame, h.queueSize),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("monitor subscribed", "subjects", subjects)
	return sub
}

// Unsubscribe removes the subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	h.mu.Unlock()
}

// Publish delivers the frame to every matching subscriber without blocking;
// a full subscriber queue drops the frame for that subscriber only.
func (h *Hub) Publish(subject string, data any) {
	frame := Frame{Subject: subject, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.matches(subject) {
			continue
		}
		select {
		case sub.ch <- frame:
		default:
			h.dropped.Add(1)
			h.logger.Warn("monitor subscriber queue full, dropping frame", "subject", subject)
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (s *Subscriber) matches(subject string) bool {
	for _, pattern := range s.subjects {
		if pattern == subject {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
			rest, hadPrefix := strings.CutPrefix(subject, prefix+".")
			if hadPrefix && rest != "" && !strings.Contains(rest, ".") {
				return true
			}
		}
	}
	return false
}
