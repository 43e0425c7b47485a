// Package session owns per-visitor pipeline state and the workers that
// advance it. Each session has exactly one worker goroutine consuming its
// ingest queue, so all session state (signal buffer, context tracker,
// emotion history) is mutated from a single goroutine and needs no locks.
package session

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sentientiq/pulse/internal/domain"
	"github.com/sentientiq/pulse/internal/engine"
	"github.com/sentientiq/pulse/internal/pattern"
)

// Emitter receives the pipeline's outputs. Implemented by the dispatcher.
type Emitter interface {
	PublishEmotion(ev domain.EmotionEvent)
	DispatchIntervention(ev domain.InterventionEvent)
}

// SectionDetector is the external collaborator guessing which page section
// the visitor is engaging with.
type SectionDetector interface {
	DetectCurrent(active map[string]time.Time, now time.Time) (string, float64)
}

// Session is one visitor's pipeline state plus its ingest queue.
type Session struct {
	id     string
	tenant string

	in   chan domain.Signal
	stop chan struct{}

	// Owned exclusively by the worker goroutine.
	buffer  *engine.SignalBuffer
	tracker *engine.Tracker
	history *pattern.SequenceStore

	classifier *engine.Classifier
	matcher    *pattern.Matcher
	detector   SectionDetector
	emitter    Emitter
	logger     *slog.Logger

	lastActivity atomic.Int64 // unix nanos
}

func newSession(id, tenant string, queueSize int, r *Registry, now time.Time) *Session {
	s := &Session{
		id:         id,
		tenant:     tenant,
		in:         make(chan domain.Signal, queueSize),
		stop:       make(chan struct{}),
		buffer:     engine.NewSignalBuffer(),
		tracker:    engine.NewTracker(now),
		history:    pattern.NewSequenceStore(),
		classifier: r.classifier,
		matcher:    r.matcher,
		detector:   r.detector,
		emitter:    r.emitter,
		logger:     r.logger,
	}
	s.lastActivity.Store(now.UnixNano())
	return s
}

// enqueue hands a signal to the worker without ever blocking the caller.
// When the queue is full the oldest queued signal is dropped to make room.
func (s *Session) enqueue(sig domain.Signal) {
	select {
	case s.in <- sig:
		return
	default:
	}

	select {
	case <-s.in:
		s.logger.Warn("session ingest queue full, dropped oldest signal", "session_id", s.id)
	default:
	}
	select {
	case s.in <- sig:
	default:
		s.logger.Warn("session ingest queue still full, signal dropped", "session_id", s.id)
	}
}

// run is the session's single-consumer loop.
func (s *Session) run() {
	for {
		select {
		case <-s.stop:
			return
		case sig := <-s.in:
			s.process(sig, time.Now())
		}
	}
}

// process advances the pipeline for one signal: buffer, classify, append,
// match, dispatch. Everything here is synchronous and in-memory; a full
// traversal completes in microseconds.
func (s *Session) process(sig domain.Signal, now time.Time) {
	s.lastActivity.Store(now.UnixNano())

	if !s.buffer.Record(sig.Type, now) {
		return
	}

	active := s.buffer.Active(now)
	sectionName, sectionConfidence := s.detector.DetectCurrent(active, now)

	// Snapshot before noting the signal so idle time reflects the gap
	// since the previous accepted signal, not this one.
	sctx := s.tracker.Snapshot(now, sectionName, sectionConfidence)
	s.tracker.NoteSignal(now)

	cand, ok := s.classifier.Classify(active, sctx, now)
	if !ok {
		return
	}

	ev := domain.EmotionEvent{
		SessionID:  s.id,
		TenantID:   s.tenant,
		Emotion:    cand.Emotion,
		Confidence: cand.Confidence,
		Section:    sectionName,
		Signals:    cand.Matched,
		Timestamp:  now,
	}
	s.history.Append(ev)
	s.tracker.NoteEmotion(cand.Emotion, now)
	s.emitter.PublishEmotion(ev)

	s.logger.Debug("emotion classified",
		"session_id", s.id,
		"emotion", cand.Emotion,
		"confidence", cand.Confidence,
		"section", sectionName)

	if iv, fired := s.matcher.Evaluate(context.Background(), s.id, s.tenant, s.history.Events(), now); fired {
		s.emitter.DispatchIntervention(iv)
	}
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActivity.Load()))
}
