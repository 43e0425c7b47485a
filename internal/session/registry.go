package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sentientiq/pulse/internal/domain"
	"github.com/sentientiq/pulse/internal/engine"
	"github.com/sentientiq/pulse/internal/pattern"
	"github.com/sentientiq/pulse/internal/rules"
)

const defaultQueueSize = 256

// EvictCallback is invoked after a session is removed from the registry,
// e.g. to close its transport connection.
type EvictCallback func(sessionID string)

// Deps bundles the collaborators shared by every session worker.
type Deps struct {
	Table     *rules.Table
	Cooldowns pattern.CooldownRegistry
	Emitter   Emitter
	Detector  SectionDetector
	Logger    *slog.Logger
	QueueSize int
}

// Registry tracks live sessions, creating state on first signal and
// evicting it after prolonged inactivity.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	classifier *engine.Classifier
	matcher    *pattern.Matcher
	cooldowns  pattern.CooldownRegistry
	emitter    Emitter
	detector   SectionDetector
	logger     *slog.Logger
	queueSize  int
	onEvict    EvictCallback
}

// NewRegistry creates a registry over validated dependencies.
func NewRegistry(deps Deps) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queueSize := deps.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		classifier: engine.NewClassifier(deps.Table),
		matcher:    pattern.NewMatcher(deps.Table, deps.Cooldowns, logger),
		cooldowns:  deps.Cooldowns,
		emitter:    deps.Emitter,
		detector:   deps.Detector,
		logger:     logger,
		queueSize:  queueSize,
	}
}

// SetEvictCallback registers a hook run after each eviction.
func (r *Registry) SetEvictCallback(cb EvictCallback) {
	r.onEvict = cb
}

// Ingest routes one signal to its session, creating the session on first
// contact. Malformed signals (missing session id, unknown type) are
// discarded here; they never affect other sessions.
func (r *Registry) Ingest(sig domain.Signal) {
	if sig.SessionID == "" || !domain.KnownSignal(sig.Type) {
		r.logger.Debug("discarding malformed signal", "session_id", sig.SessionID, "type", sig.Type)
		return
	}
	r.getOrCreate(sig.SessionID, sig.TenantID).enqueue(sig)
}

// ActiveSessions returns the number of live sessions.
func (r *Registry) ActiveSessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartSweeper launches the background eviction sweep: every interval,
// sessions idle longer than maxIdle are torn down. Safe to evict slightly
// late, never mid-dispatch; a worker only observes its stop signal between
// fully processed signals.
func (r *Registry) StartSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		r.logger.Info("session sweeper started", "interval", interval, "max_idle", maxIdle)
		for {
			select {
			case <-ticker.C:
				r.evictIdle(time.Now(), maxIdle)
			case <-ctx.Done():
				r.logger.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// evictIdle removes every session whose last activity is older than maxIdle,
// releasing its buffers, history, and cooldown entries.
func (r *Registry) evictIdle(now time.Time, maxIdle time.Duration) {
	r.mu.Lock()
	var evicted []*Session
	for id, s := range r.sessions {
		if s.idleSince(now) > maxIdle {
			delete(r.sessions, id)
			evicted = append(evicted, s)
		}
	}
	r.mu.Unlock()

	for _, s := range evicted {
		close(s.stop)
		if err := r.cooldowns.Forget(context.Background(), s.id); err != nil {
			r.logger.Warn("failed to release cooldown entries", "session_id", s.id, "error", err)
		}
		if r.onEvict != nil {
			r.onEvict(s.id)
		}
		r.logger.Info("session evicted", "session_id", s.id, "idle", s.idleSince(now))
	}
	if len(evicted) > 0 {
		r.logger.Info("session sweep completed", "evicted", len(evicted))
	}
}

// Shutdown stops every session worker.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		close(s.stop)
		delete(r.sessions, id)
	}
}

func (r *Registry) getOrCreate(sessionID, tenantID string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s
	}
	s = newSession(sessionID, tenantID, r.queueSize, r, time.Now())
	r.sessions[sessionID] = s
	go s.run()
	r.logger.Info("session created", "session_id", sessionID, "tenant_id", tenantID)
	return s
}
