package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/sentientiq/pulse/internal/domain"
)

// SessionConns locates the live transport connection owning a session.
// Implemented by the transport connection manager.
type SessionConns interface {
	// Send delivers v to the session's connection, returning false when
	// no live connection exists.
	Send(sessionID string, v any) bool
}

// EventSink receives finalized events for analytics. Writes are
// fire-and-forget from the pipeline's point of view.
type EventSink interface {
	SaveEmotionEvent(ctx context.Context, ev *domain.EmotionEvent) error
	SaveInterventionEvent(ctx context.Context, ev *domain.InterventionEvent) error
}

// Dispatcher is the pipeline's single egress point: session-targeted
// delivery, monitor fan-out, and the analytics sink.
type Dispatcher struct {
	conns  SessionConns
	hub    *Hub
	sink   EventSink
	logger *slog.Logger
}

// NewDispatcher wires the dispatcher. sink may be nil when analytics
// persistence is disabled.
func NewDispatcher(conns SessionConns, hub *Hub, sink EventSink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{conns: conns, hub: hub, sink: sink, logger: logger}
}

// DispatchIntervention delivers the event to the originating session when a
// live connection exists; without one the session-targeted copy is silently
// dropped (sessions are ephemeral and a stale intervention is worthless).
// The monitor fan-out observes the event either way.
func (d *Dispatcher) DispatchIntervention(ev domain.InterventionEvent) {
	if !d.conns.Send(ev.SessionID, interventionFrame{Type: "intervention", Data: ev}) {
		d.logger.Debug("no live connection for session, intervention dropped",
			"session_id", ev.SessionID, "intervention_type", ev.Type)
	}

	d.hub.Publish(SubjectInterventions, ev)
	d.persistIntervention(ev)

	d.logger.Info("intervention dispatched",
		"session_id", ev.SessionID,
		"intervention_type", ev.Type,
		"emotion", ev.Emotion,
		"confidence", ev.Confidence)
}

// PublishEmotion publishes the emotion event on the tenant topic and hands
// it to the analytics sink.
func (d *Dispatcher) PublishEmotion(ev domain.EmotionEvent) {
	d.hub.Publish(SubjectEmotions(ev.TenantID), ev)
	d.persistEmotion(ev)
}

type interventionFrame struct {
	Type string                   `json:"type"`
	Data domain.InterventionEvent `json:"data"`
}

func (d *Dispatcher) persistEmotion(ev domain.EmotionEvent) {
	if d.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.sink.SaveEmotionEvent(ctx, &ev); err != nil {
		d.logger.Warn("failed to persist emotion event", "session_id", ev.SessionID, "error", err)
	}
}

func (d *Dispatcher) persistIntervention(ev domain.InterventionEvent) {
	if d.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.sink.SaveInterventionEvent(ctx, &ev); err != nil {
		d.logger.Warn("failed to persist intervention event", "id", ev.ID, "error", err)
	}
}
