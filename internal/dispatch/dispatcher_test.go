package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentientiq/pulse/internal/domain"
)

type fakeConns struct {
	connected map[string]bool
	sent      []any
}

func (f *fakeConns) Send(sessionID string, v any) bool {
	if !f.connected[sessionID] {
		return false
	}
	f.sent = append(f.sent, v)
	return true
}

type fakeSink struct {
	emotions      []*domain.EmotionEvent
	interventions []*domain.InterventionEvent
}

func (f *fakeSink) SaveEmotionEvent(_ context.Context, ev *domain.EmotionEvent) error {
	f.emotions = append(f.emotions, ev)
	return nil
}

func (f *fakeSink) SaveInterventionEvent(_ context.Context, ev *domain.InterventionEvent) error {
	f.interventions = append(f.interventions, ev)
	return nil
}

func testIntervention(sessionID string) domain.InterventionEvent {
	return domain.InterventionEvent{
		ID:         "iv-1",
		SessionID:  sessionID,
		TenantID:   "acme",
		Type:       domain.InterventionHelpOffer,
		Emotion:    domain.EmotionFrustration,
		Confidence: 82,
		Timestamp:  time.Now(),
	}
}

func TestDispatchDeliversToSessionAndMonitors(t *testing.T) {
	conns := &fakeConns{connected: map[string]bool{"s1": true}}
	hub := NewHub(8, nil)
	sink := &fakeSink{}
	sub := hub.Subscribe(SubjectInterventions)

	d := NewDispatcher(conns, hub, sink, nil)
	d.DispatchIntervention(testIntervention("s1"))

	require.Len(t, conns.sent, 1)
	frame, ok := conns.sent[0].(interventionFrame)
	require.True(t, ok)
	assert.Equal(t, "intervention", frame.Type)
	assert.Equal(t, "iv-1", frame.Data.ID)

	monitored := <-sub.C()
	assert.Equal(t, SubjectInterventions, monitored.Subject)
	require.Len(t, sink.interventions, 1)
}

func TestDispatchWithoutConnectionStillReachesMonitors(t *testing.T) {
	conns := &fakeConns{connected: map[string]bool{}}
	hub := NewHub(8, nil)
	sub := hub.Subscribe(SubjectInterventions)

	d := NewDispatcher(conns, hub, nil, nil)
	d.DispatchIntervention(testIntervention("gone"))

	assert.Empty(t, conns.sent)
	frame := <-sub.C()
	assert.Equal(t, SubjectInterventions, frame.Subject)
}

func TestPublishEmotionUsesTenantTopic(t *testing.T) {
	conns := &fakeConns{connected: map[string]bool{}}
	hub := NewHub(8, nil)
	sink := &fakeSink{}
	acme := hub.Subscribe("emotions.acme")
	all := hub.Subscribe("emotions.*")

	d := NewDispatcher(conns, hub, sink, nil)
	d.PublishEmotion(domain.EmotionEvent{
		SessionID:  "s1",
		TenantID:   "acme",
		Emotion:    domain.EmotionConfusion,
		Confidence: 66,
		Timestamp:  time.Now(),
	})

	assert.Equal(t, "emotions.acme", (<-acme.C()).Subject)
	assert.Equal(t, "emotions.acme", (<-all.C()).Subject)
	require.Len(t, sink.emotions, 1)
	assert.Equal(t, domain.EmotionConfusion, sink.emotions[0].Emotion)
}
