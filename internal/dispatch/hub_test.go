package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishToMatchingSubscribers(t *testing.T) {
	h := NewHub(8, nil)
	interventions := h.Subscribe(SubjectInterventions)
	emotions := h.Subscribe("emotions.acme")

	h.Publish(SubjectInterventions, "iv")
	h.Publish("emotions.acme", "ev")
	h.Publish("emotions.other", "nope")

	frame := <-interventions.C()
	assert.Equal(t, SubjectInterventions, frame.Subject)
	assert.Equal(t, "iv", frame.Data)

	frame = <-emotions.C()
	assert.Equal(t, "ev", frame.Data)
	assert.Empty(t, emotions.ch)
}

func TestHubWildcardSubject(t *testing.T) {
	h := NewHub(8, nil)
	sub := h.Subscribe("emotions.*")

	h.Publish("emotions.acme", 1)
	h.Publish("emotions.globex", 2)
	h.Publish(SubjectInterventions, 3)

	assert.Equal(t, 1, (<-sub.C()).Data)
	assert.Equal(t, 2, (<-sub.C()).Data)
	assert.Empty(t, sub.ch)
}

func TestHubSlowSubscriberDropsFrames(t *testing.T) {
	h := NewHub(2, nil)
	sub := h.Subscribe(SubjectInterventions)

	for i := 0; i < 10; i++ {
		h.Publish(SubjectInterventions, i)
	}

	// Only the first two fit; the rest were dropped, not queued.
	assert.Equal(t, 0, (<-sub.C()).Data)
	assert.Equal(t, 1, (<-sub.C()).Data)
	assert.Empty(t, sub.ch)
	assert.Equal(t, uint64(8), h.dropped.Load())
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(8, nil)
	sub := h.Subscribe(SubjectInterventions)
	require.Equal(t, 1, h.SubscriberCount())

	h.Unsubscribe(sub)
	assert.Equal(t, 0, h.SubscriberCount())

	_, open := <-sub.C()
	assert.False(t, open)

	// Publishing after unsubscribe is a no-op.
	h.Publish(SubjectInterventions, "late")
}
