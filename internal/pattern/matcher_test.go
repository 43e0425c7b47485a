package pattern

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentientiq/pulse/internal/domain"
	"github.com/sentientiq/pulse/internal/rules"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func emotions(pairs ...any) []domain.EmotionEvent {
	var events []domain.EmotionEvent
	for i := 0; i < len(pairs); i += 2 {
		events = append(events, domain.EmotionEvent{
			Emotion:    pairs[i].(string),
			Confidence: float64(pairs[i+1].(int)),
		})
	}
	return events
}

func newMatcher(t *testing.T) *Matcher {
	t.Helper()
	tbl, err := rules.Load("")
	require.NoError(t, err)
	return NewMatcher(tbl, NewMemoryCooldowns(), nil)
}

func TestEvaluateTripleFrustration(t *testing.T) {
	m := newMatcher(t)
	history := emotions("frustration", 72, "frustration", 80, "frustration", 71)

	ev, ok := m.Evaluate(context.Background(), "s1", "acme", history, t0)
	require.True(t, ok)
	assert.Equal(t, domain.InterventionHelpOffer, ev.Type)
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, "acme", ev.TenantID)
	assert.Equal(t, "frustration", ev.Emotion)
	assert.Equal(t, float64(71), ev.Confidence)
	assert.NotEmpty(t, ev.ID)
}

func TestEvaluateConfidenceFloor(t *testing.T) {
	m := newMatcher(t)
	history := emotions("frustration", 72, "frustration", 69, "frustration", 71)

	_, ok := m.Evaluate(context.Background(), "s1", "acme", history, t0)
	assert.False(t, ok)
}

func TestEvaluateSuffixExactness(t *testing.T) {
	m := newMatcher(t)

	// An interleaved emotion breaks the contiguous suffix.
	broken := emotions("confusion", 66, "excitement", 90, "frustration", 70)
	_, ok := m.Evaluate(context.Background(), "s1", "acme", broken, t0)
	assert.False(t, ok)

	contiguous := emotions("confusion", 66, "frustration", 70)
	ev, ok := m.Evaluate(context.Background(), "s2", "acme", contiguous, t0)
	require.True(t, ok)
	assert.Equal(t, domain.InterventionGuidance, ev.Type)
}

func TestEvaluateShortHistory(t *testing.T) {
	m := newMatcher(t)
	history := emotions("frustration", 90, "frustration", 90)

	_, ok := m.Evaluate(context.Background(), "s1", "acme", history, t0)
	assert.False(t, ok)
}

// twoRuleTable has two intervention rules matching the same tail, which the
// default table deliberately never has.
func twoRuleTable(firstCooldownMs int64) *rules.Table {
	tbl := rules.Defaults()
	tbl.Interventions = []rules.InterventionRule{
		{
			ID:         "first",
			Sequence:   []rules.SequenceStep{{Emotion: "frustration", MinConfidence: 60}},
			CooldownMs: firstCooldownMs,
			Type:       "first_type",
		},
		{
			ID:         "second",
			Sequence:   []rules.SequenceStep{{Emotion: "frustration", MinConfidence: 60}},
			CooldownMs: 0,
			Type:       "second_type",
		},
	}
	return tbl
}

func TestEvaluateFirstMatchWins(t *testing.T) {
	history := emotions("frustration", 80)

	// Both rules match; the earlier one wins every time.
	for i := 0; i < 3; i++ {
		m := NewMatcher(twoRuleTable(300_000), NewMemoryCooldowns(), nil)
		ev, ok := m.Evaluate(context.Background(), "s1", "acme", history, t0)
		require.True(t, ok)
		assert.Equal(t, "first_type", ev.Type)
	}
}

func TestEvaluateCooldownBlocksRefire(t *testing.T) {
	m := newMatcher(t)
	history := emotions("purchase_intent", 75)

	ev, ok := m.Evaluate(context.Background(), "s1", "acme", history, t0)
	require.True(t, ok)
	assert.Equal(t, domain.InterventionPriceAssist, ev.Type)

	// 9 minutes later: still inside the 600s cooldown.
	_, ok = m.Evaluate(context.Background(), "s1", "acme", history, t0.Add(9*time.Minute))
	assert.False(t, ok)

	// 11 minutes later: window elapsed, fires again.
	ev, ok = m.Evaluate(context.Background(), "s1", "acme", history, t0.Add(11*time.Minute))
	require.True(t, ok)
	assert.Equal(t, domain.InterventionPriceAssist, ev.Type)
}

func TestEvaluateCooldownIsPerSession(t *testing.T) {
	m := newMatcher(t)
	history := emotions("purchase_intent", 75)

	_, ok := m.Evaluate(context.Background(), "s1", "acme", history, t0)
	require.True(t, ok)

	// A different session is unaffected by s1's cooldown.
	_, ok = m.Evaluate(context.Background(), "s2", "acme", history, t0.Add(time.Second))
	assert.True(t, ok)
}

func TestEvaluateCooldownSkipsToNextRule(t *testing.T) {
	m := NewMatcher(twoRuleTable(300_000), NewMemoryCooldowns(), nil)
	history := emotions("frustration", 80)

	ev, ok := m.Evaluate(context.Background(), "s1", "acme", history, t0)
	require.True(t, ok)
	assert.Equal(t, "first_type", ev.Type)

	// While the first rule cools down, the second one gets its turn.
	ev, ok = m.Evaluate(context.Background(), "s1", "acme", history, t0.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, "second_type", ev.Type)
}

func TestEvaluateConcurrentSingleFire(t *testing.T) {
	m := newMatcher(t)
	history := emotions("abandonment_risk", 90)

	fired := make(chan domain.InterventionEvent, 16)
	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			if ev, ok := m.Evaluate(context.Background(), "s1", "acme", history, t0); ok {
				fired <- ev
			}
		}()
	}
	for i := 0; i < 16; i++ {
		<-done
	}
	close(fired)

	count := 0
	for range fired {
		count++
	}
	assert.Equal(t, 1, count, "cooldown acquire must admit exactly one concurrent evaluation")
}
