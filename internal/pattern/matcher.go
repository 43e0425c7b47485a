package pattern

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sentientiq/pulse/internal/domain"
	"github.com/sentientiq/pulse/internal/rules"
)

// Matcher evaluates a session's emotion history against the intervention
// rule table. First rule in table order that matches wins; there is no
// global best-match search, keeping evaluation deterministic and O(rules).
type Matcher struct {
	rules     []rules.InterventionRule
	cooldowns CooldownRegistry
	logger    *slog.Logger
}

// NewMatcher creates a matcher over a validated rule table.
func NewMatcher(table *rules.Table, cooldowns CooldownRegistry, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{rules: table.Interventions, cooldowns: cooldowns, logger: logger}
}

// Evaluate returns at most one intervention for the given history. A rule
// matches when the tail of the history equals its sequence exactly: same
// emotions in order, every step at or above its confidence floor. On a
// match the cooldown is acquired atomically before the event is returned,
// so two near-simultaneous evaluations can never both fire the same rule.
func (m *Matcher) Evaluate(ctx context.Context, sessionID, tenantID string, history []domain.EmotionEvent, now time.Time) (domain.InterventionEvent, bool) {
	for _, rule := range m.rules {
		if m.cooldowns.InCooldown(ctx, sessionID, rule.ID, rule.Cooldown(), now) {
			continue
		}
		if !suffixMatches(history, rule.Sequence) {
			continue
		}

		ok, err := m.cooldowns.TryAcquire(ctx, sessionID, rule.ID, rule.Cooldown(), now)
		if err != nil {
			m.logger.Warn("cooldown registry unavailable, skipping rule",
				"session_id", sessionID, "rule_id", rule.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		last := history[len(history)-1]
		return domain.InterventionEvent{
			ID:         uuid.NewString(),
			SessionID:  sessionID,
			TenantID:   tenantID,
			Type:       rule.Type,
			Emotion:    last.Emotion,
			Confidence: last.Confidence,
			Timestamp:  now,
		}, true
	}
	return domain.InterventionEvent{}, false
}

// suffixMatches reports whether the last len(seq) history entries satisfy
// the sequence position by position. This is a contiguous suffix match,
// not a subsequence search.
func suffixMatches(history []domain.EmotionEvent, seq []rules.SequenceStep) bool {
	if len(history) < len(seq) {
		return false
	}
	tail := history[len(history)-len(seq):]
	for i, step := range seq {
		if tail[i].Emotion != step.Emotion || tail[i].Confidence < step.MinConfidence {
			return false
		}
	}
	return true
}
