package engine

import (
	"time"

	"github.com/sentientiq/pulse/internal/rules"
)

const (
	// antiSignalLookback is how far back an anti-signal disqualifies a rule.
	// Deliberately shorter than the 10s active window: a contradicting
	// signal from 8s ago no longer vetoes a fresh burst.
	antiSignalLookback = 5000 * time.Millisecond

	// minConfidence is the floor below which a candidate is meaningless.
	minConfidence = 50
)

// Candidate is the classifier's output: the best-scoring emotion for the
// current active signal set.
type Candidate struct {
	Emotion    string
	Confidence float64
	Matched    []string
}

// Classifier scores the active signal set against the emotion rule table.
// It is stateless; all session state arrives through the arguments.
type Classifier struct {
	rules []rules.EmotionRule
}

// NewClassifier creates a classifier over a validated rule table.
func NewClassifier(table *rules.Table) *Classifier {
	return &Classifier{rules: table.Emotions}
}

// Classify returns the highest-confidence candidate for the active set, or
// false when no rule qualifies. Ties resolve to the earlier rule in table
// order. active maps each in-window signal type to its latest observation.
//
// The contextual multipliers compose multiplicatively in a fixed order on
// the unclamped running product; clamping to the rule's max happens exactly
// once at the end.
func (c *Classifier) Classify(active map[string]time.Time, ctx Context, now time.Time) (Candidate, bool) {
	var best Candidate
	found := false

	for _, rule := range c.rules {
		if c.disqualified(rule, active, now) {
			continue
		}

		var matched []string
		weightSum := 0.0
		for _, s := range rule.Signals {
			if _, ok := active[s.Type]; ok {
				matched = append(matched, s.Type)
				weightSum += s.Weight
			}
		}
		if len(matched) < rule.Required {
			continue
		}

		confidence := rule.BaseConfidence + weightSum*10

		if ctx.SectionConfidence < 0.7 {
			confidence *= 0.8
		}
		if ctx.TimeOnPage < 3000*time.Millisecond {
			confidence *= 0.7
		}
		if ctx.BehaviorConsistency > 0.8 {
			confidence *= 1.2
		}
		if ctx.IdleTime > 5000*time.Millisecond {
			confidence *= 0.8
		}
		if ctx.RecentEmotionCount > 5 {
			confidence *= 0.7
		}

		if confidence > rule.MaxConfidence {
			confidence = rule.MaxConfidence
		}
		if confidence <= minConfidence {
			continue
		}

		if !found || confidence > best.Confidence {
			best = Candidate{Emotion: rule.Emotion, Confidence: confidence, Matched: matched}
			found = true
		}
	}

	return best, found
}

func (c *Classifier) disqualified(rule rules.EmotionRule, active map[string]time.Time, now time.Time) bool {
	for _, anti := range rule.AntiSignals {
		if at, ok := active[anti]; ok && now.Sub(at) <= antiSignalLookback {
			return true
		}
	}
	return false
}
