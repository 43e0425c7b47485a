// Package rules defines the static emotion and intervention rule tables.
// Tables are loaded once at startup, validated, and never mutated afterwards;
// table order is significant (classification ties and pattern matching both
// resolve in declaration order).
package rules

import (
	"fmt"
	"time"

	"github.com/sentientiq/pulse/internal/domain"
)

// SignalWeight is one scored contributor to an emotion rule.
type SignalWeight struct {
	Type   string  `yaml:"type"`
	Weight float64 `yaml:"weight"`
}

// EmotionRule describes how a set of co-occurring signals maps to an emotion
// candidate. AntiSignals are hard disqualifiers: if one was observed within
// its lookback the rule is skipped regardless of matched weight.
type EmotionRule struct {
	Emotion        string         `yaml:"emotion"`
	Required       int            `yaml:"required"`
	Signals        []SignalWeight `yaml:"signals"`
	AntiSignals    []string       `yaml:"antiSignals"`
	BaseConfidence float64        `yaml:"base"`
	MaxConfidence  float64        `yaml:"max"`
}

// SequenceStep is one position in an intervention rule's emotion sequence.
type SequenceStep struct {
	Emotion       string  `yaml:"emotion"`
	MinConfidence float64 `yaml:"minConfidence"`
}

// InterventionRule fires when the tail of a session's emotion history matches
// Sequence exactly (contiguous suffix, every step at or above its floor).
type InterventionRule struct {
	ID         string         `yaml:"id"`
	Sequence   []SequenceStep `yaml:"sequence"`
	CooldownMs int64          `yaml:"cooldownMs"`
	Type       string         `yaml:"type"`
}

// Cooldown returns the rule's cooldown as a duration.
func (r InterventionRule) Cooldown() time.Duration {
	return time.Duration(r.CooldownMs) * time.Millisecond
}

// Table is the full static rule registry.
type Table struct {
	Emotions      []EmotionRule      `yaml:"emotions"`
	Interventions []InterventionRule `yaml:"interventions"`
}

// Validate checks the structural invariants of the table. It is called once
// at load time so the pipeline can trust the table unconditionally.
func (t *Table) Validate() error {
	if len(t.Emotions) == 0 {
		return fmt.Errorf("rule table has no emotion rules")
	}
	known := make(map[string]struct{}, len(t.Emotions))
	for i, r := range t.Emotions {
		if r.Emotion == "" {
			return fmt.Errorf("emotion rule %d: empty emotion name", i)
		}
		if _, dup := known[r.Emotion]; dup {
			return fmt.Errorf("emotion rule %q: duplicate emotion name", r.Emotion)
		}
		known[r.Emotion] = struct{}{}
		if len(r.Signals) == 0 {
			return fmt.Errorf("emotion rule %q: no signals", r.Emotion)
		}
		if r.Required <= 0 || r.Required > len(r.Signals) {
			return fmt.Errorf("emotion rule %q: required %d out of range [1,%d]", r.Emotion, r.Required, len(r.Signals))
		}
		if r.BaseConfidence <= 0 || r.BaseConfidence > r.MaxConfidence || r.MaxConfidence > 100 {
			return fmt.Errorf("emotion rule %q: confidence bounds base=%.1f max=%.1f violate 0 < base <= max <= 100",
				r.Emotion, r.BaseConfidence, r.MaxConfidence)
		}
		for _, s := range r.Signals {
			if !domain.KnownSignal(s.Type) {
				return fmt.Errorf("emotion rule %q: unknown signal %q", r.Emotion, s.Type)
			}
			if s.Weight <= 0 {
				return fmt.Errorf("emotion rule %q: signal %q weight must be > 0", r.Emotion, s.Type)
			}
		}
		for _, a := range r.AntiSignals {
			if !domain.KnownSignal(a) {
				return fmt.Errorf("emotion rule %q: unknown anti-signal %q", r.Emotion, a)
			}
		}
	}
	ids := make(map[string]struct{}, len(t.Interventions))
	for i, r := range t.Interventions {
		if r.ID == "" {
			return fmt.Errorf("intervention rule %d: empty id", i)
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("intervention rule %q: duplicate id", r.ID)
		}
		ids[r.ID] = struct{}{}
		if r.Type == "" {
			return fmt.Errorf("intervention rule %q: empty intervention type", r.ID)
		}
		if len(r.Sequence) == 0 {
			return fmt.Errorf("intervention rule %q: sequence must have at least one step", r.ID)
		}
		if r.CooldownMs < 0 {
			return fmt.Errorf("intervention rule %q: cooldownMs must be >= 0", r.ID)
		}
		for j, step := range r.Sequence {
			if _, ok := known[step.Emotion]; !ok {
				return fmt.Errorf("intervention rule %q: step %d references unknown emotion %q", r.ID, j, step.Emotion)
			}
			if step.MinConfidence < 0 || step.MinConfidence > 100 {
				return fmt.Errorf("intervention rule %q: step %d confidence floor %.1f out of range", r.ID, j, step.MinConfidence)
			}
		}
	}
	return nil
}
