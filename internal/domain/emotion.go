package domain

import "time"

// Emotion names produced by the default rule table.
const (
	EmotionFrustration     = "frustration"
	EmotionConfusion       = "confusion"
	EmotionPurchaseIntent  = "purchase_intent"
	EmotionAbandonmentRisk = "abandonment_risk"
	EmotionHesitation      = "hesitation"
	EmotionExcitement      = "excitement"
)

// EmotionEvent is a scored classification derived from a set of co-occurring
// signals. Immutable once created; appended to the session's emotion history
// and never mutated afterwards.
type EmotionEvent struct {
	SessionID  string    `json:"sessionId"`
	TenantID   string    `json:"tenantId"`
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Section    string    `json:"section"`
	Signals    []string  `json:"signals"`
	Timestamp  time.Time `json:"timestamp"`
}
