package domain

import "time"

// Intervention types dispatched by the default pattern table.
const (
	InterventionHelpOffer   = "help_offer"
	InterventionGuidance    = "guidance"
	InterventionExitIntent  = "exit_intent"
	InterventionPriceAssist = "price_assist"
)

// InterventionEvent is emitted when a session's emotion history matches a
// pattern rule. At most one is emitted per cooldown window per
// (session, rule). Delivery to the owning session is best-effort; monitors
// always observe a copy.
type InterventionEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	TenantID   string    `json:"tenantId"`
	Type       string    `json:"interventionType"`
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}
