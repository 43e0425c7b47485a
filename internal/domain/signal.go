// Package domain holds the core data types flowing through the pipeline.
package domain

import (
	"encoding/json"
	"time"
)

// Signal is a single classified raw interaction event from a web client,
// e.g. a rage click or a mouse exit towards the browser chrome. Signals are
// ephemeral: they live only inside a session's signal buffer and are evicted
// once older than the detection window.
type Signal struct {
	SessionID  string
	TenantID   string
	Type       string
	ObservedAt time.Time
	Payload    json.RawMessage
}

// Signal types emitted by the browser telemetry client.
const (
	SignalRageClick         = "rage_click"
	SignalCircularMotion    = "circular_motion"
	SignalDirectionChanges  = "direction_changes"
	SignalRapidScroll       = "rapid_scroll"
	SignalScroll            = "scroll"
	SignalMouseExit         = "mouse_exit"
	SignalViewportApproach  = "viewport_approach"
	SignalPriceProximity    = "price_proximity"
	SignalCTAProximity      = "cta_proximity"
	SignalNavProximity      = "nav_proximity"
	SignalTabSwitch         = "tab_switch"
	SignalTextSelection     = "text_selection"
	SignalIdle              = "idle"
	SignalFormFocus         = "form_focus"
	SignalFormBlur          = "form_blur"
	SignalVisibilityHidden  = "visibility_hidden"
	SignalVisibilityVisible = "visibility_visible"
)

var knownSignals = map[string]struct{}{
	SignalRageClick:         {},
	SignalCircularMotion:    {},
	SignalDirectionChanges:  {},
	SignalRapidScroll:       {},
	SignalScroll:            {},
	SignalMouseExit:         {},
	SignalViewportApproach:  {},
	SignalPriceProximity:    {},
	SignalCTAProximity:      {},
	SignalNavProximity:      {},
	SignalTabSwitch:         {},
	SignalTextSelection:     {},
	SignalIdle:              {},
	SignalFormFocus:         {},
	SignalFormBlur:          {},
	SignalVisibilityHidden:  {},
	SignalVisibilityVisible: {},
}

// KnownSignal reports whether t is a signal type the pipeline understands.
// Unknown types are discarded at ingest without affecting the session.
func KnownSignal(t string) bool {
	_, ok := knownSignals[t]
	return ok
}
