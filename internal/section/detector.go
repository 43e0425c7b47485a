// Package section infers which page section a visitor is engaging with.
// The pipeline only needs a section name and a confidence; the heuristic
// here keys off the most recent proximity-style signals. A smarter external
// detector can replace it behind the same interface in the session package.
package section

import (
	"time"

	"github.com/sentientiq/pulse/internal/domain"
)

// Detector derives the current section from the session's active signals.
type Detector struct{}

// NewDetector creates the heuristic detector.
func NewDetector() *Detector {
	return &Detector{}
}

// sectionHints maps a signal type to the section it suggests, with the
// confidence we assign when that signal is the freshest hint.
var sectionHints = map[string]struct {
	section    string
	confidence float64
}{
	domain.SignalPriceProximity:   {"pricing", 0.9},
	domain.SignalCTAProximity:     {"pricing", 0.8},
	domain.SignalFormFocus:        {"form", 0.85},
	domain.SignalFormBlur:         {"form", 0.75},
	domain.SignalNavProximity:     {"navigation", 0.7},
	domain.SignalTextSelection:    {"content", 0.65},
	domain.SignalViewportApproach: {"content", 0.55},
	domain.SignalScroll:           {"content", 0.5},
}

// DetectCurrent returns the best section guess for the active signal set.
// With no hints present it reports an unknown section at low confidence,
// which the classifier treats as a dampening context.
func (d *Detector) DetectCurrent(active map[string]time.Time, _ time.Time) (string, float64) {
	var (
		bestSection    = "unknown"
		bestConfidence = 0.4
		bestSeen       time.Time
	)
	for typ, seen := range active {
		hint, ok := sectionHints[typ]
		if !ok {
			continue
		}
		// Freshest hint wins; confidence breaks ties.
		if seen.After(bestSeen) || (seen.Equal(bestSeen) && hint.confidence > bestConfidence) {
			bestSection = hint.section
			bestConfidence = hint.confidence
			bestSeen = seen
		}
	}
	return bestSection, bestConfidence
}
