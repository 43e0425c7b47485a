package rules

import "github.com/sentientiq/pulse/internal/domain"

// Defaults returns the built-in rule table. Order is priority order.
func Defaults() *Table {
	return &Table{
		Emotions: []EmotionRule{
			{
				Emotion:  domain.EmotionFrustration,
				Required: 2,
				Signals: []SignalWeight{
					{Type: domain.SignalRageClick, Weight: 3},
					{Type: domain.SignalDirectionChanges, Weight: 2},
					{Type: domain.SignalRapidScroll, Weight: 1.5},
					{Type: domain.SignalCircularMotion, Weight: 1},
				},
				AntiSignals:    []string{domain.SignalTextSelection},
				BaseConfidence: 45,
				MaxConfidence:  95,
			},
			{
				Emotion:  domain.EmotionConfusion,
				Required: 2,
				Signals: []SignalWeight{
					{Type: domain.SignalCircularMotion, Weight: 2.5},
					{Type: domain.SignalDirectionChanges, Weight: 2},
					{Type: domain.SignalTabSwitch, Weight: 1.5},
					{Type: domain.SignalScroll, Weight: 1},
				},
				AntiSignals:    []string{domain.SignalCTAProximity},
				BaseConfidence: 40,
				MaxConfidence:  90,
			},
			{
				Emotion:  domain.EmotionPurchaseIntent,
				Required: 2,
				Signals: []SignalWeight{
					{Type: domain.SignalPriceProximity, Weight: 3},
					{Type: domain.SignalCTAProximity, Weight: 2.5},
					{Type: domain.SignalTextSelection, Weight: 1.5},
					{Type: domain.SignalViewportApproach, Weight: 1},
				},
				AntiSignals:    []string{domain.SignalMouseExit},
				BaseConfidence: 50,
				MaxConfidence:  95,
			},
			{
				Emotion:  domain.EmotionAbandonmentRisk,
				Required: 2,
				Signals: []SignalWeight{
					{Type: domain.SignalMouseExit, Weight: 3.5},
					{Type: domain.SignalNavProximity, Weight: 2},
					{Type: domain.SignalTabSwitch, Weight: 1.5},
					{Type: domain.SignalIdle, Weight: 1.5},
				},
				AntiSignals:    []string{domain.SignalFormFocus},
				BaseConfidence: 55,
				MaxConfidence:  98,
			},
			{
				Emotion:  domain.EmotionHesitation,
				Required: 2,
				Signals: []SignalWeight{
					{Type: domain.SignalFormFocus, Weight: 2},
					{Type: domain.SignalIdle, Weight: 1.5},
					{Type: domain.SignalPriceProximity, Weight: 1},
					{Type: domain.SignalVisibilityHidden, Weight: 1},
				},
				AntiSignals:    []string{domain.SignalRageClick},
				BaseConfidence: 40,
				MaxConfidence:  85,
			},
			{
				Emotion:  domain.EmotionExcitement,
				Required: 2,
				Signals: []SignalWeight{
					{Type: domain.SignalViewportApproach, Weight: 2},
					{Type: domain.SignalTextSelection, Weight: 1.5},
					{Type: domain.SignalRapidScroll, Weight: 1.5},
					{Type: domain.SignalCTAProximity, Weight: 1},
				},
				AntiSignals:    []string{domain.SignalIdle},
				BaseConfidence: 45,
				MaxConfidence:  90,
			},
		},
		Interventions: []InterventionRule{
			{
				ID: "help_offer",
				Sequence: []SequenceStep{
					{Emotion: domain.EmotionFrustration, MinConfidence: 70},
					{Emotion: domain.EmotionFrustration, MinConfidence: 70},
					{Emotion: domain.EmotionFrustration, MinConfidence: 70},
				},
				CooldownMs: 300_000,
				Type:       domain.InterventionHelpOffer,
			},
			{
				ID: "guidance",
				Sequence: []SequenceStep{
					{Emotion: domain.EmotionConfusion, MinConfidence: 65},
					{Emotion: domain.EmotionFrustration, MinConfidence: 65},
				},
				CooldownMs: 300_000,
				Type:       domain.InterventionGuidance,
			},
			{
				ID: "exit_intent",
				Sequence: []SequenceStep{
					{Emotion: domain.EmotionAbandonmentRisk, MinConfidence: 85},
				},
				CooldownMs: 86_400_000,
				Type:       domain.InterventionExitIntent,
			},
			{
				ID: "price_assist",
				Sequence: []SequenceStep{
					{Emotion: domain.EmotionPurchaseIntent, MinConfidence: 70},
				},
				CooldownMs: 600_000,
				Type:       domain.InterventionPriceAssist,
			},
		},
	}
}
