// Package store persists finalized pipeline events for analytics.
// The pipeline treats the sink as fire-and-forget: a failed write is
// logged and never blocks or fails signal processing.
package store

import (
	"context"
	"time"

	"github.com/sentientiq/pulse/internal/domain"
)

// Sink is the analytics persistence interface.
type Sink interface {
	// SaveEmotionEvent appends a finalized emotion event.
	SaveEmotionEvent(ctx context.Context, ev *domain.EmotionEvent) error

	// SaveInterventionEvent appends a dispatched intervention event.
	SaveInterventionEvent(ctx context.Context, ev *domain.InterventionEvent) error

	// EventCounts returns total stored emotion and intervention events.
	EventCounts(ctx context.Context) (emotions, interventions int64, err error)

	// PurgeOlderThan deletes events recorded before cutoff, returning the
	// number of rows removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies the sink is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}
