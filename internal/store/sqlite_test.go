package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentientiq/pulse/internal/domain"
)

func testSink(t *testing.T) *SQLiteSink {
	t.Helper()
	sink, err := NewSQLite(filepath.Join(t.TempDir(), "pulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func emotionAt(ts time.Time) *domain.EmotionEvent {
	return &domain.EmotionEvent{
		SessionID:  "s1",
		TenantID:   "acme",
		Emotion:    domain.EmotionFrustration,
		Confidence: 76,
		Section:    "pricing",
		Signals:    []string{"rage_click", "direction_changes"},
		Timestamp:  ts,
	}
}

func interventionAt(id string, ts time.Time) *domain.InterventionEvent {
	return &domain.InterventionEvent{
		ID:         id,
		SessionID:  "s1",
		TenantID:   "acme",
		Type:       domain.InterventionHelpOffer,
		Emotion:    domain.EmotionFrustration,
		Confidence: 76,
		Timestamp:  ts,
	}
}

func TestSQLiteSinkSaveAndCount(t *testing.T) {
	sink := testSink(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sink.Ping(ctx))
	require.NoError(t, sink.SaveEmotionEvent(ctx, emotionAt(now)))
	require.NoError(t, sink.SaveEmotionEvent(ctx, emotionAt(now.Add(time.Second))))
	require.NoError(t, sink.SaveInterventionEvent(ctx, interventionAt("iv-1", now)))

	emotions, interventions, err := sink.EventCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), emotions)
	assert.Equal(t, int64(1), interventions)
}

func TestSQLiteSinkInterventionIdempotent(t *testing.T) {
	sink := testSink(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sink.SaveInterventionEvent(ctx, interventionAt("iv-1", now)))
	require.NoError(t, sink.SaveInterventionEvent(ctx, interventionAt("iv-1", now)))

	_, interventions, err := sink.EventCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), interventions)
}

func TestSQLiteSinkPurge(t *testing.T) {
	sink := testSink(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sink.SaveEmotionEvent(ctx, emotionAt(now.Add(-48*time.Hour))))
	require.NoError(t, sink.SaveEmotionEvent(ctx, emotionAt(now)))
	require.NoError(t, sink.SaveInterventionEvent(ctx, interventionAt("old", now.Add(-48*time.Hour))))
	require.NoError(t, sink.SaveInterventionEvent(ctx, interventionAt("new", now)))

	deleted, err := sink.PurgeOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	emotions, interventions, err := sink.EventCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), emotions)
	assert.Equal(t, int64(1), interventions)
}

func TestAsyncSinkWritesEventually(t *testing.T) {
	sink := testSink(t)
	async := NewAsyncSink(sink, 16, nil)

	ctx := context.Background()
	require.NoError(t, async.SaveEmotionEvent(ctx, emotionAt(time.Now())))
	require.NoError(t, async.SaveInterventionEvent(ctx, interventionAt("iv-1", time.Now())))

	assert.Eventually(t, func() bool {
		emotions, interventions, err := async.EventCounts(ctx)
		return err == nil && emotions == 1 && interventions == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAsyncSinkCloseDrainsQueue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.db")
	sink, err := NewSQLite(path)
	require.NoError(t, err)
	async := NewAsyncSink(sink, 64, nil)

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		require.NoError(t, async.SaveEmotionEvent(ctx, emotionAt(time.Now())))
	}
	require.NoError(t, async.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	emotions, _, err := reopened.EventCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), emotions)
}
