package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerSnapshotBasics(t *testing.T) {
	tr := NewTracker(t0)
	tr.NoteSignal(t0.Add(10 * time.Second))

	ctx := tr.Snapshot(t0.Add(14*time.Second), "pricing", 0.9)
	assert.Equal(t, 4*time.Second, ctx.IdleTime)
	assert.Equal(t, 14*time.Second, ctx.TimeOnPage)
	assert.Equal(t, "pricing", ctx.Section)
	assert.Equal(t, 0.9, ctx.SectionConfidence)
	assert.Equal(t, 0, ctx.RecentEmotionCount)
}

func TestTrackerConsistency(t *testing.T) {
	tr := NewTracker(t0)

	// Undefined before any emotion: neutral default.
	assert.Equal(t, 0.5, tr.Snapshot(t0, "", 0).BehaviorConsistency)

	tr.NoteEmotion("frustration", t0.Add(time.Second))
	tr.NoteEmotion("confusion", t0.Add(2*time.Second))
	assert.Equal(t, 0.0, tr.Snapshot(t0.Add(3*time.Second), "", 0).BehaviorConsistency)

	for i := 0; i < 5; i++ {
		tr.NoteEmotion("frustration", t0.Add(time.Duration(3+i)*time.Second))
	}
	// Last five are all frustration: 1 - 1/5.
	assert.InDelta(t, 0.8, tr.Snapshot(t0.Add(10*time.Second), "", 0).BehaviorConsistency, 1e-9)
}

func TestTrackerEmotionRateWindow(t *testing.T) {
	tr := NewTracker(t0)
	for i := 0; i < 6; i++ {
		tr.NoteEmotion("frustration", t0.Add(time.Duration(i)*time.Second))
	}
	assert.Equal(t, 6, tr.Snapshot(t0.Add(6*time.Second), "", 0).RecentEmotionCount)

	// 35s later everything has aged out of the 30s window.
	assert.Equal(t, 0, tr.Snapshot(t0.Add(41*time.Second), "", 0).RecentEmotionCount)
}
