package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSignalBufferCooldownRejectsDuplicates(t *testing.T) {
	b := NewSignalBuffer()

	assert.True(t, b.Record("rage_click", t0))
	assert.False(t, b.Record("rage_click", t0.Add(500*time.Millisecond)))
	assert.False(t, b.Record("rage_click", t0.Add(1999*time.Millisecond)))
	assert.Equal(t, 1, b.Len())

	// A different type is not affected by the cooldown.
	assert.True(t, b.Record("scroll", t0.Add(500*time.Millisecond)))

	// Exactly at the cooldown boundary the signal is accepted again.
	assert.True(t, b.Record("rage_click", t0.Add(2*time.Second)))
}

func TestSignalBufferCapped(t *testing.T) {
	b := NewSignalBuffer()
	for i := 0; i < 80; i++ {
		assert.True(t, b.Record(fmt.Sprintf("s%d", i), t0.Add(time.Duration(i)*10*time.Millisecond)))
	}
	assert.Equal(t, 50, b.Len())

	// Oldest entries were evicted first.
	active := b.Active(t0.Add(800 * time.Millisecond))
	_, hasOldest := active["s0"]
	_, hasNewest := active["s79"]
	assert.False(t, hasOldest)
	assert.True(t, hasNewest)
}

func TestSignalBufferWindowEviction(t *testing.T) {
	b := NewSignalBuffer()
	b.Record("rage_click", t0)
	b.Record("scroll", t0.Add(8*time.Second))

	active := b.Active(t0.Add(11 * time.Second))
	_, hasRage := active["rage_click"]
	_, hasScroll := active["scroll"]
	assert.False(t, hasRage)
	assert.True(t, hasScroll)
	assert.Equal(t, 1, b.Len())
}

func TestSignalBufferActiveReportsLatestObservation(t *testing.T) {
	b := NewSignalBuffer()
	b.Record("rage_click", t0)
	b.Record("rage_click", t0.Add(3*time.Second))

	active := b.Active(t0.Add(4 * time.Second))
	assert.Equal(t, t0.Add(3*time.Second), active["rage_click"])
}
