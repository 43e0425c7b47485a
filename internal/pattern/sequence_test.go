package pattern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentientiq/pulse/internal/domain"
)

func TestSequenceStoreOrdering(t *testing.T) {
	s := NewSequenceStore()
	s.Append(domain.EmotionEvent{Emotion: "confusion"})
	s.Append(domain.EmotionEvent{Emotion: "frustration"})

	events := s.Events()
	assert.Equal(t, "confusion", events[0].Emotion)
	assert.Equal(t, "frustration", events[1].Emotion)
}

func TestSequenceStoreCapped(t *testing.T) {
	s := NewSequenceStore()
	for i := 0; i < 100; i++ {
		s.Append(domain.EmotionEvent{Emotion: fmt.Sprintf("e%d", i)})
	}

	assert.Equal(t, 20, s.Len())
	assert.Equal(t, "e80", s.Events()[0].Emotion)
	assert.Equal(t, "e99", s.Events()[19].Emotion)
}
