package engine

import "time"

const (
	// emotionRateWindow is the trailing window for the anti-spam emotion count.
	emotionRateWindow = 30 * time.Second

	// consistencySpan is how many of the most recent emotions feed the
	// behavioral consistency metric.
	consistencySpan = 5
)

// Context is a point-in-time snapshot of a session's derived metrics,
// consumed by the classifier's contextual multipliers.
type Context struct {
	IdleTime            time.Duration
	TimeOnPage          time.Duration
	RecentEmotionCount  int
	BehaviorConsistency float64
	Section             string
	SectionConfidence   float64
}

// Tracker maintains per-session bookkeeping behind Context snapshots.
// Like SignalBuffer it is owned by the session worker and not locked.
type Tracker struct {
	startedAt    time.Time
	lastSignalAt time.Time
	emotionTimes []time.Time
	lastEmotions []string
}

// NewTracker starts tracking a session first seen at now.
func NewTracker(now time.Time) *Tracker {
	return &Tracker{startedAt: now, lastSignalAt: now}
}

// NoteSignal records an accepted signal.
func (t *Tracker) NoteSignal(now time.Time) {
	t.lastSignalAt = now
}

// NoteEmotion records an emitted emotion event.
func (t *Tracker) NoteEmotion(emotion string, now time.Time) {
	t.emotionTimes = append(t.emotionTimes, now)
	t.pruneEmotions(now)

	t.lastEmotions = append(t.lastEmotions, emotion)
	if len(t.lastEmotions) > consistencySpan {
		t.lastEmotions = t.lastEmotions[len(t.lastEmotions)-consistencySpan:]
	}
}

// Snapshot derives the current context metrics. Section identity comes from
// the external section detector collaborator.
func (t *Tracker) Snapshot(now time.Time, section string, sectionConfidence float64) Context {
	t.pruneEmotions(now)
	return Context{
		IdleTime:            now.Sub(t.lastSignalAt),
		TimeOnPage:          now.Sub(t.startedAt),
		RecentEmotionCount:  len(t.emotionTimes),
		BehaviorConsistency: t.consistency(),
		Section:             section,
		SectionConfidence:   sectionConfidence,
	}
}

// consistency is 1 - unique/total over the last five emitted emotions.
// Before any emotion exists the metric is undefined and defaults to neutral.
func (t *Tracker) consistency() float64 {
	if len(t.lastEmotions) == 0 {
		return 0.5
	}
	unique := make(map[string]struct{}, len(t.lastEmotions))
	for _, e := range t.lastEmotions {
		unique[e] = struct{}{}
	}
	return 1 - float64(len(unique))/float64(len(t.lastEmotions))
}

func (t *Tracker) pruneEmotions(now time.Time) {
	cutoff := now.Add(-emotionRateWindow)
	i := 0
	for i < len(t.emotionTimes) && t.emotionTimes[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		t.emotionTimes = t.emotionTimes[i:]
	}
}
