package publisher

import (
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/value"
)

// shouldDeliver implements spec.md §4.4's per-slot delivery-mode filter.
// It does not mutate slot state — callers update last_sent_value /
// last_sent_at_us / exhausted_once themselves once a delivery is
// actually made, since a filter check that passes can still lose a race
// with connection teardown before the frame is written.
func shouldDeliver(s *slot, v value.V, nowUs uint64) bool {
	switch s.mode.Mode {
	case message.ModeOnce:
		return !s.exhaustedOnce
	case message.ModeOnChange:
		return s.lastSentValue == nil || !value.Equal(v, *s.lastSentValue)
	case message.ModePeriodic:
		return s.lastSentAtUs == 0 || nowUs-s.lastSentAtUs >= s.mode.PeriodUs
	default:
		return false
	}
}
