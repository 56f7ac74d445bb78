// Package chain recomputes the time chain of a day: each item ends at its
// start plus duration and the next item starts where it ends.
package chain

import (
	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/timecode"
)

// Recompute returns a copy of items in which every item from startIndex on
// has EndTime = StartTime + Duration and passes that end on as the next
// item's StartTime. Items before startIndex are copied untouched. An empty
// sequence or an out-of-range startIndex is a no-op.
func Recompute(items []domain.ScheduleItem, startIndex int) []domain.ScheduleItem {
	out := make([]domain.ScheduleItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}

	if startIndex < 0 || startIndex >= len(out) {
		return out
	}

	for i := startIndex; i < len(out); i++ {
		end, _ := timecode.AddSpan(out[i].StartTime, out[i].Duration)
		out[i].EndTime = end
		if i+1 < len(out) {
			out[i+1].StartTime = end
		}
	}

	return out
}

// SpillIndex returns the index of the first item whose end, accumulated from
// the first item's start, reaches midnight by the same rule as
// timecode.AddSpan, or -1 when the day fits. DayDate is never advanced;
// callers use this only to warn.
func SpillIndex(items []domain.ScheduleItem) int {
	if len(items) == 0 {
		return -1
	}

	total := timecode.ParseTime(items[0].StartTime)
	for i := range items {
		d := items[i].Duration
		if d == "" {
			d = timecode.Zero
		}
		total += timecode.ParseTime(d)
		if timecode.DayOffset(total) > 0 {
			return i
		}
	}
	return -1
}
