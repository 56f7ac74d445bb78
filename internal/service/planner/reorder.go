package planner

import (
	"github.com/KasumiMercury/primind-itinerary/internal/domain"
)

// Reorder applies a drag-and-drop result to one day. Unknown ids are
// ignored and items missing from order keep their relative position after
// the listed ones. The day keeps the start time its first slot had, the
// whole day is recomputed from index 0 and every item of the day is
// returned for a bulk upsert.
func (b *Board) Reorder(day string, order []string) (Change, error) {
	if day == pendingKey {
		return Change{}, domain.ErrInvalidDate
	}
	if _, err := domain.ParseDate(day); err != nil {
		return Change{}, err
	}

	seq := b.days[day]
	if len(seq) == 0 {
		return Change{}, nil
	}

	anchor := seq[0].StartTime
	if anchor == "" {
		anchor = b.trip.WakeupTime
	}

	byID := make(map[string]domain.ScheduleItem, len(seq))
	for _, it := range seq {
		byID[it.ID] = it
	}

	reordered := make([]domain.ScheduleItem, 0, len(seq))
	for _, id := range order {
		if it, ok := byID[id]; ok {
			reordered = append(reordered, it)
			delete(byID, id)
		}
	}
	for _, it := range seq {
		if _, left := byID[it.ID]; left {
			reordered = append(reordered, it)
		}
	}

	reordered[0].StartTime = anchor
	b.days[day] = reordered
	b.densify(day)
	b.rechain(day, 0)

	upserted := make([]domain.ScheduleItem, 0, len(reordered))
	for i := range b.days[day] {
		b.days[day][i].Revision = b.nextRevision()
		upserted = append(upserted, b.days[day][i].Clone())
	}

	return Change{Applied: true, Upserted: upserted}, nil
}

// MoveToDay reassigns an item to another day, or back to the pending pool
// when day is empty. The item is appended to the destination and chained
// from its predecessor; the source day is re-chained from the slot it left.
// An unknown id or a move onto the same day is a no-op.
func (b *Board) MoveToDay(id, day string) (Change, error) {
	if err := b.validateDay(day); err != nil {
		return Change{}, err
	}

	src, ok := b.where[id]
	if !ok || src == day {
		return Change{}, nil
	}

	before := b.snapshot(src, day)
	item, _ := b.remove(id)
	b.push(day, item)

	return Change{Applied: true, Upserted: b.collect(before, src, day)}, nil
}
