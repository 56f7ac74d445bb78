package planner

import (
	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/timecode"
)

// DetailsPatch updates free-text fields; nil leaves a field as it is.
type DetailsPatch struct {
	Title    *string
	Location *string
	Notes    *string
}

// EditTime stores masked input into the start time or duration of an item
// and recomputes its day from that item onwards. EndTime is derived and
// cannot be edited. An unknown id is a no-op.
func (b *Board) EditTime(id string, field domain.TimeField, raw string) (Change, error) {
	if field != domain.FieldStartTime && field != domain.FieldDuration {
		return Change{}, domain.ErrInvalidField
	}

	key, ok := b.where[id]
	if !ok {
		return Change{}, nil
	}

	before := b.snapshot(key)
	idx := b.indexOf(key, id)
	value := timecode.NormalizeDigitsToTime(raw)

	switch field {
	case domain.FieldStartTime:
		b.days[key][idx].StartTime = value
	case domain.FieldDuration:
		b.days[key][idx].Duration = value
	}
	b.rechain(key, idx)

	return Change{Applied: true, Upserted: b.collect(before, key)}, nil
}

func (b *Board) UpdateDetails(id string, patch DetailsPatch) (Change, error) {
	return b.modifyItem(id, func(it *domain.ScheduleItem) error {
		if patch.Title != nil {
			it.Title = *patch.Title
		}
		if patch.Location != nil {
			it.Location = *patch.Location
		}
		if patch.Notes != nil {
			it.Notes = *patch.Notes
		}
		return nil
	})
}

// Delete removes an item and re-chains its day from the index it held, so
// no gap is left behind. An unknown id is a no-op.
func (b *Board) Delete(id string) Change {
	key, ok := b.where[id]
	if !ok {
		return Change{}
	}

	before := b.snapshot(key)
	b.remove(id)

	return Change{
		Applied:  true,
		Upserted: b.collect(before, key),
		Deleted:  []string{id},
	}
}
