package planner

import (
	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/timecode"
)

// Details carries the optional user-supplied fields of a new item.
type Details struct {
	Title    string
	Location string
	Notes    string
	Duration string
}

// NewItem builds a draft anchored after the last item of day, or at the
// wake-up time when the day is empty. EndTime stays blank until the draft is
// inserted and recomputed.
func (b *Board) NewItem(day string, kind domain.Kind) (domain.ScheduleItem, error) {
	if !kind.IsValid() {
		return domain.ScheduleItem{}, domain.ErrInvalidKind
	}
	if err := b.validateDay(day); err != nil {
		return domain.ScheduleItem{}, err
	}

	start := b.trip.WakeupTime
	if seq := b.days[day]; day != pendingKey && len(seq) > 0 {
		start = b.endOf(seq[len(seq)-1])
	}

	segments := []domain.TransportSegment{}
	if kind.IsTransport() {
		segments = append(segments, domain.TransportSegment{Mode: domain.ModeSubway})
	}

	return domain.ScheduleItem{
		ID:                b.newID(),
		DayDate:           day,
		Kind:              kind,
		StartTime:         start,
		Duration:          domain.DefaultDuration,
		SortOrder:         len(b.days[day]),
		TransportSegments: segments,
	}, nil
}

// Insert appends a draft to its day and recomputes the chain from it.
func (b *Board) Insert(item domain.ScheduleItem) (Change, error) {
	if _, exists := b.where[item.ID]; exists {
		return Change{}, domain.ErrDuplicateItem
	}
	if !item.Kind.IsValid() {
		return Change{}, domain.ErrInvalidKind
	}
	if err := b.validateDay(item.DayDate); err != nil {
		return Change{}, err
	}

	key := item.DayDate
	before := b.snapshot(key)
	b.push(key, item.Clone())

	return Change{Applied: true, Upserted: b.collect(before, key)}, nil
}

// AddItem creates and inserts an item in one step and returns it as stored.
func (b *Board) AddItem(day string, kind domain.Kind, d Details) (domain.ScheduleItem, Change, error) {
	item, err := b.NewItem(day, kind)
	if err != nil {
		return domain.ScheduleItem{}, Change{}, err
	}

	item.Title = d.Title
	item.Location = d.Location
	item.Notes = d.Notes
	if d.Duration != "" {
		item.Duration = timecode.NormalizeDigitsToTime(d.Duration)
	}

	change, err := b.Insert(item)
	if err != nil {
		return domain.ScheduleItem{}, Change{}, err
	}

	stored, _ := b.Item(item.ID)
	return stored, change, nil
}

// AddSegment appends a transport leg. An empty mode defaults to walking.
func (b *Board) AddSegment(id string, seg domain.TransportSegment) (Change, error) {
	return b.modifyItem(id, func(it *domain.ScheduleItem) error {
		if !it.Kind.IsTransport() {
			return domain.ErrNotTransport
		}
		if seg.Mode == "" {
			seg.Mode = domain.ModeWalk
		}
		it.TransportSegments = append(it.TransportSegments, seg)
		return nil
	})
}

// UpdateSegment replaces the leg at index. An empty mode keeps the current one.
func (b *Board) UpdateSegment(id string, index int, seg domain.TransportSegment) (Change, error) {
	return b.modifyItem(id, func(it *domain.ScheduleItem) error {
		if !it.Kind.IsTransport() {
			return domain.ErrNotTransport
		}
		if index < 0 || index >= len(it.TransportSegments) {
			return domain.ErrSegmentOutOfRange
		}
		if seg.Mode == "" {
			seg.Mode = it.TransportSegments[index].Mode
		}
		it.TransportSegments[index] = seg
		return nil
	})
}

// modifyItem applies fn to the stored item without touching the chain.
func (b *Board) modifyItem(id string, fn func(*domain.ScheduleItem) error) (Change, error) {
	key, ok := b.where[id]
	if !ok {
		return Change{}, nil
	}

	before := b.snapshot(key)
	idx := b.indexOf(key, id)
	updated := b.days[key][idx].Clone()
	if err := fn(&updated); err != nil {
		return Change{}, err
	}
	b.days[key][idx] = updated

	return Change{Applied: true, Upserted: b.collect(before, key)}, nil
}
