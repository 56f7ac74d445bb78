// Package planner holds the in-memory itinerary: an explicit mapping from
// day date to its ordered item sequence plus the pending pool. Every
// mutation keeps the affected day chained and returns the items the caller
// has to persist.
//
// A Board is not safe for concurrent use.
package planner

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/chain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/timecode"
)

// pendingKey groups items without a day.
const pendingKey = ""

// Change describes the effect of one mutation.
type Change struct {
	// Applied is false when the referenced item or day did not exist.
	Applied  bool
	Upserted []domain.ScheduleItem
	Deleted  []string
}

type Board struct {
	trip     domain.Trip
	days     map[string][]domain.ScheduleItem
	where    map[string]string
	revision int64
	newID    func() string
}

type Option func(*Board)

// WithIDGenerator replaces uuid generation for new items.
func WithIDGenerator(fn func() string) Option {
	return func(b *Board) {
		b.newID = fn
	}
}

// NewBoard groups items by day and orders each sequence by sort order. Each
// day is then renumbered and re-chained from its first item's start, so
// gaps left in the store do not survive a load. The pool is kept as stored.
func NewBoard(trip domain.Trip, items []domain.ScheduleItem, opts ...Option) *Board {
	b := &Board{
		trip:  trip,
		days:  make(map[string][]domain.ScheduleItem),
		where: make(map[string]string, len(items)),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, item := range items {
		if _, dup := b.where[item.ID]; dup {
			continue
		}
		b.days[item.DayDate] = append(b.days[item.DayDate], item.Clone())
		b.where[item.ID] = item.DayDate
		b.revision = max(b.revision, item.Revision)
	}

	for key := range b.days {
		slices.SortStableFunc(b.days[key], func(a, c domain.ScheduleItem) int {
			return cmp.Compare(a.SortOrder, c.SortOrder)
		})
		if key == pendingKey {
			continue
		}
		b.densify(key)
		b.rechain(key, 0)
	}

	return b
}

func (b *Board) Trip() domain.Trip {
	return b.trip
}

// Day returns a copy of the ordered sequence for date.
func (b *Board) Day(date string) []domain.ScheduleItem {
	return cloneAll(b.days[date])
}

// Pending returns a copy of the pool of unscheduled items.
func (b *Board) Pending() []domain.ScheduleItem {
	return cloneAll(b.days[pendingKey])
}

// Item looks up a single item by id.
func (b *Board) Item(id string) (domain.ScheduleItem, bool) {
	key, ok := b.where[id]
	if !ok {
		return domain.ScheduleItem{}, false
	}
	idx := b.indexOf(key, id)
	return b.days[key][idx].Clone(), true
}

// Items returns every item, days in date order followed by the pool.
func (b *Board) Items() []domain.ScheduleItem {
	keys := make([]string, 0, len(b.days))
	for key := range b.days {
		if key != pendingKey {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	keys = append(keys, pendingKey)

	out := make([]domain.ScheduleItem, 0, len(b.where))
	for _, key := range keys {
		out = append(out, cloneAll(b.days[key])...)
	}
	return out
}

// Dates lists every day key that currently holds items, in date order.
func (b *Board) Dates() []string {
	dates := make([]string, 0, len(b.days))
	for key, seq := range b.days {
		if key != pendingKey && len(seq) > 0 {
			dates = append(dates, key)
		}
	}
	slices.Sort(dates)
	return dates
}

// Revision is the highest revision handed out so far.
func (b *Board) Revision() int64 {
	return b.revision
}

func (b *Board) nextRevision() int64 {
	b.revision++
	return b.revision
}

func (b *Board) indexOf(key, id string) int {
	return slices.IndexFunc(b.days[key], func(it domain.ScheduleItem) bool {
		return it.ID == id
	})
}

// validateDay accepts "" for the pool or a trip date.
func (b *Board) validateDay(date string) error {
	if date == pendingKey {
		return nil
	}
	if _, err := domain.ParseDate(date); err != nil {
		return err
	}
	if len(b.trip.Days()) > 0 && !b.trip.HasDay(date) {
		return domain.ErrDayOutsideTrip
	}
	return nil
}

// rechain recomputes the day sequence from index from. The pool is never
// chained; only the item at from gets its own end time.
func (b *Board) rechain(key string, from int) {
	seq := b.days[key]
	if key == pendingKey {
		if from >= 0 && from < len(seq) {
			seq[from].EndTime, _ = timecode.AddSpan(seq[from].StartTime, seq[from].Duration)
		}
		return
	}
	b.days[key] = chain.Recompute(seq, from)
}

// densify renumbers sort orders to 0..n-1 in sequence order.
func (b *Board) densify(key string) {
	for i := range b.days[key] {
		b.days[key][i].SortOrder = i
	}
}

// remove takes the item out of its sequence and closes the gap it leaves:
// the successor inherits the removed item's start when it becomes first,
// otherwise the chain is recomputed from the removal index.
func (b *Board) remove(id string) (domain.ScheduleItem, bool) {
	key, ok := b.where[id]
	if !ok {
		return domain.ScheduleItem{}, false
	}
	idx := b.indexOf(key, id)
	removed := b.days[key][idx]

	seq := slices.Delete(b.days[key], idx, idx+1)
	delete(b.where, id)
	if len(seq) == 0 {
		delete(b.days, key)
		return removed, true
	}
	b.days[key] = seq
	b.densify(key)

	if key != pendingKey && idx < len(seq) {
		if idx == 0 {
			seq[0].StartTime = removed.StartTime
		} else {
			seq[idx].StartTime = b.endOf(seq[idx-1])
		}
		b.rechain(key, idx)
	}

	return removed, true
}

// push puts item at the end of key's sequence and chains it to its
// predecessor.
func (b *Board) push(key string, item domain.ScheduleItem) int {
	item.DayDate = key
	seq := b.days[key]
	item.SortOrder = len(seq)

	if key != pendingKey {
		if len(seq) > 0 {
			item.StartTime = b.endOf(seq[len(seq)-1])
		} else if item.StartTime == "" {
			item.StartTime = b.trip.WakeupTime
		}
	}

	b.days[key] = append(seq, item)
	b.where[item.ID] = key
	idx := len(b.days[key]) - 1
	b.rechain(key, idx)
	return idx
}

// endOf prefers the stored end and falls back to computing it for items
// that were never recomputed.
func (b *Board) endOf(item domain.ScheduleItem) string {
	if item.EndTime != "" {
		return item.EndTime
	}
	end, _ := timecode.AddSpan(item.StartTime, item.Duration)
	return end
}

func (b *Board) snapshot(keys ...string) map[string]domain.ScheduleItem {
	snap := make(map[string]domain.ScheduleItem)
	for _, key := range keys {
		for _, it := range b.days[key] {
			snap[it.ID] = it.Clone()
		}
	}
	return snap
}

// collect bumps the revision of every item in keys that differs from the
// snapshot and returns copies of them.
func (b *Board) collect(before map[string]domain.ScheduleItem, keys ...string) []domain.ScheduleItem {
	var out []domain.ScheduleItem
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true

		seq := b.days[key]
		for i := range seq {
			prev, ok := before[seq[i].ID]
			if ok && sameContent(prev, seq[i]) {
				continue
			}
			seq[i].Revision = b.nextRevision()
			out = append(out, seq[i].Clone())
		}
	}
	return out
}

func sameContent(a, c domain.ScheduleItem) bool {
	a.Revision, c.Revision = 0, 0
	return reflect.DeepEqual(a, c)
}

func cloneAll(items []domain.ScheduleItem) []domain.ScheduleItem {
	out := make([]domain.ScheduleItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
