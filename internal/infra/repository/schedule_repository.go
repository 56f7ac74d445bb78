package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/observability/tracing"
)

const (
	keyPrefix        = "itinerary:"
	itemKeySegment   = ":item:"
	deletedSegment   = ":deleted:"
	dayKeySegment    = ":day:"
	pendingKeySuffix = ":pending"
	indexKeySuffix   = ":items"

	maxWatchRetries = 5
)

type segmentRecord struct {
	Mode        string `json:"mode"`
	FromStation string `json:"from_station"`
	ToStation   string `json:"to_station"`
}

type itemRecord struct {
	ID                string          `json:"id"`
	DayDate           string          `json:"day_date"`
	Kind              string          `json:"type"`
	Title             string          `json:"title"`
	Location          string          `json:"location"`
	Notes             string          `json:"notes"`
	StartTime         string          `json:"start_time"`
	Duration          string          `json:"duration"`
	EndTime           string          `json:"end_time"`
	SortOrder         int             `json:"sort_order"`
	TransportSegments []segmentRecord `json:"transport_segments"`
	Revision          int64           `json:"revision"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// multiGetter is satisfied by both *redis.Client and *redis.Tx.
type multiGetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

type scheduleRepository struct {
	client *redis.Client
	tripID string
	now    func() time.Time
}

// NewScheduleRepository stores the items of one trip. Each item is a JSON
// record; day sequences and the pending pool are sorted sets scored by sort
// order. Writes carrying a revision older than the stored one are refused,
// and a deleted id leaves a tombstone so late writes cannot bring it back.
func NewScheduleRepository(client *redis.Client, tripID string) domain.ScheduleRepository {
	return &scheduleRepository{
		client: client,
		tripID: tripID,
		now:    time.Now,
	}
}

func (r *scheduleRepository) itemKey(id string) string {
	return keyPrefix + r.tripID + itemKeySegment + id
}

func (r *scheduleRepository) deletedKey(id string) string {
	return keyPrefix + r.tripID + deletedSegment + id
}

func (r *scheduleRepository) dayKey(date string) string {
	if date == "" {
		return keyPrefix + r.tripID + pendingKeySuffix
	}
	return keyPrefix + r.tripID + dayKeySegment + date
}

func (r *scheduleRepository) indexKey() string {
	return keyPrefix + r.tripID + indexKeySuffix
}

func (r *scheduleRepository) ListItems(ctx context.Context) ([]domain.ScheduleItem, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, err
	}

	items, err := r.fetch(ctx, r.client, ids)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(items, func(a, b domain.ScheduleItem) int {
		return cmp.Or(
			compareDay(a.DayDate, b.DayDate),
			cmp.Compare(a.SortOrder, b.SortOrder),
			cmp.Compare(a.ID, b.ID),
		)
	})

	return items, nil
}

// compareDay orders dated days first and the pending pool last.
func compareDay(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	default:
		return cmp.Compare(a, b)
	}
}

func (r *scheduleRepository) UpsertItem(ctx context.Context, item *domain.ScheduleItem) error {
	if item == nil || item.ID == "" {
		return ErrMissingIdentifier
	}

	ctx, span := tracing.StartRedisOperationSpan(ctx, "upsert_item", r.itemKey(item.ID))
	defer span.End()

	var rejected error
	keys := []string{r.itemKey(item.ID), r.deletedKey(item.ID)}
	err := r.watch(ctx, keys, func(tx *redis.Tx) error {
		rejected = nil

		deleted, err := r.loadTombstones(ctx, tx, []string{item.ID})
		if err != nil {
			return err
		}
		if deleted[item.ID] {
			rejected = domain.ErrItemDeleted
			return nil
		}

		stored, err := r.loadRecords(ctx, tx, []string{item.ID})
		if err != nil {
			return err
		}

		prev, exists := stored[item.ID]
		if exists && prev.Revision > item.Revision {
			rejected = domain.ErrStaleRevision
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return r.write(ctx, pipe, prev, exists, *item)
		})
		return err
	})
	if err == nil {
		err = rejected
	}

	tracing.RecordResult(span, err)
	return err
}

// UpsertItems writes all items in one transaction. Deleted items and items
// whose stored revision is newer are left untouched.
func (r *scheduleRepository) UpsertItems(ctx context.Context, items []domain.ScheduleItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, 0, len(items))
	keys := make([]string, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			return ErrMissingIdentifier
		}
		ids = append(ids, it.ID)
		keys = append(keys, r.itemKey(it.ID), r.deletedKey(it.ID))
	}

	ctx, span := tracing.StartRedisOperationSpan(ctx, "upsert_items", r.indexKey())
	defer span.End()

	err := r.watch(ctx, keys, func(tx *redis.Tx) error {
		deleted, err := r.loadTombstones(ctx, tx, ids)
		if err != nil {
			return err
		}

		stored, err := r.loadRecords(ctx, tx, ids)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, it := range items {
				if deleted[it.ID] {
					continue
				}
				prev, exists := stored[it.ID]
				if exists && prev.Revision > it.Revision {
					continue
				}
				if err := r.write(ctx, pipe, prev, exists, it); err != nil {
					return err
				}
			}
			return nil
		})
		return err
	})

	tracing.RecordResult(span, err)
	return err
}

// DeleteItem removes the item and tombstones its id. The tombstone is
// written even when no record exists, so an upsert still in flight for a
// new item cannot recreate it. ErrItemNotFound is returned in that case.
func (r *scheduleRepository) DeleteItem(ctx context.Context, id string) error {
	key := r.itemKey(id)

	ctx, span := tracing.StartRedisOperationSpan(ctx, "delete_item", key)
	defer span.End()

	exists := false
	err := r.watch(ctx, []string{key}, func(tx *redis.Tx) error {
		stored, err := r.loadRecords(ctx, tx, []string{id})
		if err != nil {
			return err
		}

		var prev itemRecord
		prev, exists = stored[id]

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.deletedKey(id), r.now().UTC().Format(time.RFC3339), 0)
			if exists {
				pipe.Del(ctx, key)
				pipe.ZRem(ctx, r.dayKey(prev.DayDate), id)
				pipe.SRem(ctx, r.indexKey(), id)
			}
			return nil
		})
		return err
	})
	if err == nil && !exists {
		err = domain.ErrItemNotFound
	}

	tracing.RecordResult(span, err)
	return err
}

func (r *scheduleRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisConnection, err)
	}
	return nil
}

// watch runs fn in an optimistic transaction over keys and retries when a
// watched key changes before the transaction commits.
func (r *scheduleRepository) watch(ctx context.Context, keys []string, fn func(*redis.Tx) error) error {
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := r.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return ErrConcurrentUpdate
}

func (r *scheduleRepository) loadRecords(ctx context.Context, c multiGetter, ids []string) (map[string]itemRecord, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.itemKey(id)
	}

	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make(map[string]itemRecord, len(ids))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec itemRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, ErrInvalidItemData
		}
		records[ids[i]] = rec
	}
	return records, nil
}

// loadTombstones reports which of ids have been deleted.
func (r *scheduleRepository) loadTombstones(ctx context.Context, c multiGetter, ids []string) (map[string]bool, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.deletedKey(id)
	}

	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	deleted := make(map[string]bool)
	for i, v := range values {
		if v != nil {
			deleted[ids[i]] = true
		}
	}
	return deleted, nil
}

// fetch returns the items for ids in the given order, skipping ids whose
// record has vanished.
func (r *scheduleRepository) fetch(ctx context.Context, c multiGetter, ids []string) ([]domain.ScheduleItem, error) {
	if len(ids) == 0 {
		return []domain.ScheduleItem{}, nil
	}

	records, err := r.loadRecords(ctx, c, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ScheduleItem, 0, len(records))
	for _, id := range ids {
		if rec, ok := records[id]; ok {
			items = append(items, toDomain(rec))
		}
	}
	return items, nil
}

func (r *scheduleRepository) write(ctx context.Context, pipe redis.Pipeliner, prev itemRecord, exists bool, item domain.ScheduleItem) error {
	rec := toRecord(item, r.now().UTC())
	data, err := json.Marshal(rec)
	if err != nil {
		return ErrInvalidItemData
	}

	if exists && prev.DayDate != item.DayDate {
		pipe.ZRem(ctx, r.dayKey(prev.DayDate), item.ID)
	}
	pipe.Set(ctx, r.itemKey(item.ID), data, 0)
	pipe.ZAdd(ctx, r.dayKey(item.DayDate), redis.Z{Score: float64(item.SortOrder), Member: item.ID})
	pipe.SAdd(ctx, r.indexKey(), item.ID)
	return nil
}

func toRecord(item domain.ScheduleItem, updatedAt time.Time) itemRecord {
	segments := make([]segmentRecord, 0, len(item.TransportSegments))
	for _, s := range item.TransportSegments {
		segments = append(segments, segmentRecord{
			Mode:        string(s.Mode),
			FromStation: s.FromStation,
			ToStation:   s.ToStation,
		})
	}

	return itemRecord{
		ID:                item.ID,
		DayDate:           item.DayDate,
		Kind:              item.Kind.String(),
		Title:             item.Title,
		Location:          item.Location,
		Notes:             item.Notes,
		StartTime:         item.StartTime,
		Duration:          item.Duration,
		EndTime:           item.EndTime,
		SortOrder:         item.SortOrder,
		TransportSegments: segments,
		Revision:          item.Revision,
		UpdatedAt:         updatedAt,
	}
}

func toDomain(rec itemRecord) domain.ScheduleItem {
	segments := make([]domain.TransportSegment, 0, len(rec.TransportSegments))
	for _, s := range rec.TransportSegments {
		segments = append(segments, domain.TransportSegment{
			Mode:        domain.TransportMode(s.Mode),
			FromStation: s.FromStation,
			ToStation:   s.ToStation,
		})
	}

	return domain.ScheduleItem{
		ID:                rec.ID,
		DayDate:           rec.DayDate,
		Kind:              domain.Kind(rec.Kind),
		Title:             rec.Title,
		Location:          rec.Location,
		Notes:             rec.Notes,
		StartTime:         rec.StartTime,
		Duration:          rec.Duration,
		EndTime:           rec.EndTime,
		SortOrder:         rec.SortOrder,
		TransportSegments: segments,
		Revision:          rec.Revision,
	}
}

func decodeItem(data []byte) (domain.ScheduleItem, error) {
	var rec itemRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.ScheduleItem{}, ErrInvalidItemData
	}
	return toDomain(rec), nil
}
