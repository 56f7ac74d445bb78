// Package itinerary serializes access to the in-memory itinerary and keeps
// the store in step with it. Every mutation is applied synchronously and
// persisted in the background; failed writes are kept for retry.
package itinerary

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/observability/metrics"
	"github.com/KasumiMercury/primind-itinerary/internal/observability/tracing"
	"github.com/KasumiMercury/primind-itinerary/internal/service/chain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/planner"
)

const DefaultPersistTimeout = 10 * time.Second

// DayView is one day's sequence. SpillIndex is the first item that runs
// past midnight, or -1.
type DayView struct {
	Day        domain.Day
	Items      []domain.ScheduleItem
	SpillIndex int
}

type failure struct {
	err      domain.PersistenceError
	revision int64
}

type Service struct {
	trip      domain.Trip
	repo      domain.ScheduleRepository
	metrics   *metrics.ScheduleMetrics
	timeout   time.Duration
	boardOpts []planner.Option

	mu    sync.Mutex
	board *planner.Board

	failMu   sync.Mutex
	failures map[string]failure

	saves sync.WaitGroup
}

type Option func(*Service)

func WithMetrics(m *metrics.ScheduleMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPersistTimeout bounds every background save.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithBoardOptions(opts ...planner.Option) Option {
	return func(s *Service) {
		s.boardOpts = append(s.boardOpts, opts...)
	}
}

func NewService(trip domain.Trip, repo domain.ScheduleRepository, opts ...Option) *Service {
	s := &Service{
		trip:     trip,
		repo:     repo,
		timeout:  DefaultPersistTimeout,
		failures: make(map[string]failure),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.board = planner.NewBoard(trip, nil, s.boardOpts...)
	return s
}

// Load replaces the in-memory itinerary with what the store holds.
func (s *Service) Load(ctx context.Context) error {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load itinerary",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to load itinerary: %w", err)
	}

	board := planner.NewBoard(s.trip, items, s.boardOpts...)

	s.mu.Lock()
	s.board = board
	s.mu.Unlock()

	slog.InfoContext(ctx, "itinerary loaded",
		slog.String("trip_id", s.trip.ID),
		slog.Int("item_count", len(items)),
		slog.Int("day_count", len(board.Dates())),
		slog.Int("pending_count", len(board.Pending())),
	)

	return nil
}

func (s *Service) Trip() domain.Trip {
	return s.trip
}

func (s *Service) Day(date string) (DayView, error) {
	t, err := domain.ParseDate(date)
	if err != nil {
		return DayView{}, err
	}
	day := domain.NewDay(t)

	s.mu.Lock()
	items := s.board.Day(date)
	s.mu.Unlock()

	return DayView{Day: day, Items: items, SpillIndex: chain.SpillIndex(items)}, nil
}

func (s *Service) Pending() []domain.ScheduleItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Pending()
}

func (s *Service) Items() []domain.ScheduleItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Items()
}

func (s *Service) Item(id string) (domain.ScheduleItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Item(id)
}

func (s *Service) AddItem(ctx context.Context, day string, kind domain.Kind, d planner.Details) (domain.ScheduleItem, planner.Change, error) {
	var item domain.ScheduleItem
	change, err := s.mutate(ctx, "add_item", "", day, func(b *planner.Board) (planner.Change, error) {
		var err error
		var change planner.Change
		item, change, err = b.AddItem(day, kind, d)
		return change, err
	})
	return item, change, err
}

func (s *Service) UpdateDetails(ctx context.Context, id string, patch planner.DetailsPatch) (planner.Change, error) {
	return s.mutate(ctx, "update_details", id, "", func(b *planner.Board) (planner.Change, error) {
		return b.UpdateDetails(id, patch)
	})
}

func (s *Service) EditTime(ctx context.Context, id string, field domain.TimeField, raw string) (planner.Change, error) {
	return s.mutate(ctx, "edit_time", id, "", func(b *planner.Board) (planner.Change, error) {
		return b.EditTime(id, field, raw)
	})
}

func (s *Service) AddSegment(ctx context.Context, id string, seg domain.TransportSegment) (planner.Change, error) {
	return s.mutate(ctx, "add_segment", id, "", func(b *planner.Board) (planner.Change, error) {
		return b.AddSegment(id, seg)
	})
}

func (s *Service) UpdateSegment(ctx context.Context, id string, index int, seg domain.TransportSegment) (planner.Change, error) {
	return s.mutate(ctx, "update_segment", id, "", func(b *planner.Board) (planner.Change, error) {
		return b.UpdateSegment(id, index, seg)
	})
}

func (s *Service) Reorder(ctx context.Context, day string, order []string) (planner.Change, error) {
	return s.mutate(ctx, "reorder", "", day, func(b *planner.Board) (planner.Change, error) {
		return b.Reorder(day, order)
	})
}

func (s *Service) MoveToDay(ctx context.Context, id, day string) (planner.Change, error) {
	return s.mutate(ctx, "move_to_day", id, day, func(b *planner.Board) (planner.Change, error) {
		return b.MoveToDay(id, day)
	})
}

func (s *Service) Delete(ctx context.Context, id string) planner.Change {
	change, _ := s.mutate(ctx, "delete_item", id, "", func(b *planner.Board) (planner.Change, error) {
		return b.Delete(id), nil
	})
	return change
}

// mutate applies fn under the board lock, reports days that now run past
// midnight and hands the change to a background save.
func (s *Service) mutate(ctx context.Context, op, itemID, day string, fn func(*planner.Board) (planner.Change, error)) (planner.Change, error) {
	ctx, span := tracing.StartMutationSpan(ctx, op, itemID, day)
	defer span.End()

	s.mu.Lock()
	change, err := fn(s.board)
	var spilled []string
	if err == nil {
		spilled = s.spilledDays(change)
	}
	s.mu.Unlock()

	if err != nil {
		tracing.RecordMutationResult(span, false, 0, 0, err)
		slog.WarnContext(ctx, "mutation rejected",
			slog.String("operation", op),
			slog.String("item_id", itemID),
			slog.String("day_date", day),
			slog.String("error", err.Error()),
		)
		return planner.Change{}, err
	}

	tracing.RecordMutationResult(span, change.Applied, len(change.Upserted), len(change.Deleted), nil)
	if s.metrics != nil {
		s.metrics.RecordMutation(ctx, op, change.Applied)
		s.metrics.RecordItemsRecomputed(ctx, op, len(change.Upserted))
	}

	if !change.Applied {
		slog.DebugContext(ctx, "mutation ignored",
			slog.String("operation", op),
			slog.String("item_id", itemID),
			slog.String("day_date", day),
		)
		return change, nil
	}

	for _, date := range spilled {
		slog.WarnContext(ctx, "day runs past midnight",
			slog.String("day_date", date),
			slog.String("operation", op),
		)
		if s.metrics != nil {
			s.metrics.RecordMidnightSpill(ctx)
		}
	}

	s.persist(ctx, change)
	return change, nil
}

// spilledDays must be called with mu held.
func (s *Service) spilledDays(change planner.Change) []string {
	var days []string
	for _, it := range change.Upserted {
		if it.IsPending() || slices.Contains(days, it.DayDate) {
			continue
		}
		if chain.SpillIndex(s.board.Day(it.DayDate)) >= 0 {
			days = append(days, it.DayDate)
		}
	}
	return days
}

// persist saves the change without blocking the caller. The save outlives
// the request context but is bounded by the persist timeout.
func (s *Service) persist(ctx context.Context, change planner.Change) {
	if len(change.Upserted) == 0 && len(change.Deleted) == 0 {
		return
	}

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()

		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		s.save(saveCtx, change.Upserted, change.Deleted)
	}()
}

// save writes upserts before deletes and returns the number of failed items.
func (s *Service) save(ctx context.Context, upserted []domain.ScheduleItem, deleted []string) int {
	ctx, span := tracing.StartSaveSpan(ctx, len(upserted), len(deleted))
	defer span.End()

	start := time.Now()
	failed := 0
	var errs []error

	if len(upserted) > 0 {
		var err error
		if len(upserted) == 1 {
			err = s.repo.UpsertItem(ctx, &upserted[0])
		} else {
			err = s.repo.UpsertItems(ctx, upserted)
		}

		switch {
		case err == nil, errors.Is(err, domain.ErrStaleRevision), errors.Is(err, domain.ErrItemDeleted):
			for _, it := range upserted {
				s.clearFailure(it.ID, it.Revision)
			}
		default:
			for _, it := range upserted {
				s.recordFailure(ctx, domain.NewPersistenceError(it.ID, domain.OpUpsert, err), it.Revision)
			}
			failed += len(upserted)
			errs = append(errs, err)
		}
	}

	for _, id := range deleted {
		if err := s.repo.DeleteItem(ctx, id); err != nil && !errors.Is(err, domain.ErrItemNotFound) {
			s.recordFailure(ctx, domain.NewPersistenceError(id, domain.OpDelete, err), 0)
			failed++
			errs = append(errs, err)
			continue
		}
		s.dropFailure(id)
	}

	outcome := "success"
	if failed > 0 {
		outcome = "failed"
	}
	if s.metrics != nil {
		s.metrics.RecordSaveDuration(ctx, outcome, time.Since(start))
	}
	tracing.RecordResult(span, errors.Join(errs...))

	return failed
}

func (s *Service) recordFailure(ctx context.Context, perr *domain.PersistenceError, revision int64) {
	slog.ErrorContext(ctx, "failed to persist schedule item",
		slog.String("item_id", perr.ItemID),
		slog.String("op", string(perr.Op)),
		slog.Int64("revision", revision),
		slog.String("error", perr.Message),
	)
	if s.metrics != nil {
		s.metrics.RecordPersistenceFailure(ctx, string(perr.Op))
	}

	s.failMu.Lock()
	defer s.failMu.Unlock()
	if prev, ok := s.failures[perr.ItemID]; ok && perr.Op == domain.OpUpsert && prev.revision > revision {
		return
	}
	s.failures[perr.ItemID] = failure{err: *perr, revision: revision}
}

// clearFailure drops a recorded failure that the given revision supersedes.
func (s *Service) clearFailure(id string, revision int64) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if prev, ok := s.failures[id]; ok && prev.revision <= revision {
		delete(s.failures, id)
	}
}

func (s *Service) dropFailure(id string) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	delete(s.failures, id)
}

// Failures lists outstanding persistence errors, oldest first.
func (s *Service) Failures() []domain.PersistenceError {
	s.failMu.Lock()
	defer s.failMu.Unlock()

	out := make([]domain.PersistenceError, 0, len(s.failures))
	for _, f := range s.failures {
		out = append(out, f.err)
	}
	slices.SortFunc(out, func(a, b domain.PersistenceError) int {
		return cmp.Or(a.FailedAt.Compare(b.FailedAt), cmp.Compare(a.ItemID, b.ItemID))
	})
	return out
}

// Wait blocks until every background save has finished.
func (s *Service) Wait() {
	s.saves.Wait()
}
