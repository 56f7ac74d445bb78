package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/observability/tracing"
)

// RetryResult summarizes a synchronous re-persist of failed items.
type RetryResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Remaining int `json:"remaining"`
}

// Retry re-persists every recorded failure using the current in-memory
// state. Upserts of items that no longer exist are dropped.
func (s *Service) Retry(ctx context.Context) RetryResult {
	pending := s.Failures()

	var upserts []domain.ScheduleItem
	var deletes []string
	for _, perr := range pending {
		switch perr.Op {
		case domain.OpDelete:
			deletes = append(deletes, perr.ItemID)
		default:
			item, ok := s.Item(perr.ItemID)
			if !ok {
				s.dropFailure(perr.ItemID)
				continue
			}
			upserts = append(upserts, item)
		}
	}

	attempted := len(upserts) + len(deletes)
	failed := 0
	if attempted > 0 {
		failed = s.save(ctx, upserts, deletes)
	}

	result := RetryResult{
		Attempted: attempted,
		Succeeded: attempted - failed,
		Remaining: len(s.Failures()),
	}

	slog.InfoContext(ctx, "retried failed saves",
		slog.Int("attempted", result.Attempted),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("remaining", result.Remaining),
	)

	return result
}

// Autosave writes the whole in-memory itinerary in one bulk upsert and then
// retries outstanding deletes.
func (s *Service) Autosave(ctx context.Context) error {
	ctx, span := tracing.StartAutosaveSpan(ctx)
	defer span.End()

	start := time.Now()
	items := s.Items()

	var errs []error
	if len(items) > 0 {
		if err := s.repo.UpsertItems(ctx, items); err != nil && !errors.Is(err, domain.ErrStaleRevision) {
			errs = append(errs, fmt.Errorf("failed to upsert %d items: %w", len(items), err))
		} else {
			for _, it := range items {
				s.clearFailure(it.ID, it.Revision)
			}
		}
	}

	for _, perr := range s.Failures() {
		if perr.Op != domain.OpDelete {
			continue
		}
		if err := s.repo.DeleteItem(ctx, perr.ItemID); err != nil && !errors.Is(err, domain.ErrItemNotFound) {
			errs = append(errs, fmt.Errorf("failed to delete item %s: %w", perr.ItemID, err))
			continue
		}
		s.dropFailure(perr.ItemID)
	}

	if s.metrics != nil {
		s.metrics.RecordAutosaveDuration(ctx, len(items), time.Since(start))
	}

	err := errors.Join(errs...)
	tracing.RecordResult(span, err)
	if err != nil {
		slog.ErrorContext(ctx, "autosave failed",
			slog.Int("item_count", len(items)),
			slog.String("error", err.Error()),
		)
		return err
	}

	slog.InfoContext(ctx, "autosave completed",
		slog.Int("item_count", len(items)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
