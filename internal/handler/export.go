package handler

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
)

var exportHeader = []string{
	"day_date", "day_label", "sort_order", "type", "title",
	"start_time", "end_time", "duration", "location", "notes", "transport",
}

// HandleExportCSV writes every scheduled item in day order followed by the
// pending pool.
func (h *ScheduleHandler) HandleExportCSV(c *gin.Context) {
	ctx := c.Request.Context()
	trip := h.service.Trip()
	items := h.service.Items()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", trip.ID+".csv"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if err := writeCSV(c.Writer, items); err != nil {
		slog.ErrorContext(ctx, "failed to write csv export",
			slog.String("trip_id", trip.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	slog.InfoContext(ctx, "itinerary exported",
		slog.String("trip_id", trip.ID),
		slog.Int("item_count", len(items)),
	)
}

func writeCSV(w io.Writer, items []domain.ScheduleItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}

	for _, it := range items {
		label := ""
		if t, err := domain.ParseDate(it.DayDate); err == nil {
			label = domain.NewDay(t).Label
		}

		row := []string{
			it.DayDate,
			label,
			strconv.Itoa(it.SortOrder),
			it.Kind.String(),
			it.DisplayTitle(),
			it.StartTime,
			it.EndTime,
			it.Duration,
			it.Location,
			it.Notes,
			formatSegments(it.TransportSegments),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatSegments(segments []domain.TransportSegment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, fmt.Sprintf("%s: %s → %s", s.Mode, s.FromStation, s.ToStation))
	}
	return strings.Join(parts, " / ")
}
