package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/planner"
)

const (
	errorCodeValidation = "validation_error"
	errorCodeProcessing = "processing_error"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type ItemResponse struct {
	domain.ScheduleItem
	DisplayTitle string `json:"display_title"`
	MapURL       string `json:"map_url,omitempty"`
}

type ChangeResponse struct {
	Applied  bool           `json:"applied"`
	Item     *ItemResponse  `json:"item,omitempty"`
	Upserted []ItemResponse `json:"upserted"`
	Deleted  []string       `json:"deleted"`
}

func toItemResponse(item domain.ScheduleItem) ItemResponse {
	return ItemResponse{
		ScheduleItem: item,
		DisplayTitle: item.DisplayTitle(),
		MapURL:       item.MapURL(),
	}
}

func toItemResponses(items []domain.ScheduleItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	return out
}

func toChangeResponse(change planner.Change) ChangeResponse {
	deleted := change.Deleted
	if deleted == nil {
		deleted = []string{}
	}
	return ChangeResponse{
		Applied:  change.Applied,
		Upserted: toItemResponses(change.Upserted),
		Deleted:  deleted,
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// respondServiceError maps domain validation errors to 400 and anything else
// to 500.
func respondServiceError(c *gin.Context, err error) {
	if isValidationError(err) {
		slog.WarnContext(c.Request.Context(), "request rejected",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadRequest, errorCodeValidation, err.Error())
		return
	}

	slog.ErrorContext(c.Request.Context(), "request failed",
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
	)
	respondError(c, http.StatusInternalServerError, errorCodeProcessing, err.Error())
}

func isValidationError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidDate,
		domain.ErrDayOutsideTrip,
		domain.ErrInvalidKind,
		domain.ErrInvalidField,
		domain.ErrNotTransport,
		domain.ErrSegmentOutOfRange,
		domain.ErrDuplicateItem,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// bindJSON decodes the body and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		slog.WarnContext(c.Request.Context(), "request unmarshal failed",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusBadRequest, errorCodeValidation, err.Error())
		return false
	}
	return true
}
