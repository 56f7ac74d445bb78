package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/itinerary"
	"github.com/KasumiMercury/primind-itinerary/internal/service/planner"
)

type ScheduleHandler struct {
	service *itinerary.Service
}

func NewScheduleHandler(service *itinerary.Service) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
	}
}

func (h *ScheduleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/trip", h.HandleGetTrip)
	rg.GET("/days/:date/items", h.HandleGetDay)
	rg.GET("/pending", h.HandleGetPending)
	rg.POST("/days/:date/items", h.HandleAddItem)
	rg.POST("/pending/items", h.HandleAddItem)
	rg.PUT("/days/:date/order", h.HandleReorder)
	rg.PATCH("/items/:id", h.HandleUpdateDetails)
	rg.PATCH("/items/:id/time", h.HandleEditTime)
	rg.POST("/items/:id/segments", h.HandleAddSegment)
	rg.PUT("/items/:id/segments/:index", h.HandleUpdateSegment)
	rg.POST("/items/:id/move", h.HandleMove)
	rg.DELETE("/items/:id", h.HandleDelete)
	rg.GET("/export.csv", h.HandleExportCSV)
}

type TripResponse struct {
	Trip domain.Trip  `json:"trip"`
	Days []domain.Day `json:"days"`
}

type DayResponse struct {
	Day                domain.Day     `json:"day"`
	Items              []ItemResponse `json:"items"`
	SpillsPastMidnight bool           `json:"spills_past_midnight"`
	SpillIndex         int            `json:"spill_index"`
}

type PendingResponse struct {
	Items []ItemResponse `json:"items"`
}

type AddItemRequest struct {
	Kind     domain.Kind `json:"type"`
	Title    string      `json:"title"`
	Location string      `json:"location"`
	Notes    string      `json:"notes"`
	Duration string      `json:"duration"`
}

type UpdateDetailsRequest struct {
	Title    *string `json:"title"`
	Location *string `json:"location"`
	Notes    *string `json:"notes"`
}

type EditTimeRequest struct {
	Field domain.TimeField `json:"field" binding:"required"`
	Value string           `json:"value"`
}

type ReorderRequest struct {
	Order []string `json:"order"`
}

type MoveRequest struct {
	DayDate *string `json:"day_date" binding:"required"`
}

func (h *ScheduleHandler) HandleGetTrip(c *gin.Context) {
	trip := h.service.Trip()
	days := trip.Days()
	if days == nil {
		days = []domain.Day{}
	}
	c.JSON(http.StatusOK, TripResponse{Trip: trip, Days: days})
}

func (h *ScheduleHandler) HandleGetDay(c *gin.Context) {
	view, err := h.service.Day(c.Param("date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, DayResponse{
		Day:                view.Day,
		Items:              toItemResponses(view.Items),
		SpillsPastMidnight: view.SpillIndex >= 0,
		SpillIndex:         view.SpillIndex,
	})
}

func (h *ScheduleHandler) HandleGetPending(c *gin.Context) {
	c.JSON(http.StatusOK, PendingResponse{Items: toItemResponses(h.service.Pending())})
}

// HandleAddItem serves both day and pending routes; the pending route has
// no date parameter.
func (h *ScheduleHandler) HandleAddItem(c *gin.Context) {
	ctx := c.Request.Context()

	var req AddItemRequest
	if !bindJSON(c, &req) {
		return
	}

	day := c.Param("date")
	item, change, err := h.service.AddItem(ctx, day, req.Kind, planner.Details{
		Title:    req.Title,
		Location: req.Location,
		Notes:    req.Notes,
		Duration: req.Duration,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	slog.InfoContext(ctx, "schedule item added",
		slog.String("item_id", item.ID),
		slog.String("day_date", day),
		slog.String("type", item.Kind.String()),
	)

	resp := toChangeResponse(change)
	created := toItemResponse(item)
	resp.Item = &created
	c.JSON(http.StatusCreated, resp)
}

func (h *ScheduleHandler) HandleUpdateDetails(c *gin.Context) {
	var req UpdateDetailsRequest
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.service.UpdateDetails(c.Request.Context(), c.Param("id"), planner.DetailsPatch{
		Title:    req.Title,
		Location: req.Location,
		Notes:    req.Notes,
	})
	h.respondChange(c, c.Param("id"), change, err)
}

func (h *ScheduleHandler) HandleEditTime(c *gin.Context) {
	var req EditTimeRequest
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.service.EditTime(c.Request.Context(), c.Param("id"), req.Field, req.Value)
	h.respondChange(c, c.Param("id"), change, err)
}

func (h *ScheduleHandler) HandleAddSegment(c *gin.Context) {
	var req domain.TransportSegment
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.service.AddSegment(c.Request.Context(), c.Param("id"), req)
	h.respondChange(c, c.Param("id"), change, err)
}

func (h *ScheduleHandler) HandleUpdateSegment(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, errorCodeValidation, "segment index must be an integer")
		return
	}

	var req domain.TransportSegment
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.service.UpdateSegment(c.Request.Context(), c.Param("id"), index, req)
	h.respondChange(c, c.Param("id"), change, err)
}

func (h *ScheduleHandler) HandleReorder(c *gin.Context) {
	var req ReorderRequest
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.service.Reorder(c.Request.Context(), c.Param("date"), req.Order)
	h.respondChange(c, "", change, err)
}

func (h *ScheduleHandler) HandleMove(c *gin.Context) {
	var req MoveRequest
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.service.MoveToDay(c.Request.Context(), c.Param("id"), *req.DayDate)
	h.respondChange(c, c.Param("id"), change, err)
}

func (h *ScheduleHandler) HandleDelete(c *gin.Context) {
	change := h.service.Delete(c.Request.Context(), c.Param("id"))
	h.respondChange(c, c.Param("id"), change, nil)
}

// respondChange answers 200 for applied and ignored mutations alike; an
// unknown id is not an error.
func (h *ScheduleHandler) respondChange(c *gin.Context, itemID string, change planner.Change, err error) {
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := toChangeResponse(change)
	if itemID != "" {
		if item, ok := h.service.Item(itemID); ok {
			current := toItemResponse(item)
			resp.Item = &current
		}
	}

	c.JSON(http.StatusOK, resp)
}
