package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
	"github.com/KasumiMercury/primind-itinerary/internal/service/itinerary"
)

type SyncHandler struct {
	service *itinerary.Service
}

func NewSyncHandler(service *itinerary.Service) *SyncHandler {
	return &SyncHandler{
		service: service,
	}
}

func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sync/failures", h.HandleFailures)
	rg.POST("/sync/retry", h.HandleRetry)
}

type FailuresResponse struct {
	Count    int                       `json:"count"`
	Failures []domain.PersistenceError `json:"failures"`
}

func (h *SyncHandler) HandleFailures(c *gin.Context) {
	failures := h.service.Failures()
	c.JSON(http.StatusOK, FailuresResponse{
		Count:    len(failures),
		Failures: failures,
	})
}

func (h *SyncHandler) HandleRetry(c *gin.Context) {
	ctx := c.Request.Context()

	slog.InfoContext(ctx, "handling sync retry request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)

	result := h.service.Retry(ctx)

	c.JSON(http.StatusOK, result)
}
