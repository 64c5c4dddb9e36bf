package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fleetwatch/internal/service"
)

// VesselHandler expone el listado, la sincronizacion simulada y el historial.
type VesselHandler struct {
	logger  *zap.Logger
	vessels *service.VesselService
}

func NewVesselHandler(logger *zap.Logger, vessels *service.VesselService) *VesselHandler {
	return &VesselHandler{logger: logger, vessels: vessels}
}

// List maneja GET /api/vessels/. Con paginacion responde {count, next, previous, results}.
func (h *VesselHandler) List(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid page"})
			return
		}
		page = n
	}

	result, err := h.vessels.List(c.Request.Context(), page)
	if err != nil {
		h.logger.Error("list vessels failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list vessels"})
		return
	}
	if !h.vessels.Paginated() {
		c.JSON(http.StatusOK, result.Vessels)
		return
	}

	var next, previous *string
	if result.HasNext {
		link := pageURL(c, page+1)
		next = &link
	}
	if page > 1 {
		link := pageURL(c, page-1)
		previous = &link
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    result.Total,
		"next":     next,
		"previous": previous,
		"results":  result.Vessels,
	})
}

// SyncMockData maneja POST /api/vessels/sync_mock_data/.
func (h *VesselHandler) SyncMockData(c *gin.Context) {
	n, err := h.vessels.SyncMockData(c.Request.Context())
	if err != nil {
		h.logger.Error("sync mock data failed", operatorField(c), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sync mock data"})
		return
	}
	h.logger.Info("mock data synced", operatorField(c), zap.Int("vessels", n))
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Updated %d vessels", n)})
}

// History maneja GET /api/vessels/:id/history/.
func (h *VesselHandler) History(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "vessel not found"})
		return
	}
	positions, err := h.vessels.History(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrVesselNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vessel not found"})
			return
		}
		h.logger.Error("vessel history failed", operatorField(c), zap.Int64("vessel_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	h.logger.Debug("vessel history served",
		operatorField(c),
		zap.Int64("vessel_id", id),
		zap.Int("positions", len(positions)),
	)
	c.JSON(http.StatusOK, positions)
}

func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s://%s%s?%s", scheme, c.Request.Host, c.Request.URL.Path, q.Encode())
}
