package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahmad-watoo/ams-api/internal/service"
	"github.com/ahmad-watoo/ams-api/pkg/response"
)

// DashboardHandler exposes aggregated reporting endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Institution-wide dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, cached, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": cached})
}

// Invalidate godoc
// @Summary Drop the cached dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary/invalidate [post]
func (h *DashboardHandler) Invalidate(c *gin.Context) {
	h.dashboard.Invalidate(c.Request.Context())
	response.Message(c, http.StatusOK, "dashboard cache invalidated")
}

// System godoc
// @Summary Runtime metrics snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/system [get]
func (h *DashboardHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.dashboard.System(), nil)
}
