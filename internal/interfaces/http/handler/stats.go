package handler

import (
	analyticsapp "github.com/btp-erp/backend/internal/application/analytics"
	"github.com/gin-gonic/gin"
)

// StatsHandler serves the finance aggregations
type StatsHandler struct {
	BaseHandler
	service *analyticsapp.AggregationService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(service *analyticsapp.AggregationService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Stats godoc
// @Summary      Income, expense and balance totals
// @Description  Without dates the window covers the last `months` calendar months including the current one.
// @Tags         finance
// @Produce      json
// @Param        date_from query string false "Window start (YYYY-MM-DD)"
// @Param        date_to query string false "Window end, inclusive (YYYY-MM-DD)"
// @Param        client_id query string false "Restrict to one client"
// @Param        category query string false "Restrict to one category"
// @Param        months query int false "Months in the default window" default(12)
// @Success      200 {object} APIResponse[analyticsapp.StatsResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /finance/stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	var q analyticsapp.StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// DashboardStats godoc
// @Summary      Dashboard aggregations
// @Description  Stats plus top suppliers, top products, top expense categories and the sales pipeline.
// @Tags         finance
// @Produce      json
// @Param        limit query int false "Entries per ranking" default(5)
// @Success      200 {object} APIResponse[analyticsapp.DashboardStatsResponse]
// @Router       /finance/dashboard-stats [get]
func (h *StatsHandler) DashboardStats(c *gin.Context) {
	var q analyticsapp.StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	stats, err := h.service.DashboardStats(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
