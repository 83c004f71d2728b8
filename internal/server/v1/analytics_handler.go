package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-local/internal/analytics"
	"github.com/nulzo/prism-local/internal/server/validator"
	"github.com/nulzo/prism-local/pkg/api"
)

type AnalyticsHandler struct {
	service analytics.Service
}

func NewAnalyticsHandler(service analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

func (h *AnalyticsHandler) GetUsage(c *gin.Context) {
	var q api.UsageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	days := analytics.NormalizeDays(q.Days)
	stats, err := h.service.GetUsageOverview(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(analyticsError("Failed to fetch analytics", err))
		return
	}

	c.JSON(http.StatusOK, api.UsageOverview{
		Object: "list",
		Days:   days,
		Data:   stats,
	})
}

func (h *AnalyticsHandler) GetRecentRequests(c *gin.Context) {
	var q api.RecentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	logs, err := h.service.RecentRequests(c.Request.Context(), q.Model, q.Limit)
	if err != nil {
		_ = c.Error(analyticsError("Failed to fetch request logs", err))
		return
	}

	c.JSON(http.StatusOK, api.ListResponse{
		Object: "list",
		Data:   logs,
	})
}

func analyticsError(msg string, err error) *api.Error {
	if errors.Is(err, analytics.ErrDisabled) {
		return api.ServiceUnavailable("Analytics are disabled, enable database to record requests")
	}
	return api.InternalError(msg, err)
}
