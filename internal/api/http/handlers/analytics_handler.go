package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-console/internal/analytics"
	"github.com/spec-kit/helpdesk-console/internal/service"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// AnalyticsHandler serves the dashboard.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analyticsService}
}

// Dashboard GET /api/analytics?queueId=&from=&to=.
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	from, err := parseDate(c, "from")
	if err != nil {
		return err
	}
	to, err := parseDate(c, "to")
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return apperrors.NewValidationError("to must not be before from", nil)
	}
	dash, err := h.analytics.Dashboard(c.UserContext(), sess, service.AnalyticsFilter{
		QueueID: c.Query("queueId"),
		Range:   analytics.Range{From: from, To: to},
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dash)
}
