package handler

import (
	"net/http"

	"github.com/yaksok/yaksok-backend/internal/inventory/service"
	"github.com/yaksok/yaksok-backend/pkg/httputil"
	"github.com/yaksok/yaksok-backend/pkg/logger"
)

// AlertHandler serves the alert endpoints
type AlertHandler struct {
	service *service.AlertService
	logger  *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(svc *service.AlertService, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		service: svc,
		logger:  log,
	}
}

// GetSummary handles GET /api/alerts/summary
func (h *AlertHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// GetDetails handles GET /api/alerts/details
func (h *AlertHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.GetDetails(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, details)
}
