package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yaksok/yaksok-backend/internal/inventory/repository"
	"github.com/yaksok/yaksok-backend/internal/inventory/service"
	"github.com/yaksok/yaksok-backend/pkg/errors"
	"github.com/yaksok/yaksok-backend/pkg/httputil"
	"github.com/yaksok/yaksok-backend/pkg/logger"
)

// StatusHandler serves the catalog and forecast read endpoints
type StatusHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(svc *service.InventoryService, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		service: svc,
		logger:  log,
	}
}

// GetStatusList handles GET /api/inventory/status
func (h *StatusHandler) GetStatusList(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.GetStatusList(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	for _, s := range statuses {
		s.ADU = service.RoundADU(s.ADU)
		s.DaysLeft = service.RoundDaysLeft(s.DaysLeft)
	}

	httputil.JSON(w, http.StatusOK, statuses)
}

// ListItems handles GET /api/items
func (h *StatusHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// GetItem handles GET /api/items/{itemID}
func (h *StatusHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	item, err := h.service.GetItem(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// GetItemReport handles GET /api/items/{itemID}/report
func (h *StatusHandler) GetItemReport(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	report, err := h.service.GetItemReport(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	report.ADU = service.RoundADU(report.ADU)
	report.DaysLeft = service.RoundDaysLeft(report.DaysLeft)

	httputil.JSON(w, http.StatusOK, report)
}

// GetStockHistory handles GET /api/items/{itemID}/stock-history
func (h *StatusHandler) GetStockHistory(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	points, err := h.service.GetStockHistory(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, points)
}

// GetTransactions handles GET /api/items/{itemID}/transactions.
// Optional query parameters: type (inbound|outbound|disposal), from, to
// (YYYY-MM-DD).
func (h *StatusHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var filter repository.HistoryFilter
	filter.Type = r.URL.Query().Get("type")

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.Error(w, errors.InvalidArgument("from must be a date in format YYYY-MM-DD"))
			return
		}
		filter.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.Error(w, errors.InvalidArgument("to must be a date in format YYYY-MM-DD"))
			return
		}
		// Make the upper bound inclusive of the named day.
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &to
	}

	entries, err := h.service.GetHistory(r.Context(), itemID, filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}

// GetMonthlyUsage handles GET /api/items/{itemID}/usage
func (h *StatusHandler) GetMonthlyUsage(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	usage, err := h.service.GetMonthlyUsage(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, usage)
}
