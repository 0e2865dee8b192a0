package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yaksok/yaksok-backend/internal/inventory/service"
	"github.com/yaksok/yaksok-backend/pkg/errors"
	"github.com/yaksok/yaksok-backend/pkg/httputil"
	"github.com/yaksok/yaksok-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// InventoryHandler serves the stock movement endpoints
type InventoryHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(svc *service.InventoryService, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: svc,
		logger:  log,
	}
}

// ReceiveInboundRequest is the inbound receipt payload
type ReceiveInboundRequest struct {
	ItemID     string `json:"item_id" validate:"required"`
	InBoxQty   int    `json:"in_box_qty" validate:"required,gt=0"`
	ExpiryDate string `json:"expiry_date" validate:"required,datetime=2006-01-02"`
}

// ConsumeRequest is the outbound and disposal payload
type ConsumeRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	OutEaQty int    `json:"out_ea_qty" validate:"required,gt=0"`
}

// ReceiveInbound handles POST /api/inventory/in
func (h *InventoryHandler) ReceiveInbound(w http.ResponseWriter, r *http.Request) {
	var req ReceiveInboundRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiryDate, err := time.Parse(dateLayout, req.ExpiryDate)
	if err != nil {
		httputil.Error(w, errors.InvalidArgument("expiry_date must be a date in format YYYY-MM-DD"))
		return
	}

	result, err := h.service.ReceiveInbound(r.Context(), req.ItemID, req.InBoxQty, expiryDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// ConsumeOutbound handles POST /api/inventory/out
func (h *InventoryHandler) ConsumeOutbound(w http.ResponseWriter, r *http.Request) {
	h.consume(w, r, h.service.ConsumeOutbound)
}

// Dispose handles POST /api/inventory/dispose
func (h *InventoryHandler) Dispose(w http.ResponseWriter, r *http.Request) {
	h.consume(w, r, h.service.ConsumeDisposal)
}

func (h *InventoryHandler) consume(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, itemID string, eaQty int) (*service.ConsumeResult, error)) {
	var req ConsumeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := fn(r.Context(), req.ItemID, req.OutEaQty)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
