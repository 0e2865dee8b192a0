package handler_test

import (
	"net/http"
	"testing"

	"github.com/yaksok/yaksok-backend/internal/inventory/handler"
	"github.com/yaksok/yaksok-backend/pkg/logger"
	"github.com/yaksok/yaksok-backend/pkg/testutil"
)

// Validation failures are rejected before the service is consulted, so these
// tests run the handler without any backing service.
func newValidationHandler() *handler.InventoryHandler {
	return handler.NewInventoryHandler(nil, logger.New("test", "test"))
}

func TestReceiveInbound_RejectsInvalidPayloads(t *testing.T) {
	h := newValidationHandler()

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing item_id", map[string]interface{}{"in_box_qty": 5, "expiry_date": "2026-12-31"}},
		{"zero box quantity", map[string]interface{}{"item_id": "MED-SYR-001", "in_box_qty": 0, "expiry_date": "2026-12-31"}},
		{"negative box quantity", map[string]interface{}{"item_id": "MED-SYR-001", "in_box_qty": -3, "expiry_date": "2026-12-31"}},
		{"missing expiry date", map[string]interface{}{"item_id": "MED-SYR-001", "in_box_qty": 5}},
		{"malformed expiry date", map[string]interface{}{"item_id": "MED-SYR-001", "in_box_qty": 5, "expiry_date": "31.12.2026"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewHTTPRequest(http.MethodPost, "/api/inventory/in", tt.body)
			rr := testutil.ExecuteRequest(http.HandlerFunc(h.ReceiveInbound), req)
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestReceiveInbound_RejectsMalformedJSON(t *testing.T) {
	h := newValidationHandler()

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/inventory/in", nil)
	rr := testutil.ExecuteRequest(http.HandlerFunc(h.ReceiveInbound), req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestConsume_RejectsInvalidPayloads(t *testing.T) {
	h := newValidationHandler()

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing item_id", map[string]interface{}{"out_ea_qty": 5}},
		{"zero quantity", map[string]interface{}{"item_id": "MED-SYR-001", "out_ea_qty": 0}},
		{"negative quantity", map[string]interface{}{"item_id": "MED-SYR-001", "out_ea_qty": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewHTTPRequest(http.MethodPost, "/api/inventory/out", tt.body)
			rr := testutil.ExecuteRequest(http.HandlerFunc(h.ConsumeOutbound), req)
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
		})
	}
}
