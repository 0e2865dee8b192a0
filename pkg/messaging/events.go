package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event types
const (
	EventStockReceived  = "inventory.stock.received"
	EventStockConsumed  = "inventory.stock.consumed"
	EventStockDisposed  = "inventory.stock.disposed"
	EventAlertGenerated = "inventory.alert.generated"
)

// Event is the envelope every published message uses
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates an event envelope around a payload
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Data:          payload,
	}, nil
}

// StockMovementEvent is published after an inbound receipt or a FIFO
// consumption commits.
type StockMovementEvent struct {
	ItemID         string  `json:"item_id"`
	MovementKind   string  `json:"movement_kind"`
	Quantity       int     `json:"quantity"`
	BatchID        *int64  `json:"batch_id,omitempty"`
	TransactionIDs []int64 `json:"transaction_ids"`
	StockAfter     int     `json:"stock_after"`
	Status         string  `json:"status"`
}

// AlertGeneratedEvent is published when the alert aggregator flags an item
type AlertGeneratedEvent struct {
	AlertType string  `json:"alert_type"`
	ItemID    string  `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Severity  string  `json:"severity"`
	DaysLeft  *float64 `json:"days_left,omitempty"`
}
