package events

import (
	"context"

	"github.com/yaksok/yaksok-backend/pkg/logger"
	"github.com/yaksok/yaksok-backend/pkg/messaging"
)

// StockMovement is the payload published after a movement commits
type StockMovement = messaging.StockMovementEvent

// AlertGenerated is the payload published when the aggregator flags an item
type AlertGenerated = messaging.AlertGeneratedEvent

// InventoryEventPublisher publishes inventory domain events. A nil publisher
// is valid and drops everything, so the service works without a broker (local
// development, tests). Publishing happens after commit and never fails the
// request; a broker outage costs an event, not a movement.
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a publisher wrapper. publisher may be nil.
func NewInventoryEventPublisher(publisher *messaging.Publisher, log *logger.Logger) *InventoryEventPublisher {
	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishStockMovement publishes a stock movement event keyed by its kind
func (p *InventoryEventPublisher) PublishStockMovement(ctx context.Context, movement *StockMovement) {
	if p == nil || p.publisher == nil {
		return
	}

	eventType := messaging.EventStockConsumed
	switch movement.MovementKind {
	case "inbound":
		eventType = messaging.EventStockReceived
	case "disposal":
		eventType = messaging.EventStockDisposed
	}

	if err := p.publisher.Publish(ctx, eventType, movement); err != nil {
		p.logger.Warn().
			Err(err).
			Str("item_id", movement.ItemID).
			Str("event_type", eventType).
			Msg("failed to publish stock movement event")
	}
}

// PublishAlertGenerated publishes an alert event
func (p *InventoryEventPublisher) PublishAlertGenerated(ctx context.Context, alert *AlertGenerated) {
	if p == nil || p.publisher == nil {
		return
	}

	if err := p.publisher.Publish(ctx, messaging.EventAlertGenerated, alert); err != nil {
		p.logger.Warn().
			Err(err).
			Str("item_id", alert.ItemID).
			Msg("failed to publish alert event")
	}
}
