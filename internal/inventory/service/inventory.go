package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yaksok/yaksok-backend/internal/inventory/events"
	"github.com/yaksok/yaksok-backend/internal/inventory/repository"
	"github.com/yaksok/yaksok-backend/pkg/database"
	"github.com/yaksok/yaksok-backend/pkg/errors"
	"github.com/yaksok/yaksok-backend/pkg/logger"
)

// InventoryService owns every mutation of batches, the stock aggregate and
// the ledger. Receive and Consume each run as one transaction that locks the
// item row first, so two concurrent movements on the same item serialize
// while different items stay fully independent.
type InventoryService struct {
	db         *database.DB
	itemRepo   *repository.ItemRepository
	batchRepo  *repository.BatchRepository
	ledgerRepo *repository.LedgerRepository
	classifier *Classifier
	publisher  *events.InventoryEventPublisher
	logger     *logger.Logger
	now        func() time.Time
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	db *database.DB,
	itemRepo *repository.ItemRepository,
	batchRepo *repository.BatchRepository,
	ledgerRepo *repository.LedgerRepository,
	classifier *Classifier,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		db:         db,
		itemRepo:   itemRepo,
		batchRepo:  batchRepo,
		ledgerRepo: ledgerRepo,
		classifier: classifier,
		publisher:  publisher,
		logger:     log,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *InventoryService) WithClock(now func() time.Time) *InventoryService {
	s.now = now
	return s
}

// ReceiveResult is the outcome of an inbound receipt
type ReceiveResult struct {
	TransactionID int64  `json:"transaction_id"`
	BatchID       int64  `json:"batch_id"`
	EaAdded       int    `json:"ea_added"`
	UpdatedStatus string `json:"updated_status"`
}

// ConsumeResult is the outcome of a FIFO consumption
type ConsumeResult struct {
	TransactionIDs []int64 `json:"transaction_ids"`
	EaUsed         int     `json:"ea_used"`
	UpdatedStatus  string  `json:"updated_status"`
}

// ReceiveInbound books in boxQty boxes of an item as a new batch. The batch
// insert, the aggregate increment and the ledger append commit together or
// not at all.
func (s *InventoryService) ReceiveInbound(ctx context.Context, itemID string, boxQty int, expiryDate time.Time) (*ReceiveResult, error) {
	if boxQty <= 0 {
		return nil, errors.InvalidArgument("box quantity must be a positive integer")
	}
	if expiryDate.IsZero() {
		return nil, errors.InvalidArgument("expiry date is required")
	}

	result := &ReceiveResult{}
	receivedAt := s.now()

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		item, err := s.itemRepo.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}

		eaAdded := boxQty * item.EaPerBox

		batch := &repository.Batch{
			ItemID:         itemID,
			ExpiryDate:     expiryDate,
			InDate:         receivedAt,
			CurrentBatchEa: eaAdded,
		}
		if err := s.batchRepo.Create(ctx, tx, batch); err != nil {
			return err
		}

		if err := s.itemRepo.AddStock(ctx, tx, itemID, eaAdded); err != nil {
			return err
		}

		entry := &repository.LedgerEntry{
			TransactionDate: receivedAt,
			TransactionType: repository.TypeInbound,
			ItemID:          itemID,
			BatchID:         batch.BatchID,
			EaQty:           eaAdded,
			InBoxQty:        &boxQty,
		}
		if err := s.ledgerRepo.Append(ctx, tx, entry); err != nil {
			return err
		}

		result.TransactionID = entry.TransactionID
		result.BatchID = batch.BatchID
		result.EaAdded = eaAdded
		return nil
	})
	if err != nil {
		return nil, err
	}

	item, forecast, err := s.statusFor(ctx, itemID)
	if err != nil {
		return nil, err
	}
	result.UpdatedStatus = forecast.Status

	s.publisher.PublishStockMovement(ctx, &events.StockMovement{
		ItemID:         itemID,
		MovementKind:   repository.TypeInbound,
		Quantity:       result.EaAdded,
		BatchID:        &result.BatchID,
		TransactionIDs: []int64{result.TransactionID},
		StockAfter:     item.CurrentStockEa,
		Status:         forecast.Status,
	})
	s.publishLowStockAlert(ctx, item, forecast)

	s.logger.Info().
		Str("item_id", itemID).
		Int64("batch_id", result.BatchID).
		Int("ea_added", result.EaAdded).
		Msg("inbound receipt recorded")

	return result, nil
}

// ConsumeOutbound consumes stock for dispensing, oldest lot first
func (s *InventoryService) ConsumeOutbound(ctx context.Context, itemID string, eaQty int) (*ConsumeResult, error) {
	return s.consume(ctx, itemID, eaQty, repository.TypeOutbound)
}

// ConsumeDisposal consumes stock for disposal, oldest lot first
func (s *InventoryService) ConsumeDisposal(ctx context.Context, itemID string, eaQty int) (*ConsumeResult, error) {
	return s.consume(ctx, itemID, eaQty, repository.TypeDisposal)
}

// consume is the FIFO allocation path. Availability is checked against the
// locked batch set before any decrement, so an unsatisfiable request rolls
// back with zero effect instead of consuming partially.
func (s *InventoryService) consume(ctx context.Context, itemID string, eaQty int, kind string) (*ConsumeResult, error) {
	if eaQty <= 0 {
		return nil, errors.InvalidArgument("consumption quantity must be a positive integer")
	}

	result := &ConsumeResult{}
	consumedAt := s.now()

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.itemRepo.GetForUpdate(ctx, tx, itemID); err != nil {
			return err
		}

		batches, err := s.batchRepo.ListOpenForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}

		plan, available, ok := PlanAllocation(batches, eaQty)
		if !ok {
			return errors.InsufficientStock(itemID, eaQty, available)
		}

		for i, alloc := range plan {
			if err := s.batchRepo.Decrement(ctx, tx, alloc.Batch.BatchID, alloc.Take); err != nil {
				return err
			}

			entry := &repository.LedgerEntry{
				TransactionDate: consumedAt,
				TransactionType: kind,
				ItemID:          itemID,
				BatchID:         alloc.Batch.BatchID,
				EaQty:           -alloc.Take,
			}
			// The request total is recorded once per request, on the first
			// entry, not repeated for every lot touched.
			if i == 0 {
				entry.OutEaQty = &eaQty
			}
			if err := s.ledgerRepo.Append(ctx, tx, entry); err != nil {
				return err
			}

			result.TransactionIDs = append(result.TransactionIDs, entry.TransactionID)
		}

		if err := s.itemRepo.AddStock(ctx, tx, itemID, -eaQty); err != nil {
			return err
		}

		result.EaUsed = eaQty
		return nil
	})
	if err != nil {
		return nil, err
	}

	item, forecast, err := s.statusFor(ctx, itemID)
	if err != nil {
		return nil, err
	}
	result.UpdatedStatus = forecast.Status

	s.publisher.PublishStockMovement(ctx, &events.StockMovement{
		ItemID:         itemID,
		MovementKind:   kind,
		Quantity:       eaQty,
		TransactionIDs: result.TransactionIDs,
		StockAfter:     item.CurrentStockEa,
		Status:         forecast.Status,
	})
	s.publishLowStockAlert(ctx, item, forecast)

	s.logger.Info().
		Str("item_id", itemID).
		Str("movement_kind", kind).
		Int("ea_used", eaQty).
		Int("batches_touched", len(result.TransactionIDs)).
		Msg("FIFO consumption recorded")

	return result, nil
}

// statusFor recomputes the classifier output for one item from the current
// aggregate and the lookback-window usage.
func (s *InventoryService) statusFor(ctx context.Context, itemID string) (*repository.Item, Forecast, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, Forecast{}, err
	}

	usage, err := s.ledgerRepo.UsageSince(ctx, itemID, s.classifier.LookbackStart(s.now()))
	if err != nil {
		return nil, Forecast{}, err
	}

	return item, s.classifier.Classify(item.CurrentStockEa, usage), nil
}

// publishLowStockAlert emits an alert event when a movement leaves an item
// below the warning threshold.
func (s *InventoryService) publishLowStockAlert(ctx context.Context, item *repository.Item, forecast Forecast) {
	if forecast.Status == StatusSufficient {
		return
	}
	s.publisher.PublishAlertGenerated(ctx, &events.AlertGenerated{
		AlertType: "low_stock",
		ItemID:    item.ItemID,
		ItemName:  item.ItemName,
		Severity:  forecast.Status,
		DaysLeft:  RoundDaysLeft(forecast.DaysLeft),
	})
}

// ItemStatus is one row of the status list
type ItemStatus struct {
	ItemID         string   `json:"item_id"`
	ItemName       string   `json:"item_name"`
	Category       string   `json:"category"`
	CurrentStockEa int      `json:"current_stock_ea"`
	ADU            float64  `json:"adu"`
	DaysLeft       *float64 `json:"days_left"`
	Status         string   `json:"status"`
}

// GetStatusList classifies every catalog item, ordered by item name
func (s *InventoryService) GetStatusList(ctx context.Context) ([]*ItemStatus, error) {
	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.ledgerRepo.UsageTotalsSince(ctx, s.classifier.LookbackStart(s.now()))
	if err != nil {
		return nil, err
	}

	statuses := make([]*ItemStatus, len(items))
	for i, item := range items {
		forecast := s.classifier.Classify(item.CurrentStockEa, totals[item.ItemID])
		statuses[i] = &ItemStatus{
			ItemID:         item.ItemID,
			ItemName:       item.ItemName,
			Category:       item.Category,
			CurrentStockEa: item.CurrentStockEa,
			ADU:            forecast.ADU,
			DaysLeft:       forecast.DaysLeft,
			Status:         forecast.Status,
		}
	}

	return statuses, nil
}

// ItemReport is the detail view of one item
type ItemReport struct {
	Item          *repository.Item    `json:"item"`
	ADU           float64             `json:"adu"`
	DaysLeft      *float64            `json:"days_left"`
	Status        string              `json:"status"`
	Batches       []*repository.Batch `json:"batches"`
	NearestExpiry *time.Time          `json:"nearest_expiry,omitempty"`
}

// GetItemReport joins the classifier output with the item's batches and its
// nearest non-empty expiry date.
func (s *InventoryService) GetItemReport(ctx context.Context, itemID string) (*ItemReport, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	usage, err := s.ledgerRepo.UsageSince(ctx, itemID, s.classifier.LookbackStart(s.now()))
	if err != nil {
		return nil, err
	}
	forecast := s.classifier.Classify(item.CurrentStockEa, usage)

	batches, err := s.batchRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	nearest, err := s.batchRepo.NearestExpiry(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return &ItemReport{
		Item:          item,
		ADU:           forecast.ADU,
		DaysLeft:      forecast.DaysLeft,
		Status:        forecast.Status,
		Batches:       batches,
		NearestExpiry: nearest,
	}, nil
}

// GetStockHistory returns an item's ledger entries with the running stock sum
func (s *InventoryService) GetStockHistory(ctx context.Context, itemID string) ([]*repository.StockPoint, error) {
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.StockHistory(ctx, itemID)
}

// GetHistory returns an item's raw ledger entries, optionally narrowed by
// movement kind and time range.
func (s *InventoryService) GetHistory(ctx context.Context, itemID string, filter repository.HistoryFilter) ([]*repository.LedgerEntry, error) {
	if filter.Type != "" &&
		filter.Type != repository.TypeInbound &&
		filter.Type != repository.TypeOutbound &&
		filter.Type != repository.TypeDisposal {
		return nil, errors.InvalidArgument("transaction type must be one of inbound, outbound, disposal")
	}
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.History(ctx, itemID, filter)
}

// GetMonthlyUsage returns the item's outbound volume per month over the
// trailing twelve months.
func (s *InventoryService) GetMonthlyUsage(ctx context.Context, itemID string) ([]*repository.MonthlyUsage, error) {
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.MonthlyUsage(ctx, itemID, 12)
}

// GetItem returns one catalog item
func (s *InventoryService) GetItem(ctx context.Context, itemID string) (*repository.Item, error) {
	return s.itemRepo.GetByID(ctx, itemID)
}

// ListItems returns the catalog ordered by item name
func (s *InventoryService) ListItems(ctx context.Context) ([]*repository.Item, error) {
	return s.itemRepo.List(ctx)
}
