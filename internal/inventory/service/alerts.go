package service

import (
	"context"
	"sort"
	"time"

	"github.com/yaksok/yaksok-backend/internal/inventory/repository"
	"github.com/yaksok/yaksok-backend/pkg/config"
	"github.com/yaksok/yaksok-backend/pkg/logger"
)

// AlertService derives low stock and nearing expiry alerts from the same
// classifier the status endpoints use. It holds no state of its own; every
// call recomputes from the ledger and batch tables.
type AlertService struct {
	itemRepo   *repository.ItemRepository
	batchRepo  *repository.BatchRepository
	ledgerRepo *repository.LedgerRepository
	classifier *Classifier
	expiryDays int
	logger     *logger.Logger
	now        func() time.Time
}

// NewAlertService creates a new alert service
func NewAlertService(
	itemRepo *repository.ItemRepository,
	batchRepo *repository.BatchRepository,
	ledgerRepo *repository.LedgerRepository,
	classifier *Classifier,
	cfg config.InventoryConfig,
	log *logger.Logger,
) *AlertService {
	return &AlertService{
		itemRepo:   itemRepo,
		batchRepo:  batchRepo,
		ledgerRepo: ledgerRepo,
		classifier: classifier,
		expiryDays: cfg.ExpiryAlertDays,
		logger:     log,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *AlertService) WithClock(now func() time.Time) *AlertService {
	s.now = now
	return s
}

// AlertSummary carries the dashboard badge counts
type AlertSummary struct {
	LowStockItemCount      int `json:"low_stock_item_count"`
	NearingExpiryItemCount int `json:"nearing_expiry_item_count"`
}

// LowStockAlert is one flagged item in the detail listing. NearestExpiry is
// the minimum expiry date over the item's non-empty batches, nil when nothing
// is on the shelf.
type LowStockAlert struct {
	ItemID         string     `json:"item_id"`
	ItemName       string     `json:"item_name"`
	Category       string     `json:"category"`
	CurrentStockEa int        `json:"current_stock_ea"`
	ADU            float64    `json:"adu"`
	DaysLeft       *float64   `json:"days_left"`
	Status         string     `json:"status"`
	NearestExpiry  *time.Time `json:"nearest_expiry,omitempty"`
}

// ExpiryAlert is one batch nearing its expiry date
type ExpiryAlert struct {
	BatchID        int64     `json:"batch_id"`
	ItemID         string    `json:"item_id"`
	ItemName       string    `json:"item_name"`
	ExpiryDate     time.Time `json:"expiry_date"`
	CurrentBatchEa int       `json:"current_batch_ea"`
	DaysToExpiry   int       `json:"days_to_expiry"`
}

// AlertDetails is the full alert listing
type AlertDetails struct {
	LowStockAlertDetails []*LowStockAlert `json:"low_stock_alert_details"`
	ExpiryAlertDetails   []*ExpiryAlert   `json:"expiry_alert_details"`
}

// GetSummary returns the alert counts: items below the warning threshold and
// distinct items with at least one batch expiring inside the alert window.
func (s *AlertService) GetSummary(ctx context.Context) (*AlertSummary, error) {
	lowStock, err := s.lowStockAlerts(ctx)
	if err != nil {
		return nil, err
	}

	expiring, err := s.batchRepo.ExpiringWithin(ctx, s.expiryDays)
	if err != nil {
		return nil, err
	}

	expiringItems := make(map[string]struct{})
	for _, b := range expiring {
		expiringItems[b.ItemID] = struct{}{}
	}

	return &AlertSummary{
		LowStockItemCount:      len(lowStock),
		NearingExpiryItemCount: len(expiringItems),
	}, nil
}

// GetDetails returns the full alert listing. Low stock alerts come critical
// first, then warning, days left ascending within each tier with the
// no-usage items last. Expiry alerts are one row per batch, soonest first.
func (s *AlertService) GetDetails(ctx context.Context) (*AlertDetails, error) {
	lowStock, err := s.lowStockAlerts(ctx)
	if err != nil {
		return nil, err
	}

	expiring, err := s.batchRepo.ExpiringWithin(ctx, s.expiryDays)
	if err != nil {
		return nil, err
	}

	today := s.now().Truncate(24 * time.Hour)
	expiryAlerts := make([]*ExpiryAlert, len(expiring))
	for i, b := range expiring {
		expiryAlerts[i] = &ExpiryAlert{
			BatchID:        b.BatchID,
			ItemID:         b.ItemID,
			ItemName:       b.ItemName,
			ExpiryDate:     b.ExpiryDate,
			CurrentBatchEa: b.CurrentBatchEa,
			DaysToExpiry:   int(b.ExpiryDate.Sub(today).Hours() / 24),
		}
	}

	return &AlertDetails{
		LowStockAlertDetails: lowStock,
		ExpiryAlertDetails:   expiryAlerts,
	}, nil
}

// lowStockAlerts classifies the whole catalog and keeps the items below the
// warning threshold.
func (s *AlertService) lowStockAlerts(ctx context.Context) ([]*LowStockAlert, error) {
	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.ledgerRepo.UsageTotalsSince(ctx, s.classifier.LookbackStart(s.now()))
	if err != nil {
		return nil, err
	}

	var alerts []*LowStockAlert
	for _, item := range items {
		forecast := s.classifier.Classify(item.CurrentStockEa, totals[item.ItemID])
		if forecast.Status == StatusSufficient {
			continue
		}

		nearest, err := s.batchRepo.NearestExpiry(ctx, item.ItemID)
		if err != nil {
			return nil, err
		}

		alerts = append(alerts, &LowStockAlert{
			ItemID:         item.ItemID,
			ItemName:       item.ItemName,
			Category:       item.Category,
			CurrentStockEa: item.CurrentStockEa,
			ADU:            RoundADU(forecast.ADU),
			DaysLeft:       RoundDaysLeft(forecast.DaysLeft),
			Status:         forecast.Status,
			NearestExpiry:  nearest,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Status != b.Status {
			return a.Status == StatusCritical
		}
		switch {
		case a.DaysLeft == nil:
			return false
		case b.DaysLeft == nil:
			return true
		default:
			return *a.DaysLeft < *b.DaysLeft
		}
	})

	return alerts, nil
}
