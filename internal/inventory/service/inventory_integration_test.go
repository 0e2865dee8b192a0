package service_test

import (
	"context"
	"flag"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaksok/yaksok-backend/internal/inventory/events"
	"github.com/yaksok/yaksok-backend/internal/inventory/repository"
	"github.com/yaksok/yaksok-backend/internal/inventory/service"
	"github.com/yaksok/yaksok-backend/pkg/config"
	"github.com/yaksok/yaksok-backend/pkg/errors"
	"github.com/yaksok/yaksok-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()

	if !testing.Short() {
		ctx := context.Background()
		var err error

		suite, err = testutil.NewIntegrationSuite(ctx)
		if err != nil {
			panic("failed to create integration suite: " + err.Error())
		}
		defer testutil.TerminateContainer(ctx)
	}

	code := m.Run()
	os.Exit(code)
}

func newTestService(t *testing.T) (*service.InventoryService, *service.AlertService) {
	t.Helper()

	cfg := config.InventoryConfig{
		UsageLookbackDays: 90,
		ExpiryAlertDays:   30,
		CriticalDaysLeft:  3,
		WarningDaysLeft:   7,
	}

	itemRepo := repository.NewItemRepository(suite.DB)
	batchRepo := repository.NewBatchRepository(suite.DB)
	ledgerRepo := repository.NewLedgerRepository(suite.DB)
	classifier := service.NewClassifier(cfg)
	publisher := events.NewInventoryEventPublisher(nil, suite.Logger)

	svc := service.NewInventoryService(suite.DB, itemRepo, batchRepo, ledgerRepo, classifier, publisher, suite.Logger)
	alerts := service.NewAlertService(itemRepo, batchRepo, ledgerRepo, classifier, cfg, suite.Logger)
	return svc, alerts
}

func TestReceiveAndConsume_EndToEnd(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, _ := newTestService(t)

	itemID := suite.SeedItem(t, ctx, suite.Fixtures.Item(testutil.WithEaPerBox(10)))

	// 5 boxes of 10 come in as one batch.
	recv, err := svc.ReceiveInbound(ctx, itemID, 5, time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 50, recv.EaAdded)
	assert.NotZero(t, recv.BatchID)
	assert.NotZero(t, recv.TransactionID)

	// 30 units go out.
	cons, err := svc.ConsumeOutbound(ctx, itemID, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, cons.EaUsed)
	assert.Len(t, cons.TransactionIDs, 1)

	item, err := svc.GetItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 20, item.CurrentStockEa)
}

func TestConsume_FIFOAcrossBatches(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, _ := newTestService(t)

	itemID := suite.SeedItem(t, ctx, suite.Fixtures.Item())
	older := suite.SeedBatch(t, ctx, suite.Fixtures.Batch(itemID,
		testutil.WithInDate(time.Now().AddDate(0, 0, -10)),
		testutil.WithBatchEa(10)))
	newer := suite.SeedBatch(t, ctx, suite.Fixtures.Batch(itemID,
		testutil.WithInDate(time.Now().AddDate(0, 0, -1)),
		testutil.WithBatchEa(10)))

	cons, err := svc.ConsumeOutbound(ctx, itemID, 15)
	require.NoError(t, err)
	assert.Len(t, cons.TransactionIDs, 2)

	// The older batch drains completely, the newer one covers the rest.
	report, err := svc.GetItemReport(ctx, itemID)
	require.NoError(t, err)
	remaining := map[int64]int{}
	for _, b := range report.Batches {
		remaining[b.BatchID] = b.CurrentBatchEa
	}
	assert.Equal(t, 0, remaining[older])
	assert.Equal(t, 5, remaining[newer])
	assert.Equal(t, 5, report.Item.CurrentStockEa)
}

func TestConsume_InsufficientStockRollsBack(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, _ := newTestService(t)

	itemID := suite.SeedItem(t, ctx, suite.Fixtures.Item())
	suite.SeedBatch(t, ctx, suite.Fixtures.Batch(itemID, testutil.WithBatchEa(10)))

	_, err := svc.ConsumeOutbound(ctx, itemID, 11)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	// Nothing moved: no ledger rows, batch untouched.
	item, err := svc.GetItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 10, item.CurrentStockEa)

	history, err := svc.GetStockHistory(ctx, itemID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestConsume_UnknownItem(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, _ := newTestService(t)

	_, err := svc.ConsumeOutbound(ctx, "MED-NOPE-999", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestConsume_ConcurrentRequestsNeverOversell(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, _ := newTestService(t)

	itemID := suite.SeedItem(t, ctx, suite.Fixtures.Item())
	suite.SeedBatch(t, ctx, suite.Fixtures.Batch(itemID, testutil.WithBatchEa(100)))

	// Two writers each want 60 of the 100 available. Exactly one can win.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.ConsumeOutbound(ctx, itemID, 60)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, errors.ErrInsufficientStock),
				"loser must see insufficient stock, got: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)

	item, err := svc.GetItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 40, item.CurrentStockEa)
}

func TestStockConservation(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, _ := newTestService(t)

	itemID := suite.SeedItem(t, ctx, suite.Fixtures.Item(testutil.WithEaPerBox(12)))

	_, err := svc.ReceiveInbound(ctx, itemID, 3, time.Now().AddDate(0, 6, 0))
	require.NoError(t, err)
	_, err = svc.ReceiveInbound(ctx, itemID, 2, time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	_, err = svc.ConsumeOutbound(ctx, itemID, 40)
	require.NoError(t, err)
	_, err = svc.ConsumeDisposal(ctx, itemID, 7)
	require.NoError(t, err)

	// The ledger sum, the aggregate and the batch remainders agree.
	item, err := svc.GetItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 13, item.CurrentStockEa)

	history, err := svc.GetStockHistory(ctx, itemID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, 13, history[len(history)-1].CumulativeStock)

	report, err := svc.GetItemReport(ctx, itemID)
	require.NoError(t, err)
	batchSum := 0
	for _, b := range report.Batches {
		batchSum += b.CurrentBatchEa
	}
	assert.Equal(t, 13, batchSum)
}

func TestStatusList_ReflectsConsumption(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, _ := newTestService(t)

	itemID := suite.SeedItem(t, ctx, suite.Fixtures.Item())
	suite.SeedBatch(t, ctx, suite.Fixtures.Batch(itemID, testutil.WithBatchEa(200)))

	_, err := svc.ConsumeOutbound(ctx, itemID, 90)
	require.NoError(t, err)

	statuses, err := svc.GetStatusList(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	s := statuses[0]
	assert.Equal(t, itemID, s.ItemID)
	assert.Equal(t, 110, s.CurrentStockEa)
	// ADU = 90 over a 90 day window.
	assert.InDelta(t, 1.0, s.ADU, 0.0001)
	if assert.NotNil(t, s.DaysLeft) {
		assert.InDelta(t, 110.0, *s.DaysLeft, 0.0001)
	}
	assert.Equal(t, service.StatusSufficient, s.Status)
}

func TestAlerts_SummaryAndDetails(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, alerts := newTestService(t)

	// Item A: heavy usage leaves it close to empty.
	lowID := suite.SeedItem(t, ctx, suite.Fixtures.Item(testutil.WithItemName("가제 붕대")))
	suite.SeedBatch(t, ctx, suite.Fixtures.Batch(lowID, testutil.WithBatchEa(92)))
	_, err := svc.ConsumeOutbound(ctx, lowID, 90)
	require.NoError(t, err)

	// Item B: plenty of stock but a batch expiring within the window.
	expID := suite.SeedItem(t, ctx, suite.Fixtures.Item(testutil.WithItemName("소독 솜")))
	suite.SeedBatch(t, ctx, suite.Fixtures.Batch(expID,
		testutil.WithExpiryDate(time.Now().AddDate(0, 0, 14)),
		testutil.WithBatchEa(500)))

	summary, err := alerts.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.LowStockItemCount)
	assert.Equal(t, 1, summary.NearingExpiryItemCount)

	details, err := alerts.GetDetails(ctx)
	require.NoError(t, err)
	require.Len(t, details.LowStockAlertDetails, 1)
	low := details.LowStockAlertDetails[0]
	assert.Equal(t, lowID, low.ItemID)
	assert.Equal(t, service.StatusCritical, low.Status)
	if assert.NotNil(t, low.DaysLeft) {
		assert.InDelta(t, 2.0, *low.DaysLeft, 0.0001)
	}

	require.Len(t, details.ExpiryAlertDetails, 1)
	assert.Equal(t, expID, details.ExpiryAlertDetails[0].ItemID)
}

func TestHistory_FiltersByType(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, _ := newTestService(t)

	itemID := suite.SeedItem(t, ctx, suite.Fixtures.Item(testutil.WithEaPerBox(10)))
	_, err := svc.ReceiveInbound(ctx, itemID, 2, time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	_, err = svc.ConsumeOutbound(ctx, itemID, 5)
	require.NoError(t, err)
	_, err = svc.ConsumeDisposal(ctx, itemID, 3)
	require.NoError(t, err)

	all, err := svc.GetHistory(ctx, itemID, repository.HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	outbound, err := svc.GetHistory(ctx, itemID, repository.HistoryFilter{Type: repository.TypeOutbound})
	require.NoError(t, err)
	require.Len(t, outbound, 1)
	assert.Equal(t, -5, outbound[0].EaQty)

	_, err = svc.GetHistory(ctx, itemID, repository.HistoryFilter{Type: "refund"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestMonthlyUsage_OutboundOnly(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	svc, _ := newTestService(t)

	itemID := suite.SeedItem(t, ctx, suite.Fixtures.Item())
	suite.SeedBatch(t, ctx, suite.Fixtures.Batch(itemID, testutil.WithBatchEa(100)))

	_, err := svc.ConsumeOutbound(ctx, itemID, 25)
	require.NoError(t, err)
	_, err = svc.ConsumeDisposal(ctx, itemID, 10)
	require.NoError(t, err)

	usage, err := svc.GetMonthlyUsage(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	// Disposal is not demand; only the outbound 25 counts.
	assert.Equal(t, 25, usage[0].UsageEa)
	assert.Equal(t, time.Now().Format("2006-01"), usage[0].Month)
}
