package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yaksok/yaksok-backend/pkg/config"
)

func testClassifier() *Classifier {
	return NewClassifier(config.InventoryConfig{
		UsageLookbackDays: 90,
		ExpiryAlertDays:   30,
		CriticalDaysLeft:  3,
		WarningDaysLeft:   7,
	})
}

func TestClassify_ZeroStockIsCritical(t *testing.T) {
	c := testClassifier()

	// Even with no usage history, an empty shelf is critical.
	f := c.Classify(0, 0)
	assert.Equal(t, StatusCritical, f.Status)
	assert.Equal(t, 0.0, f.ADU)
	assert.Nil(t, f.DaysLeft)

	// Zero stock with usage history stays critical regardless of ADU.
	f = c.Classify(0, 900)
	assert.Equal(t, StatusCritical, f.Status)
}

func TestClassify_NoUsageIsSufficient(t *testing.T) {
	c := testClassifier()

	f := c.Classify(5, 0)
	assert.Equal(t, StatusSufficient, f.Status)
	assert.Equal(t, 0.0, f.ADU)
	assert.Nil(t, f.DaysLeft)
}

func TestClassify_Thresholds(t *testing.T) {
	c := testClassifier()

	tests := []struct {
		name       string
		stock      int
		usage      int
		wantStatus string
		wantDays   float64
	}{
		// ADU = 180/90 = 2.0
		{"exactly at critical boundary", 6, 180, StatusCritical, 3.0},
		{"just above critical boundary", 7, 180, StatusWarning, 3.5},
		{"exactly at warning boundary", 14, 180, StatusWarning, 7.0},
		{"just above warning boundary", 15, 180, StatusSufficient, 7.5},
		{"well stocked", 900, 180, StatusSufficient, 450.0},
		{"single unit left", 1, 180, StatusCritical, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := c.Classify(tt.stock, tt.usage)
			assert.Equal(t, tt.wantStatus, f.Status)
			if assert.NotNil(t, f.DaysLeft) {
				assert.InDelta(t, tt.wantDays, *f.DaysLeft, 0.0001)
			}
		})
	}
}

func TestClassify_ADUFromLookbackWindow(t *testing.T) {
	c := testClassifier()

	f := c.Classify(100, 45)
	assert.InDelta(t, 0.5, f.ADU, 0.0001)
	if assert.NotNil(t, f.DaysLeft) {
		assert.InDelta(t, 200.0, *f.DaysLeft, 0.0001)
	}
}

func TestClassify_IsDeterministic(t *testing.T) {
	c := testClassifier()

	first := c.Classify(42, 300)
	for i := 0; i < 10; i++ {
		again := c.Classify(42, 300)
		assert.Equal(t, first.Status, again.Status)
		assert.Equal(t, first.ADU, again.ADU)
	}
}

func TestLookbackStart(t *testing.T) {
	c := testClassifier()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start := c.LookbackStart(now)
	assert.Equal(t, time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC), start)
}

func TestRoundADU(t *testing.T) {
	assert.Equal(t, 0.33, RoundADU(30.0/90.0))
	assert.Equal(t, 2.67, RoundADU(240.0/90.0))
	assert.Equal(t, 0.0, RoundADU(0))
}

func TestRoundDaysLeft(t *testing.T) {
	assert.Nil(t, RoundDaysLeft(nil))

	d := 7.45
	rounded := RoundDaysLeft(&d)
	if assert.NotNil(t, rounded) {
		assert.Equal(t, 7.5, *rounded)
	}
}
