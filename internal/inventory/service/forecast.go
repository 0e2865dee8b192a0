package service

import (
	"math"
	"time"

	"github.com/yaksok/yaksok-backend/pkg/config"
)

// Status tiers, from worst to best
const (
	StatusCritical   = "critical"
	StatusWarning    = "warning"
	StatusSufficient = "sufficient"
)

// Forecast is the classifier output for one item. DaysLeft is nil when the
// item has no usage in the lookback window (ADU = 0). ADU and DaysLeft hold
// unrounded values; rounding happens at the presentation boundary.
type Forecast struct {
	ADU      float64
	DaysLeft *float64
	Status   string
}

// Classifier derives average daily usage, projected days of stock left and a
// status tier from an item's recent consumption. Every read path (status
// list, item detail, alerts) goes through this one implementation so all
// endpoints report identical numbers.
type Classifier struct {
	lookbackDays int
	criticalDays int
	warningDays  int
}

// NewClassifier creates a classifier from the configured thresholds
func NewClassifier(cfg config.InventoryConfig) *Classifier {
	return &Classifier{
		lookbackDays: cfg.UsageLookbackDays,
		criticalDays: cfg.CriticalDaysLeft,
		warningDays:  cfg.WarningDaysLeft,
	}
}

// LookbackDays returns the usage window length in days
func (c *Classifier) LookbackDays() int {
	return c.lookbackDays
}

// LookbackStart returns the start of the usage window relative to now
func (c *Classifier) LookbackStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.lookbackDays)
}

// Classify computes the forecast for an item from its cached stock aggregate
// and the summed outbound+disposal quantity inside the lookback window.
//
// Tier precedence: zero or negative stock is always critical, an in-stock
// item with no usage is sufficient (no depletion can be projected), otherwise
// the projected days left decide.
func (c *Classifier) Classify(currentStockEa int, usageEa int) Forecast {
	adu := float64(usageEa) / float64(c.lookbackDays)

	var daysLeft *float64
	if adu > 0 {
		d := float64(currentStockEa) / adu
		daysLeft = &d
	}

	f := Forecast{ADU: adu, DaysLeft: daysLeft}

	switch {
	case currentStockEa <= 0:
		f.Status = StatusCritical
	case daysLeft == nil:
		f.Status = StatusSufficient
	case *daysLeft <= float64(c.criticalDays):
		f.Status = StatusCritical
	case *daysLeft <= float64(c.warningDays):
		f.Status = StatusWarning
	default:
		f.Status = StatusSufficient
	}

	return f
}

// RoundADU rounds average daily usage for display (two decimal places)
func RoundADU(adu float64) float64 {
	return math.Round(adu*100) / 100
}

// RoundDaysLeft rounds projected days left for display (one decimal place).
// Returns nil for the no-usage case.
func RoundDaysLeft(daysLeft *float64) *float64 {
	if daysLeft == nil {
		return nil
	}
	d := math.Round(*daysLeft*10) / 10
	return &d
}
