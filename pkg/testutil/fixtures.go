package testutil

import (
	"fmt"
	"time"
)

// ItemFixture represents a catalog item row for seeding tests
type ItemFixture struct {
	ItemID         string
	ItemName       string
	Category       string
	EaPerBox       int
	CurrentStockEa int
}

// BatchFixture represents an inventory batch row for seeding tests
type BatchFixture struct {
	ItemID         string
	ExpiryDate     time.Time
	InDate         time.Time
	CurrentBatchEa int
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Item creates an item fixture with defaults
func (f *FixtureFactory) Item(opts ...func(*ItemFixture)) ItemFixture {
	seq := f.nextSeq()

	item := ItemFixture{
		ItemID:   fmt.Sprintf("MED-TST-%03d", seq),
		ItemName: fmt.Sprintf("Test Item %d", seq),
		Category: "소모품",
		EaPerBox: 10,
	}

	for _, opt := range opts {
		opt(&item)
	}

	return item
}

// WithItemID sets the item's catalog identifier
func WithItemID(id string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.ItemID = id
	}
}

// WithItemName sets the item name
func WithItemName(name string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.ItemName = name
	}
}

// WithCategory sets the item category
func WithCategory(category string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.Category = category
	}
}

// WithEaPerBox sets the item's units per box
func WithEaPerBox(ea int) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.EaPerBox = ea
	}
}

// Batch creates a batch fixture with defaults: received now, expiring in a
// year, one full box of stock.
func (f *FixtureFactory) Batch(itemID string, opts ...func(*BatchFixture)) BatchFixture {
	batch := BatchFixture{
		ItemID:         itemID,
		ExpiryDate:     time.Now().AddDate(1, 0, 0),
		InDate:         time.Now(),
		CurrentBatchEa: 10,
	}

	for _, opt := range opts {
		opt(&batch)
	}

	return batch
}

// WithExpiryDate sets the batch expiry date
func WithExpiryDate(d time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.ExpiryDate = d
	}
}

// WithInDate sets the batch receipt date
func WithInDate(d time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.InDate = d
	}
}

// WithBatchEa sets the batch's remaining quantity
func WithBatchEa(ea int) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.CurrentBatchEa = ea
	}
}

// DefaultTestItems returns a small catalog covering the common categories
func DefaultTestItems(factory *FixtureFactory) []ItemFixture {
	return []ItemFixture{
		factory.Item(WithItemID("MED-SYR-001"), WithItemName("일회용 주사기 10ml"), WithEaPerBox(100)),
		factory.Item(WithItemID("MED-GLV-001"), WithItemName("니트릴 장갑 M"), WithEaPerBox(200)),
		factory.Item(WithItemID("MED-GAU-001"), WithItemName("멸균 거즈"), WithEaPerBox(50)),
	}
}
