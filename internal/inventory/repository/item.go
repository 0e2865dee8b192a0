package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yaksok/yaksok-backend/pkg/database"
	"github.com/yaksok/yaksok-backend/pkg/errors"
)

// Item represents a catalog item. current_stock_ea is a denormalized sum of
// the item's batch quantities; it is only ever written inside the allocator's
// transaction, together with the batches and the ledger.
type Item struct {
	ItemID         string    `db:"item_id" json:"item_id"`
	ItemName       string    `db:"item_name" json:"item_name"`
	Category       string    `db:"category" json:"category"`
	EaPerBox       int       `db:"ea_per_box" json:"ea_per_box"`
	CurrentStockEa int       `db:"current_stock_ea" json:"current_stock_ea"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ItemRepository handles item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, itemID string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE item_id = $1`
	if err := r.db.GetContext(ctx, &item, query, itemID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// List lists all catalog items ordered by name
func (r *ItemRepository) List(ctx context.Context) ([]*Item, error) {
	var items []*Item
	query := `SELECT * FROM items ORDER BY item_name ASC`
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

// CurrentStock returns the cached stock aggregate for an item. The aggregate
// is never recomputed by summing batches on the read path.
func (r *ItemRepository) CurrentStock(ctx context.Context, itemID string) (int, error) {
	var stock int
	query := `SELECT current_stock_ea FROM items WHERE item_id = $1`
	if err := r.db.GetContext(ctx, &stock, query, itemID); err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.NotFound("item")
		}
		return 0, err
	}
	return stock, nil
}

// GetForUpdate locks the item row for the duration of the transaction.
// Acquiring this lock first serializes all writers for one item while leaving
// other items untouched.
func (r *ItemRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, itemID string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE item_id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &item, query, itemID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// AddStock adjusts the cached aggregate by delta (negative for consumption).
// Must be called with the item row locked, inside the allocator's transaction.
func (r *ItemRepository) AddStock(ctx context.Context, tx *sqlx.Tx, itemID string, delta int) error {
	query := `
		UPDATE items
		SET current_stock_ea = current_stock_ea + $2, updated_at = NOW()
		WHERE item_id = $1
	`
	result, err := tx.ExecContext(ctx, query, itemID, delta)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}
