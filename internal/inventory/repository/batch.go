package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yaksok/yaksok-backend/pkg/database"
	"github.com/yaksok/yaksok-backend/pkg/errors"
)

// Batch represents one dated lot of an item. current_batch_ea is set once at
// receipt and only ever decremented afterwards; an empty batch is kept for
// history but never replenished.
type Batch struct {
	BatchID        int64     `db:"batch_id" json:"batch_id"`
	ItemID         string    `db:"item_id" json:"item_id"`
	ExpiryDate     time.Time `db:"expiry_date" json:"expiry_date"`
	InDate         time.Time `db:"in_date" json:"in_date"`
	CurrentBatchEa int       `db:"current_batch_ea" json:"current_batch_ea"`
}

// ExpiringBatch is a batch joined with its item name for alert listings
type ExpiringBatch struct {
	BatchID        int64     `db:"batch_id" json:"batch_id"`
	ItemID         string    `db:"item_id" json:"item_id"`
	ItemName       string    `db:"item_name" json:"item_name"`
	ExpiryDate     time.Time `db:"expiry_date" json:"expiry_date"`
	CurrentBatchEa int       `db:"current_batch_ea" json:"current_batch_ea"`
}

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a new batch inside the allocator's transaction and fills in
// the assigned batch_id.
func (r *BatchRepository) Create(ctx context.Context, tx *sqlx.Tx, batch *Batch) error {
	query := `
		INSERT INTO inventory_batches (item_id, expiry_date, in_date, current_batch_ea)
		VALUES ($1, $2, $3, $4)
		RETURNING batch_id
	`
	return tx.QueryRowxContext(ctx, query,
		batch.ItemID, batch.ExpiryDate, batch.InDate, batch.CurrentBatchEa,
	).Scan(&batch.BatchID)
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, batchID int64) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM inventory_batches WHERE batch_id = $1`
	if err := r.db.GetContext(ctx, &batch, query, batchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// ListByItem lists all batches for an item, oldest lot first
func (r *BatchRepository) ListByItem(ctx context.Context, itemID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM inventory_batches
		WHERE item_id = $1
		ORDER BY in_date ASC, batch_id ASC
	`
	if err := r.db.SelectContext(ctx, &batches, query, itemID); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListOpenForUpdate locks and returns the item's non-empty batches in FIFO
// order: in_date ascending, batch_id ascending as the tie-break. The lock
// order matches the order the allocator will decrement them in.
func (r *BatchRepository) ListOpenForUpdate(ctx context.Context, tx *sqlx.Tx, itemID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM inventory_batches
		WHERE item_id = $1 AND current_batch_ea > 0
		ORDER BY in_date ASC, batch_id ASC
		FOR UPDATE
	`
	if err := tx.SelectContext(ctx, &batches, query, itemID); err != nil {
		return nil, err
	}
	return batches, nil
}

// Decrement takes qty units out of a batch. The guard on current_batch_ea
// keeps the column monotonically non-increasing even if a caller miscomputes.
func (r *BatchRepository) Decrement(ctx context.Context, tx *sqlx.Tx, batchID int64, qty int) error {
	query := `
		UPDATE inventory_batches
		SET current_batch_ea = current_batch_ea - $2
		WHERE batch_id = $1 AND current_batch_ea >= $2
	`
	result, err := tx.ExecContext(ctx, query, batchID, qty)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Internal("batch decrement exceeded remaining quantity")
	}

	return nil
}

// NearestExpiry returns the minimum expiry date across the item's non-empty
// batches, or nil when the item has no stock on the shelf.
func (r *BatchRepository) NearestExpiry(ctx context.Context, itemID string) (*time.Time, error) {
	var expiry sql.NullTime
	query := `
		SELECT MIN(expiry_date) FROM inventory_batches
		WHERE item_id = $1 AND current_batch_ea > 0
	`
	if err := r.db.GetContext(ctx, &expiry, query, itemID); err != nil {
		return nil, err
	}
	if !expiry.Valid {
		return nil, nil
	}
	return &expiry.Time, nil
}

// ExpiringWithin lists non-empty batches whose expiry date falls inside
// [today, today + days], ordered by expiry date then item name.
func (r *BatchRepository) ExpiringWithin(ctx context.Context, days int) ([]*ExpiringBatch, error) {
	var batches []*ExpiringBatch
	query := `
		SELECT b.batch_id, b.item_id, i.item_name, b.expiry_date, b.current_batch_ea
		FROM inventory_batches b
		JOIN items i ON i.item_id = b.item_id
		WHERE b.current_batch_ea > 0
		AND b.expiry_date BETWEEN CURRENT_DATE AND CURRENT_DATE + $1 * INTERVAL '1 day'
		ORDER BY b.expiry_date ASC, i.item_name ASC
	`
	if err := r.db.SelectContext(ctx, &batches, query, days); err != nil {
		return nil, err
	}
	return batches, nil
}
