package testutil

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InventoryMigrations returns the DDL for the inventory schema, in apply
// order. The CHECK constraints mirror the invariants the allocator maintains:
// the stock aggregate and batch quantities never go negative, and every
// ledger row names one of the three movement kinds.
func InventoryMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS items (
			item_id VARCHAR(50) PRIMARY KEY,
			item_name VARCHAR(255) NOT NULL,
			category VARCHAR(100) NOT NULL DEFAULT '',
			ea_per_box INTEGER NOT NULL CHECK (ea_per_box > 0),
			current_stock_ea INTEGER NOT NULL DEFAULT 0 CHECK (current_stock_ea >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS inventory_batches (
			batch_id BIGSERIAL PRIMARY KEY,
			item_id VARCHAR(50) NOT NULL REFERENCES items(item_id),
			expiry_date DATE NOT NULL,
			in_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			current_batch_ea INTEGER NOT NULL CHECK (current_batch_ea >= 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_fifo
			ON inventory_batches (item_id, in_date, batch_id)
			WHERE current_batch_ea > 0`,
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id BIGSERIAL PRIMARY KEY,
			transaction_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			transaction_type VARCHAR(20) NOT NULL
				CHECK (transaction_type IN ('inbound', 'outbound', 'disposal')),
			item_id VARCHAR(50) NOT NULL REFERENCES items(item_id),
			batch_id BIGINT NOT NULL REFERENCES inventory_batches(batch_id),
			ea_qty INTEGER NOT NULL,
			in_box_qty INTEGER,
			out_ea_qty INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_item_date
			ON transactions (item_id, transaction_date)`,
	}
}

// ApplyMigrations runs the given DDL statements in order
func ApplyMigrations(ctx context.Context, db *sqlx.DB, migrations []string) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}

// TruncateInventoryTables empties the inventory tables between tests
func TruncateInventoryTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx,
		`TRUNCATE transactions, inventory_batches, items RESTART IDENTITY CASCADE`)
	return err
}
