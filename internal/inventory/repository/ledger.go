package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yaksok/yaksok-backend/pkg/database"
)

// Movement kinds recorded in the ledger
const (
	TypeInbound  = "inbound"
	TypeOutbound = "outbound"
	TypeDisposal = "disposal"
)

// LedgerEntry is one immutable inventory movement. ea_qty is signed: positive
// for inbound, negative for outbound and disposal, so the running sum over an
// item's entries equals its stock. An outbound request that spans several lots
// produces one entry per lot touched; out_ea_qty carries the full request
// quantity on the first entry only, for audit.
type LedgerEntry struct {
	TransactionID   int64     `db:"transaction_id" json:"transaction_id"`
	TransactionDate time.Time `db:"transaction_date" json:"transaction_date"`
	TransactionType string    `db:"transaction_type" json:"transaction_type"`
	ItemID          string    `db:"item_id" json:"item_id"`
	BatchID         int64     `db:"batch_id" json:"batch_id"`
	EaQty           int       `db:"ea_qty" json:"ea_qty"`
	InBoxQty        *int      `db:"in_box_qty" json:"in_box_qty,omitempty"`
	OutEaQty        *int      `db:"out_ea_qty" json:"out_ea_qty,omitempty"`
}

// StockPoint is one ledger entry with the running stock level after it
type StockPoint struct {
	Date            time.Time `db:"transaction_date" json:"date"`
	EaQty           int       `db:"ea_qty" json:"ea_qty"`
	CumulativeStock int       `db:"cumulative_stock" json:"cumulative_stock"`
}

// MonthlyUsage is the summed outbound volume of one calendar month
type MonthlyUsage struct {
	Month   string `db:"month_label" json:"month"`
	UsageEa int    `db:"total_usage_ea" json:"usage_ea"`
}

// LedgerRepository handles the append-only transactions table. Appends only
// happen inside the allocator's transaction; there is no standalone write.
type LedgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts a ledger entry and fills in the assigned transaction_id.
// Entries are never updated or deleted afterwards.
func (r *LedgerRepository) Append(ctx context.Context, tx *sqlx.Tx, entry *LedgerEntry) error {
	query := `
		INSERT INTO transactions (
			transaction_date, transaction_type, item_id, batch_id, ea_qty, in_box_qty, out_ea_qty
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING transaction_id
	`
	return tx.QueryRowxContext(ctx, query,
		entry.TransactionDate, entry.TransactionType, entry.ItemID, entry.BatchID,
		entry.EaQty, entry.InBoxQty, entry.OutEaQty,
	).Scan(&entry.TransactionID)
}

// HistoryFilter narrows a ledger scan. Zero values mean no constraint.
type HistoryFilter struct {
	Type string
	From *time.Time
	To   *time.Time
}

// History returns an item's ledger entries ascending by date, then by
// insertion order for entries sharing a timestamp.
func (r *LedgerRepository) History(ctx context.Context, itemID string, filter HistoryFilter) ([]*LedgerEntry, error) {
	query := `SELECT * FROM transactions WHERE item_id = $1`
	args := []interface{}{itemID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND transaction_type = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}
	query += " ORDER BY transaction_date ASC, transaction_id ASC"

	var entries []*LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// StockHistory returns the item's movements with a running cumulative stock
// computed over the ledger order.
func (r *LedgerRepository) StockHistory(ctx context.Context, itemID string) ([]*StockPoint, error) {
	var points []*StockPoint
	query := `
		SELECT
			transaction_date,
			ea_qty,
			SUM(ea_qty) OVER (ORDER BY transaction_date ASC, transaction_id ASC) AS cumulative_stock
		FROM transactions
		WHERE item_id = $1
		ORDER BY transaction_date ASC, transaction_id ASC
	`
	if err := r.db.SelectContext(ctx, &points, query, itemID); err != nil {
		return nil, err
	}
	return points, nil
}

// UsageSince sums the absolute outbound and disposal quantities for one item
// from the given instant onwards. Inbound entries are excluded.
func (r *LedgerRepository) UsageSince(ctx context.Context, itemID string, since time.Time) (int, error) {
	var usage int
	query := `
		SELECT COALESCE(SUM(ABS(ea_qty)), 0) FROM transactions
		WHERE item_id = $1
		AND transaction_type IN ('outbound', 'disposal')
		AND transaction_date >= $2
	`
	if err := r.db.GetContext(ctx, &usage, query, itemID, since); err != nil {
		return 0, err
	}
	return usage, nil
}

// UsageTotalsSince sums absolute outbound and disposal quantities per item
// from the given instant onwards. Items without qualifying movements are
// absent from the map.
func (r *LedgerRepository) UsageTotalsSince(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT item_id, COALESCE(SUM(ABS(ea_qty)), 0) AS total_usage_ea
		FROM transactions
		WHERE transaction_type IN ('outbound', 'disposal')
		AND transaction_date >= $1
		GROUP BY item_id
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var itemID string
		var usage int
		if err := rows.Scan(&itemID, &usage); err != nil {
			return nil, err
		}
		totals[itemID] = usage
	}
	return totals, rows.Err()
}

// MonthlyUsage returns the item's outbound volume per calendar month over the
// trailing months.
func (r *LedgerRepository) MonthlyUsage(ctx context.Context, itemID string, months int) ([]*MonthlyUsage, error) {
	var usage []*MonthlyUsage
	query := `
		SELECT
			TO_CHAR(transaction_date, 'YYYY-MM') AS month_label,
			COALESCE(SUM(ABS(ea_qty)), 0) AS total_usage_ea
		FROM transactions
		WHERE item_id = $1
		AND transaction_type = 'outbound'
		AND transaction_date >= NOW() - $2 * INTERVAL '1 month'
		GROUP BY month_label
		ORDER BY month_label ASC
	`
	if err := r.db.SelectContext(ctx, &usage, query, itemID, months); err != nil {
		return nil, err
	}
	return usage, nil
}
