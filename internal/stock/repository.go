package stock

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository serves ledger reads from the pool. It never mutates quantities;
// that is TxLedger's job.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Quantity reads the on-hand quantity for one product at one location.
// A missing row reads as zero.
func (r *Repository) Quantity(ctx context.Context, productID, locationID int64) (float64, error) {
	var qty float64
	err := r.pool.QueryRow(ctx, `SELECT quantity FROM stock WHERE product_id=$1 AND location_id=$2`,
		productID, locationID).Scan(&qty)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// TotalForProduct sums the product's quantity across every location.
func (r *Repository) TotalForProduct(ctx context.Context, productID int64) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM stock WHERE product_id=$1`,
		productID).Scan(&total)
	return total, err
}

// List returns every tracked stock level with product and location context.
func (r *Repository) List(ctx context.Context) ([]Level, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.product_id, p.sku, p.name, s.location_id, l.code, s.quantity, s.updated_at
FROM stock s
JOIN products p ON p.id = s.product_id
JOIN locations l ON l.id = s.location_id
ORDER BY p.sku, l.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var levels []Level
	for rows.Next() {
		var lv Level
		if err := rows.Scan(&lv.ProductID, &lv.ProductSKU, &lv.ProductName, &lv.LocationID, &lv.LocationCode, &lv.Quantity, &lv.UpdatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, lv)
	}
	return levels, rows.Err()
}

// History merges receipt and issue lines into one movement stream, newest
// first. Zero filter IDs match everything.
func (r *Repository) History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT r.code, 'receipt' AS kind, ri.product_id, ri.location_id, ri.quantity, ri.price, r.created_at
FROM receipt_items ri
JOIN receipts r ON r.id = ri.receipt_id
WHERE ($1 = 0 OR ri.product_id = $1) AND ($2 = 0 OR ri.location_id = $2)
UNION ALL
SELECT i.code, 'issue' AS kind, ii.product_id, ii.location_id, ii.quantity, ii.price, i.created_at
FROM issue_items ii
JOIN issues i ON i.id = ii.issue_id
WHERE ($1 = 0 OR ii.product_id = $1) AND ($2 = 0 OR ii.location_id = $2)
ORDER BY created_at DESC
LIMIT $3`, filter.ProductID, filter.LocationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Code, &e.Kind, &e.ProductID, &e.LocationID, &e.Quantity, &e.Price, &e.PostedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
