package stock

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/warelog/warelog/internal/shared"
)

// Querier is the subset of pgx.Tx the ledger needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxLedger applies quantity changes on an open transaction. Callers construct
// one per transaction so the row locks it takes are released on commit or
// rollback together with the rest of the movement.
type TxLedger struct {
	tx Querier
}

// NewTxLedger binds a ledger to the transaction.
func NewTxLedger(tx Querier) *TxLedger {
	return &TxLedger{tx: tx}
}

// Quantity reads the current on-hand quantity, locking the row. A missing row
// reads as zero.
func (l *TxLedger) Quantity(ctx context.Context, productID, locationID int64) (float64, error) {
	var qty float64
	err := l.tx.QueryRow(ctx, `SELECT quantity FROM stock WHERE product_id=$1 AND location_id=$2 FOR UPDATE`,
		productID, locationID).Scan(&qty)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// Increase adds qty to the on-hand quantity, creating the row if absent.
func (l *TxLedger) Increase(ctx context.Context, productID, locationID int64, qty float64) error {
	if qty <= 0 {
		return shared.NewValidationError("quantity", "must be positive")
	}
	_, err := l.tx.Exec(ctx, `INSERT INTO stock (product_id, location_id, quantity, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (product_id, location_id) DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		productID, locationID, qty)
	return err
}

// Decrease subtracts qty from the on-hand quantity. When the available
// quantity is short the ledger refuses and reports what is actually on hand,
// leaving the row untouched.
func (l *TxLedger) Decrease(ctx context.Context, productID, locationID int64, qty float64) error {
	if qty <= 0 {
		return shared.NewValidationError("quantity", "must be positive")
	}
	available, err := l.Quantity(ctx, productID, locationID)
	if err != nil {
		return err
	}
	if available < qty {
		return &shared.InsufficientStockError{
			ProductID:  productID,
			LocationID: locationID,
			Requested:  qty,
			Available:  available,
		}
	}
	_, err = l.tx.Exec(ctx, `UPDATE stock SET quantity = quantity - $3, updated_at = NOW()
WHERE product_id=$1 AND location_id=$2`,
		productID, locationID, qty)
	return err
}

var _ Ledger = (*TxLedger)(nil)
