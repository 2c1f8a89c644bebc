// Package stock owns the on-hand ledger: one quantity per product and
// location. Reads go through the pool; mutations only ever happen on a
// TxLedger bound to the enclosing database transaction, so a movement's
// header, lines and quantity changes commit or roll back together.
package stock

import (
	"context"
	"time"
)

// Level is the on-hand quantity of a product at a location.
type Level struct {
	ProductID    int64     `json:"product_id"`
	ProductSKU   string    `json:"product_sku"`
	ProductName  string    `json:"product_name"`
	LocationID   int64     `json:"location_id"`
	LocationCode string    `json:"location_code"`
	Quantity     float64   `json:"quantity"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HistoryEntry is one movement line, receipt or issue, in posting order.
type HistoryEntry struct {
	Code       string    `json:"code"`
	Kind       string    `json:"kind"`
	ProductID  int64     `json:"product_id"`
	LocationID int64     `json:"location_id"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	PostedAt   time.Time `json:"posted_at"`
}

// HistoryFilter narrows the movement history query. Zero IDs mean "any".
type HistoryFilter struct {
	ProductID  int64
	LocationID int64
	Limit      int
}

// Ledger mutates on-hand quantities inside an open transaction.
type Ledger interface {
	Quantity(ctx context.Context, productID, locationID int64) (float64, error)
	Increase(ctx context.Context, productID, locationID int64, qty float64) error
	Decrease(ctx context.Context, productID, locationID int64, qty float64) error
}
