// Package transactions posts warehouse movements: goods receipts from
// suppliers and goods issues to customers. A movement writes its header,
// its lines and the matching ledger changes in one database transaction.
package transactions

import "time"

// Kind discriminates movement direction.
type Kind string

const (
	KindReceipt Kind = "receipt"
	KindIssue   Kind = "issue"
)

// Valid reports whether the kind is one of the two movement directions.
func (k Kind) Valid() bool {
	return k == KindReceipt || k == KindIssue
}

// CodePrefix returns the document code prefix for the kind.
func (k Kind) CodePrefix() string {
	if k == KindReceipt {
		return "NH"
	}
	return "XU"
}

// Status is the document lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPending || s == StatusCompleted
}

// Header is a posted movement document.
type Header struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Kind      Kind      `json:"kind"`
	PartyID   int64     `json:"party_id"`
	PartyName string    `json:"party_name"`
	Date      time.Time `json:"date"`
	Total     float64   `json:"total"`
	Note      string    `json:"note"`
	Status    Status    `json:"status"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Lines     []Line    `json:"lines"`
}

// Line is one product movement inside a document.
type Line struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	ProductSKU   string  `json:"product_sku"`
	ProductName  string  `json:"product_name"`
	LocationID   int64   `json:"location_id"`
	LocationCode string  `json:"location_code"`
	Quantity     float64 `json:"quantity"`
	Price        float64 `json:"price"`
}

// LineInput is a requested movement line.
type LineInput struct {
	ProductID  int64   `json:"product_id" validate:"required,gt=0"`
	LocationID int64   `json:"location_id" validate:"required,gt=0"`
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
	Price      float64 `json:"price" validate:"gte=0"`
}

// CreateRequest is a movement to post. PartyID names the supplier for a
// receipt and the customer for an issue. A zero Date means "now"; an empty
// Status posts as completed.
type CreateRequest struct {
	Kind    Kind        `json:"kind" validate:"required"`
	PartyID int64       `json:"party_id" validate:"required,gt=0"`
	Date    time.Time   `json:"date"`
	Note    string      `json:"note"`
	Status  Status      `json:"status"`
	Lines   []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// ListFilter narrows movement listings.
type ListFilter struct {
	Kind  Kind
	From  time.Time
	To    time.Time
	Limit int
}
