package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warelog/warelog/internal/platform/db"
	"github.com/warelog/warelog/internal/platform/httpx"
	"github.com/warelog/warelog/internal/stock"
)

// TxStore exposes the writes the service performs inside one transaction.
// Ledger returns a stock ledger bound to the same transaction, so quantity
// changes commit and roll back with the document.
type TxStore interface {
	InsertHeader(ctx context.Context, h Header) (int64, error)
	InsertLines(ctx context.Context, kind Kind, headerID int64, lines []LineInput) error
	Ledger() stock.Ledger
}

// Repository persists movements in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type kindTables struct {
	header string
	items  string
	fk     string
	party  string
}

func tables(kind Kind) kindTables {
	if kind == KindReceipt {
		return kindTables{header: "receipts", items: "receipt_items", fk: "receipt_id", party: "suppliers"}
	}
	return kindTables{header: "issues", items: "issue_items", fk: "issue_id", party: "customers"}
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

type txStore struct {
	tx pgx.Tx
}

func (s *txStore) InsertHeader(ctx context.Context, h Header) (int64, error) {
	t := tables(h.Kind)
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO `+t.header+` (code, party_id, date, total, note, status, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id`,
		h.Code, h.PartyID, h.Date, h.Total, h.Note, h.Status, h.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: document code %s", httpx.ErrDuplicate, h.Code)
		}
		return 0, err
	}
	return id, nil
}

func (s *txStore) InsertLines(ctx context.Context, kind Kind, headerID int64, lines []LineInput) error {
	t := tables(kind)
	for _, line := range lines {
		_, err := s.tx.Exec(ctx, `INSERT INTO `+t.items+` (`+t.fk+`, product_id, location_id, quantity, price)
VALUES ($1, $2, $3, $4, $5)`,
			headerID, line.ProductID, line.LocationID, line.Quantity, line.Price)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *txStore) Ledger() stock.Ledger {
	return stock.NewTxLedger(s.tx)
}

// Get hydrates one movement with its party name and lines.
func (r *Repository) Get(ctx context.Context, kind Kind, id int64) (Header, error) {
	t := tables(kind)
	h := Header{Kind: kind}
	err := r.pool.QueryRow(ctx, `SELECT h.id, h.code, h.party_id, p.name, h.date, h.total, h.note, h.status, h.created_by, h.created_at
FROM `+t.header+` h
JOIN `+t.party+` p ON p.id = h.party_id
WHERE h.id = $1`, id).
		Scan(&h.ID, &h.Code, &h.PartyID, &h.PartyName, &h.Date, &h.Total, &h.Note, &h.Status, &h.CreatedBy, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Header{}, fmt.Errorf("%w: %s %d", httpx.ErrNotFound, kind, id)
	}
	if err != nil {
		return Header{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT i.id, i.product_id, pr.sku, pr.name, i.location_id, l.code, i.quantity, i.price
FROM `+t.items+` i
JOIN products pr ON pr.id = i.product_id
JOIN locations l ON l.id = i.location_id
WHERE i.`+t.fk+` = $1
ORDER BY i.id`, id)
	if err != nil {
		return Header{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.ProductID, &line.ProductSKU, &line.ProductName, &line.LocationID, &line.LocationCode, &line.Quantity, &line.Price); err != nil {
			return Header{}, err
		}
		h.Lines = append(h.Lines, line)
	}
	return h, rows.Err()
}

// List returns movement headers of one kind, newest first, without lines.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Header, error) {
	t := tables(filter.Kind)
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT h.id, h.code, h.party_id, p.name, h.date, h.total, h.note, h.status, h.created_by, h.created_at
FROM `+t.header+` h
JOIN `+t.party+` p ON p.id = h.party_id
WHERE ($1::timestamptz IS NULL OR h.date >= $1)
  AND ($2::timestamptz IS NULL OR h.date < $2)
ORDER BY h.date DESC, h.id DESC
LIMIT $3`, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var headers []Header
	for rows.Next() {
		h := Header{Kind: filter.Kind}
		if err := rows.Scan(&h.ID, &h.Code, &h.PartyID, &h.PartyName, &h.Date, &h.Total, &h.Note, &h.Status, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
