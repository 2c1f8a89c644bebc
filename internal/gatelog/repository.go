package gatelog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warelog/warelog/internal/platform/db"
	"github.com/warelog/warelog/internal/platform/httpx"
)

// TxStore exposes the pairing writes performed inside one transaction.
type TxStore interface {
	// OpenEntryForUpdate returns the vehicle's most recent unmatched "in"
	// entry, locking it so concurrent pairings serialize. Ties on datetime
	// resolve to the last-inserted row.
	OpenEntryForUpdate(ctx context.Context, vehicleID int64) (Log, bool, error)
	InsertLog(ctx context.Context, log Log) (int64, error)
	SetExitLog(ctx context.Context, inID, outID int64) error
}

// Repository persists gate logs in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
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

func (s *txStore) OpenEntryForUpdate(ctx context.Context, vehicleID int64) (Log, bool, error) {
	var log Log
	err := s.tx.QueryRow(ctx, `SELECT id, vehicle_id, direction, purpose, note, at, recorded_by
FROM vehicle_logs
WHERE vehicle_id = $1 AND direction = 'in' AND exit_log_id IS NULL
ORDER BY at DESC, id DESC
LIMIT 1
FOR UPDATE`, vehicleID).
		Scan(&log.ID, &log.VehicleID, &log.Direction, &log.Purpose, &log.Note, &log.At, &log.RecordedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Log{}, false, nil
	}
	if err != nil {
		return Log{}, false, err
	}
	return log, true, nil
}

func (s *txStore) InsertLog(ctx context.Context, log Log) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO vehicle_logs (vehicle_id, direction, purpose, note, at, recorded_by)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		log.VehicleID, log.Direction, log.Purpose, log.Note, log.At, log.RecordedBy).Scan(&id)
	return id, err
}

func (s *txStore) SetExitLog(ctx context.Context, inID, outID int64) error {
	_, err := s.tx.Exec(ctx, `UPDATE vehicle_logs SET exit_log_id = $2 WHERE id = $1`, inID, outID)
	return err
}

// Get returns one log with vehicle context.
func (r *Repository) Get(ctx context.Context, id int64) (Log, error) {
	var log Log
	err := r.pool.QueryRow(ctx, `SELECT g.id, g.vehicle_id, v.plate, v.driver, g.direction, g.purpose, g.note, g.at, g.exit_log_id, g.recorded_by
FROM vehicle_logs g
JOIN vehicles v ON v.id = g.vehicle_id
WHERE g.id = $1`, id).
		Scan(&log.ID, &log.VehicleID, &log.Plate, &log.Driver, &log.Direction, &log.Purpose, &log.Note, &log.At, &log.ExitLogID, &log.RecordedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Log{}, fmt.Errorf("%w: gate log %d", httpx.ErrNotFound, id)
	}
	return log, err
}

// List returns gate logs, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Log, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT g.id, g.vehicle_id, v.plate, v.driver, g.direction, g.purpose, g.note, g.at, g.exit_log_id, g.recorded_by
FROM vehicle_logs g
JOIN vehicles v ON v.id = g.vehicle_id
WHERE ($1 = 0 OR g.vehicle_id = $1)
  AND ($2 = '' OR g.direction = $2)
  AND (NOT $3::bool OR (g.direction = 'in' AND g.exit_log_id IS NULL))
  AND ($4::timestamptz IS NULL OR g.at >= $4)
  AND ($5::timestamptz IS NULL OR g.at < $5)
ORDER BY g.at DESC, g.id DESC
LIMIT $6`, filter.VehicleID, string(filter.Direction), filter.Parked, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

// OpenEntries returns every unmatched "in" entry with vehicle context.
func (r *Repository) OpenEntries(ctx context.Context) ([]Log, error) {
	rows, err := r.pool.Query(ctx, `SELECT g.id, g.vehicle_id, v.plate, v.driver, g.direction, g.purpose, g.note, g.at, g.exit_log_id, g.recorded_by
FROM vehicle_logs g
JOIN vehicles v ON v.id = g.vehicle_id
WHERE g.direction = 'in' AND g.exit_log_id IS NULL
ORDER BY g.at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

// LogsBetween returns every log with at in [from, to), oldest first.
func (r *Repository) LogsBetween(ctx context.Context, from, to time.Time) ([]Log, error) {
	rows, err := r.pool.Query(ctx, `SELECT g.id, g.vehicle_id, v.plate, v.driver, g.direction, g.purpose, g.note, g.at, g.exit_log_id, g.recorded_by
FROM vehicle_logs g
JOIN vehicles v ON v.id = g.vehicle_id
WHERE g.at >= $1 AND g.at < $2
ORDER BY g.at ASC, g.id ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

func scanLogs(rows pgx.Rows) ([]Log, error) {
	var logs []Log
	for rows.Next() {
		var log Log
		if err := rows.Scan(&log.ID, &log.VehicleID, &log.Plate, &log.Driver, &log.Direction, &log.Purpose, &log.Note, &log.At, &log.ExitLogID, &log.RecordedBy); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
