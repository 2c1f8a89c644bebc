package stock

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/warelog/warelog/internal/platform/httpx"
	"github.com/warelog/warelog/internal/shared"
)

type levelKey struct {
	productID  int64
	locationID int64
}

// fakeTx interprets the ledger's three statements against a map so the
// guard logic can be exercised without a database.
type fakeTx struct {
	levels map[levelKey]float64
}

func newFakeTx() *fakeTx {
	return &fakeTx{levels: map[levelKey]float64{}}
}

type fakeRow struct {
	qty float64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*float64)) = r.qty
	return nil
}

func (f *fakeTx) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	key := levelKey{productID: args[0].(int64), locationID: args[1].(int64)}
	qty, ok := f.levels[key]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{qty: qty}
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	key := levelKey{productID: args[0].(int64), locationID: args[1].(int64)}
	delta := args[2].(float64)
	if strings.HasPrefix(sql, "INSERT") {
		f.levels[key] += delta
	} else {
		f.levels[key] -= delta
	}
	return pgconn.CommandTag{}, nil
}

func TestQuantityAbsentRowReadsZero(t *testing.T) {
	ledger := NewTxLedger(newFakeTx())

	qty, err := ledger.Quantity(context.Background(), int64(1), int64(2))
	require.NoError(t, err)
	require.Zero(t, qty)
}

func TestIncreaseCreatesAndAccumulates(t *testing.T) {
	tx := newFakeTx()
	ledger := NewTxLedger(tx)

	require.NoError(t, ledger.Increase(context.Background(), int64(1), int64(2), 10))
	require.NoError(t, ledger.Increase(context.Background(), int64(1), int64(2), 5))

	qty, err := ledger.Quantity(context.Background(), int64(1), int64(2))
	require.NoError(t, err)
	require.Equal(t, 15.0, qty)
}

func TestIncreaseRejectsNonPositiveQty(t *testing.T) {
	ledger := NewTxLedger(newFakeTx())

	require.ErrorIs(t, ledger.Increase(context.Background(), int64(1), int64(2), 0), httpx.ErrValidation)
	require.ErrorIs(t, ledger.Increase(context.Background(), int64(1), int64(2), -3), httpx.ErrValidation)
}

func TestDecreaseWithinAvailable(t *testing.T) {
	tx := newFakeTx()
	ledger := NewTxLedger(tx)

	require.NoError(t, ledger.Increase(context.Background(), int64(1), int64(2), 10))
	require.NoError(t, ledger.Decrease(context.Background(), int64(1), int64(2), 4))

	qty, err := ledger.Quantity(context.Background(), int64(1), int64(2))
	require.NoError(t, err)
	require.Equal(t, 6.0, qty)
}

func TestDecreaseExactToZero(t *testing.T) {
	tx := newFakeTx()
	ledger := NewTxLedger(tx)

	require.NoError(t, ledger.Increase(context.Background(), int64(1), int64(2), 10))
	require.NoError(t, ledger.Decrease(context.Background(), int64(1), int64(2), 10))

	qty, err := ledger.Quantity(context.Background(), int64(1), int64(2))
	require.NoError(t, err)
	require.Zero(t, qty)
}

func TestDecreaseBeyondAvailableReportsOnHand(t *testing.T) {
	tx := newFakeTx()
	ledger := NewTxLedger(tx)

	require.NoError(t, ledger.Increase(context.Background(), int64(1), int64(2), 3))

	err := ledger.Decrease(context.Background(), int64(1), int64(2), 7)
	var insufficient *shared.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 7.0, insufficient.Requested)
	require.Equal(t, 3.0, insufficient.Available)
	require.ErrorIs(t, err, httpx.ErrConflict)

	qty, err := ledger.Quantity(context.Background(), int64(1), int64(2))
	require.NoError(t, err)
	require.Equal(t, 3.0, qty)
}

func TestDecreaseFromAbsentRow(t *testing.T) {
	ledger := NewTxLedger(newFakeTx())

	err := ledger.Decrease(context.Background(), int64(9), int64(9), 1)
	var insufficient *shared.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Zero(t, insufficient.Available)
}
