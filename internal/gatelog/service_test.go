package gatelog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warelog/warelog/internal/masterdata"
	"github.com/warelog/warelog/internal/platform/httpx"
	"github.com/warelog/warelog/internal/shared"
)

// fakeRepo keeps logs in insertion order and applies the same open-entry
// selection rule as the SQL: latest datetime, then highest id.
type fakeRepo struct {
	logs   []Log
	nextID int64
}

type fakeTxStore struct {
	repo *fakeRepo
}

func (s *fakeTxStore) OpenEntryForUpdate(_ context.Context, vehicleID int64) (Log, bool, error) {
	var best *Log
	for i := range s.repo.logs {
		log := &s.repo.logs[i]
		if log.VehicleID != vehicleID || log.Direction != DirectionIn || log.ExitLogID != nil {
			continue
		}
		if best == nil || log.At.After(best.At) || (log.At.Equal(best.At) && log.ID > best.ID) {
			best = log
		}
	}
	if best == nil {
		return Log{}, false, nil
	}
	return *best, true, nil
}

func (s *fakeTxStore) InsertLog(_ context.Context, log Log) (int64, error) {
	s.repo.nextID++
	log.ID = s.repo.nextID
	s.repo.logs = append(s.repo.logs, log)
	return log.ID, nil
}

func (s *fakeTxStore) SetExitLog(_ context.Context, inID, outID int64) error {
	for i := range s.repo.logs {
		if s.repo.logs[i].ID == inID {
			s.repo.logs[i].ExitLogID = &outID
			return nil
		}
	}
	return fmt.Errorf("no log %d", inID)
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	backup := append([]Log(nil), r.logs...)
	idBackup := r.nextID
	if err := fn(ctx, &fakeTxStore{repo: r}); err != nil {
		r.logs = backup
		r.nextID = idBackup
		return err
	}
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id int64) (Log, error) {
	for _, log := range r.logs {
		if log.ID == id {
			return log, nil
		}
	}
	return Log{}, fmt.Errorf("%w: gate log %d", httpx.ErrNotFound, id)
}

func (r *fakeRepo) List(_ context.Context, filter ListFilter) ([]Log, error) {
	var out []Log
	for _, log := range r.logs {
		if filter.VehicleID != 0 && log.VehicleID != filter.VehicleID {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (r *fakeRepo) OpenEntries(_ context.Context) ([]Log, error) {
	var out []Log
	for _, log := range r.logs {
		if log.Direction == DirectionIn && log.ExitLogID == nil {
			out = append(out, log)
		}
	}
	return out, nil
}

func (r *fakeRepo) LogsBetween(_ context.Context, from, to time.Time) ([]Log, error) {
	var out []Log
	for _, log := range r.logs {
		if !log.At.Before(from) && log.At.Before(to) {
			out = append(out, log)
		}
	}
	return out, nil
}

type fakeVehicles struct {
	vehicles map[int64]masterdata.Vehicle
	err      error
}

func (f *fakeVehicles) ProductExists(context.Context, int64) (bool, error)  { return false, nil }
func (f *fakeVehicles) LocationExists(context.Context, int64) (bool, error) { return false, nil }
func (f *fakeVehicles) SupplierExists(context.Context, int64) (bool, error) { return false, nil }
func (f *fakeVehicles) CustomerExists(context.Context, int64) (bool, error) { return false, nil }

func (f *fakeVehicles) GetProduct(context.Context, int64) (masterdata.Product, error) {
	return masterdata.Product{}, fmt.Errorf("%w: product", httpx.ErrNotFound)
}

func (f *fakeVehicles) GetVehicle(_ context.Context, id int64) (masterdata.Vehicle, error) {
	if f.err != nil {
		return masterdata.Vehicle{}, f.err
	}
	v, ok := f.vehicles[id]
	if !ok {
		return masterdata.Vehicle{}, fmt.Errorf("%w: vehicle %d", httpx.ErrNotFound, id)
	}
	return v, nil
}

func newTestService(now time.Time) (*Service, *fakeRepo) {
	repo := &fakeRepo{}
	lookup := &fakeVehicles{vehicles: map[int64]masterdata.Vehicle{
		1: {ID: 1, Plate: "51C-12345", Driver: "Nguyen Van A"},
		2: {ID: 2, Plate: "29H-00001", Driver: "Tran Van B"},
	}}
	svc := NewService(repo, lookup, nil, slog.Default())
	svc.now = func() time.Time { return now }
	return svc, repo
}

var baseTime = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func TestInThenOutPairs(t *testing.T) {
	svc, repo := newTestService(baseTime)
	ctx := context.Background()

	in, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime})
	require.NoError(t, err)
	require.Nil(t, in.ExitLogID)
	require.Equal(t, "51C-12345", in.Plate)

	out, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionOut, At: baseTime.Add(2 * time.Hour)})
	require.NoError(t, err)

	paired, err := repo.Get(ctx, in.ID)
	require.NoError(t, err)
	require.NotNil(t, paired.ExitLogID)
	require.Equal(t, out.ID, *paired.ExitLogID)
}

func TestOutWithNoEntryIsInvalidTransition(t *testing.T) {
	svc, repo := newTestService(baseTime)

	_, err := svc.Record(context.Background(), RecordRequest{VehicleID: 1, Direction: DirectionOut, At: baseTime})
	var transition *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	require.Equal(t, int64(1), transition.VehicleID)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Empty(t, repo.logs, "rejected event must not be recorded")
}

func TestSecondOutAfterPairingIsInvalidTransition(t *testing.T) {
	svc, _ := newTestService(baseTime)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionOut, At: baseTime.Add(time.Hour)})
	require.NoError(t, err)

	_, err = svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionOut, At: baseTime.Add(2 * time.Hour)})
	var transition *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestReentryRequiresConfirmation(t *testing.T) {
	svc, repo := newTestService(baseTime)
	ctx := context.Background()

	first, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime})
	require.NoError(t, err)

	_, err = svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime.Add(time.Hour)})
	require.ErrorIs(t, err, shared.ErrReentryNotConfirmed)
	require.Len(t, repo.logs, 1)

	second, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime.Add(time.Hour), ConfirmReentry: true})
	require.NoError(t, err)

	// The earlier entry stays open alongside the confirmed re-entry.
	open, err := repo.OpenEntries(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, first.ID, open[0].ID)
	require.Equal(t, second.ID, open[1].ID)
}

func TestOutPairsMostRecentOpenEntry(t *testing.T) {
	svc, repo := newTestService(baseTime)
	ctx := context.Background()

	first, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime})
	require.NoError(t, err)
	second, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime.Add(time.Hour), ConfirmReentry: true})
	require.NoError(t, err)

	out, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionOut, At: baseTime.Add(3 * time.Hour)})
	require.NoError(t, err)

	latest, err := repo.Get(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, latest.ExitLogID)
	require.Equal(t, out.ID, *latest.ExitLogID)

	earlier, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Nil(t, earlier.ExitLogID)
}

func TestSameTimestampTieBreaksToLastInserted(t *testing.T) {
	svc, repo := newTestService(baseTime)
	ctx := context.Background()

	first, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime})
	require.NoError(t, err)
	second, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime, ConfirmReentry: true})
	require.NoError(t, err)

	out, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionOut, At: baseTime.Add(time.Hour)})
	require.NoError(t, err)

	lastInserted, err := repo.Get(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, lastInserted.ExitLogID)
	require.Equal(t, out.ID, *lastInserted.ExitLogID)

	firstInserted, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Nil(t, firstInserted.ExitLogID)
}

func TestVehiclesPairIndependently(t *testing.T) {
	svc, repo := newTestService(baseTime)
	ctx := context.Background()

	in1, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: baseTime})
	require.NoError(t, err)
	in2, err := svc.Record(ctx, RecordRequest{VehicleID: 2, Direction: DirectionIn, At: baseTime.Add(time.Minute)})
	require.NoError(t, err)

	out2, err := svc.Record(ctx, RecordRequest{VehicleID: 2, Direction: DirectionOut, At: baseTime.Add(time.Hour)})
	require.NoError(t, err)

	paired, err := repo.Get(ctx, in2.ID)
	require.NoError(t, err)
	require.Equal(t, out2.ID, *paired.ExitLogID)

	stillOpen, err := repo.Get(ctx, in1.ID)
	require.NoError(t, err)
	require.Nil(t, stillOpen.ExitLogID)
}

func TestRecordRejectsUnknownVehicle(t *testing.T) {
	svc, _ := newTestService(baseTime)

	_, err := svc.Record(context.Background(), RecordRequest{VehicleID: 99, Direction: DirectionIn})
	var refErr *shared.ReferenceNotFoundError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, "vehicle", refErr.Entity)
}

func TestRecordSurfacesVehicleLookupFailure(t *testing.T) {
	repo := &fakeRepo{}
	lookupErr := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	svc := NewService(repo, &fakeVehicles{err: lookupErr}, nil, slog.Default())

	_, err := svc.Record(context.Background(), RecordRequest{VehicleID: 1, Direction: DirectionIn})
	require.ErrorIs(t, err, lookupErr)

	var refErr *shared.ReferenceNotFoundError
	require.False(t, errors.As(err, &refErr), "a lookup failure is not a missing vehicle")
	require.NotErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, repo.logs)
}

func TestRecordRejectsBadDirection(t *testing.T) {
	svc, _ := newTestService(baseTime)

	_, err := svc.Record(context.Background(), RecordRequest{VehicleID: 1, Direction: "sideways"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestParkedAlertsThreshold(t *testing.T) {
	now := baseTime.Add(12 * time.Hour)
	svc, _ := newTestService(now)
	ctx := context.Background()

	// Vehicle 1 entered 9 hours ago, vehicle 2 entered 3 hours ago.
	_, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: now.Add(-9 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordRequest{VehicleID: 2, Direction: DirectionIn, At: now.Add(-3 * time.Hour)})
	require.NoError(t, err)

	alerts, err := svc.ParkedAlerts(ctx, 8)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, int64(1), alerts[0].VehicleID)
	require.Equal(t, 9, alerts[0].HoursIn)
}

func TestParkedAlertsDefaultsThreshold(t *testing.T) {
	now := baseTime.Add(24 * time.Hour)
	svc, _ := newTestService(now)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: now.Add(-8*time.Hour - 30*time.Minute)})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordRequest{VehicleID: 2, Direction: DirectionIn, At: now.Add(-7 * time.Hour)})
	require.NoError(t, err)

	alerts, err := svc.ParkedAlerts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, 8, alerts[0].HoursIn, "dwell is truncated to whole hours")
}

func TestParkedAlertsIgnoresExited(t *testing.T) {
	now := baseTime.Add(24 * time.Hour)
	svc, _ := newTestService(now)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: now.Add(-10 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionOut, At: now.Add(-1 * time.Hour)})
	require.NoError(t, err)

	alerts, err := svc.ParkedAlerts(ctx, 8)
	require.NoError(t, err)
	require.Empty(t, alerts)
}

func TestStatsCountsPerDay(t *testing.T) {
	svc, _ := newTestService(baseTime)
	ctx := context.Background()

	day1 := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	_, err := svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionIn, At: day1})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordRequest{VehicleID: 1, Direction: DirectionOut, At: day1.Add(2 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Record(ctx, RecordRequest{VehicleID: 2, Direction: DirectionIn, At: day2})
	require.NoError(t, err)

	report, err := svc.Stats(ctx, day1.Truncate(24*time.Hour), day2.Truncate(24*time.Hour).AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, report.Days, 2)

	require.Equal(t, "2026-08-30", report.Days[0].Date)
	require.Equal(t, 1, report.Days[0].In)
	require.Equal(t, 1, report.Days[0].Out)
	require.Equal(t, 0, report.Days[0].Parked)

	require.Equal(t, "2026-08-31", report.Days[1].Date)
	require.Equal(t, 1, report.Days[1].In)
	require.Equal(t, 0, report.Days[1].Out)
	require.Equal(t, 1, report.Days[1].Parked)

	require.Equal(t, 2, report.TotalIn)
	require.Equal(t, 1, report.TotalOut)
	require.Equal(t, 1, report.TotalParked)
}

func TestStatsValidatesRange(t *testing.T) {
	svc, _ := newTestService(baseTime)

	_, err := svc.Stats(context.Background(), baseTime, baseTime)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Stats(context.Background(), time.Time{}, baseTime)
	require.ErrorIs(t, err, httpx.ErrValidation)
}
