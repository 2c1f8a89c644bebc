package gatelog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/warelog/warelog/internal/masterdata"
	"github.com/warelog/warelog/internal/platform/httpx"
	"github.com/warelog/warelog/internal/shared"
)

// DefaultAlertThresholdHours is used when a caller passes no threshold.
const DefaultAlertThresholdHours = 8

// RepositoryPort abstracts the repository for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	Get(ctx context.Context, id int64) (Log, error)
	List(ctx context.Context, filter ListFilter) ([]Log, error)
	OpenEntries(ctx context.Context) ([]Log, error)
	LogsBetween(ctx context.Context, from, to time.Time) ([]Log, error)
}

// AuditPort records gate events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service runs the gate state machine and its derived queries.
type Service struct {
	repo     RepositoryPort
	lookup   masterdata.Lookup
	audit    AuditPort
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs Service. audit may be nil.
func NewService(repo RepositoryPort, lookup masterdata.Lookup, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		lookup:   lookup,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Record applies one gate event. An "out" pairs with the vehicle's most
// recent unmatched "in" and fails with InvalidTransition when there is none.
// An "in" while the vehicle is already inside requires ConfirmReentry; the
// previous entry then stays unmatched so the anomaly remains visible.
func (s *Service) Record(ctx context.Context, req RecordRequest) (Log, error) {
	if !req.Direction.Valid() {
		return Log{}, shared.NewValidationError("direction", "must be in or out")
	}
	if err := s.validate.Struct(req); err != nil {
		return Log{}, shared.NewValidationError("request", err.Error())
	}

	vehicle, err := s.lookup.GetVehicle(ctx, req.VehicleID)
	if errors.Is(err, httpx.ErrNotFound) {
		return Log{}, &shared.ReferenceNotFoundError{Entity: "vehicle", ID: req.VehicleID}
	}
	if err != nil {
		return Log{}, err
	}

	at := req.At
	if at.IsZero() {
		at = s.now().UTC()
	}

	entry := Log{
		VehicleID:  req.VehicleID,
		Direction:  req.Direction,
		Purpose:    req.Purpose,
		Note:       req.Note,
		At:         at,
		RecordedBy: shared.ActorFromContext(ctx),
	}

	var entryID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		open, found, err := tx.OpenEntryForUpdate(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		switch req.Direction {
		case DirectionIn:
			if found && !req.ConfirmReentry {
				return shared.ErrReentryNotConfirmed
			}
		case DirectionOut:
			if !found {
				return &shared.InvalidTransitionError{VehicleID: req.VehicleID, Reason: "vehicle has no recorded entry"}
			}
		}
		id, err := tx.InsertLog(ctx, entry)
		if err != nil {
			return err
		}
		if req.Direction == DirectionOut {
			if err := tx.SetExitLog(ctx, open.ID, id); err != nil {
				return err
			}
		}
		entryID = id
		return nil
	})
	if err != nil {
		return Log{}, err
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  entry.RecordedBy,
			Action:   fmt.Sprintf("gatelog:%s", req.Direction),
			Entity:   "vehicle_log",
			EntityID: fmt.Sprintf("%d", entryID),
			Meta: map[string]any{
				"vehicle_id": req.VehicleID,
				"plate":      vehicle.Plate,
				"at":         at,
			},
		}); err != nil {
			s.logger.WarnContext(ctx, "audit record failed", slog.Int64("log_id", entryID), slog.String("error", err.Error()))
		}
	}

	return s.repo.Get(ctx, entryID)
}

// ParkedAlerts returns every vehicle inside for at least thresholdHours whole
// hours. A non-positive threshold falls back to the default.
func (s *Service) ParkedAlerts(ctx context.Context, thresholdHours int) ([]ParkedAlert, error) {
	if thresholdHours <= 0 {
		thresholdHours = DefaultAlertThresholdHours
	}
	open, err := s.repo.OpenEntries(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	var alerts []ParkedAlert
	for _, entry := range open {
		hours := DwellHours(entry.At, now)
		if hours >= thresholdHours {
			alerts = append(alerts, ParkedAlert{
				LogID:     entry.ID,
				VehicleID: entry.VehicleID,
				Plate:     entry.Plate,
				Driver:    entry.Driver,
				At:        entry.At,
				HoursIn:   hours,
			})
		}
	}
	return alerts, nil
}

// Stats reports per-day gate traffic for [from, to).
func (s *Service) Stats(ctx context.Context, from, to time.Time) (StatsReport, error) {
	if from.IsZero() || to.IsZero() {
		return StatsReport{}, shared.NewValidationError("range", "from and to are required")
	}
	if !to.After(from) {
		return StatsReport{}, shared.NewValidationError("range", "to must be after from")
	}
	logs, err := s.repo.LogsBetween(ctx, from, to)
	if err != nil {
		return StatsReport{}, err
	}
	return BuildStats(logs, from, to), nil
}

// List returns gate logs.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Log, error) {
	if filter.VehicleID < 0 {
		return nil, shared.NewValidationError("vehicle_id", "must not be negative")
	}
	return s.repo.List(ctx, filter)
}

// Get returns one gate log.
func (s *Service) Get(ctx context.Context, id int64) (Log, error) {
	if id <= 0 {
		return Log{}, shared.NewValidationError("id", "must be positive")
	}
	return s.repo.Get(ctx, id)
}
