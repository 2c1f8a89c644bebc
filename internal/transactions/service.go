package transactions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/warelog/warelog/internal/masterdata"
	"github.com/warelog/warelog/internal/shared"
)

// RepositoryPort abstracts the repository for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	Get(ctx context.Context, kind Kind, id int64) (Header, error)
	List(ctx context.Context, filter ListFilter) ([]Header, error)
}

// AuditPort records movement postings.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheInvalidator drops cached stock listings after a posting commits.
type CacheInvalidator interface {
	InvalidateListCache(ctx context.Context)
}

// Service posts and reads warehouse movements.
type Service struct {
	repo     RepositoryPort
	lookup   masterdata.Lookup
	codes    *CodeGenerator
	audit    AuditPort
	stock    CacheInvalidator
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs Service. audit and stock may be nil.
func NewService(repo RepositoryPort, lookup masterdata.Lookup, codes *CodeGenerator, audit AuditPort, stockCache CacheInvalidator, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		lookup:   lookup,
		codes:    codes,
		audit:    audit,
		stock:    stockCache,
		validate: validator.New(),
		logger:   logger,
	}
}

// Create posts a movement. Validation is fail-fast: the request shape, the
// counterpart and every referenced product and location are checked before
// anything is written. The header, lines and ledger changes then commit
// atomically; an insufficient issue line aborts the whole document.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Header, error) {
	if !req.Kind.Valid() {
		return Header{}, shared.NewValidationError("kind", "must be receipt or issue")
	}
	if err := s.validate.Struct(req); err != nil {
		return Header{}, shared.NewValidationError("request", err.Error())
	}
	status := req.Status
	if status == "" {
		status = StatusCompleted
	}
	if !status.Valid() {
		return Header{}, shared.NewValidationError("status", "must be draft, pending or completed")
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return Header{}, err
	}

	var total float64
	for _, line := range req.Lines {
		total += line.Quantity * line.Price
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	header := Header{
		Code:      s.codes.Next(req.Kind),
		Kind:      req.Kind,
		PartyID:   req.PartyID,
		Date:      date,
		Total:     total,
		Note:      req.Note,
		Status:    status,
		CreatedBy: shared.ActorFromContext(ctx),
	}

	var headerID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		id, err := tx.InsertHeader(ctx, header)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, req.Kind, id, req.Lines); err != nil {
			return err
		}
		ledger := tx.Ledger()
		for _, line := range req.Lines {
			if req.Kind == KindReceipt {
				err = ledger.Increase(ctx, line.ProductID, line.LocationID, line.Quantity)
			} else {
				err = ledger.Decrease(ctx, line.ProductID, line.LocationID, line.Quantity)
			}
			if err != nil {
				return err
			}
		}
		headerID = id
		return nil
	})
	if err != nil {
		return Header{}, err
	}

	if s.stock != nil {
		s.stock.InvalidateListCache(ctx)
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  header.CreatedBy,
			Action:   fmt.Sprintf("transactions:%s", req.Kind),
			Entity:   string(req.Kind),
			EntityID: header.Code,
			Meta: map[string]any{
				"party_id": req.PartyID,
				"total":    total,
				"lines":    len(req.Lines),
			},
		}); err != nil {
			s.logger.WarnContext(ctx, "audit record failed", slog.String("code", header.Code), slog.String("error", err.Error()))
		}
	}

	return s.repo.Get(ctx, req.Kind, headerID)
}

func (s *Service) checkReferences(ctx context.Context, req CreateRequest) error {
	var partyOK bool
	var err error
	if req.Kind == KindReceipt {
		partyOK, err = s.lookup.SupplierExists(ctx, req.PartyID)
	} else {
		partyOK, err = s.lookup.CustomerExists(ctx, req.PartyID)
	}
	if err != nil {
		return err
	}
	if !partyOK {
		entity := "supplier"
		if req.Kind == KindIssue {
			entity = "customer"
		}
		return &shared.ReferenceNotFoundError{Entity: entity, ID: req.PartyID}
	}

	seenProducts := map[int64]bool{}
	seenLocations := map[int64]bool{}
	for _, line := range req.Lines {
		if !seenProducts[line.ProductID] {
			ok, err := s.lookup.ProductExists(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return &shared.ReferenceNotFoundError{Entity: "product", ID: line.ProductID}
			}
			seenProducts[line.ProductID] = true
		}
		if !seenLocations[line.LocationID] {
			ok, err := s.lookup.LocationExists(ctx, line.LocationID)
			if err != nil {
				return err
			}
			if !ok {
				return &shared.ReferenceNotFoundError{Entity: "location", ID: line.LocationID}
			}
			seenLocations[line.LocationID] = true
		}
	}
	return nil
}

// Get returns one movement with its lines.
func (s *Service) Get(ctx context.Context, kind Kind, id int64) (Header, error) {
	if !kind.Valid() {
		return Header{}, shared.NewValidationError("kind", "must be receipt or issue")
	}
	if id <= 0 {
		return Header{}, shared.NewValidationError("id", "must be positive")
	}
	return s.repo.Get(ctx, kind, id)
}

// List returns movement headers of one kind.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Header, error) {
	if !filter.Kind.Valid() {
		return nil, shared.NewValidationError("kind", "must be receipt or issue")
	}
	return s.repo.List(ctx, filter)
}
