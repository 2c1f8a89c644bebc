package masterdata

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/warelog/warelog/internal/shared"
)

// Store is the persistence surface the service depends on.
type Store interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, filters ListFilters) ([]Product, error)
	UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	CreateLocation(ctx context.Context, l Location) (Location, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
	UpdateLocation(ctx context.Context, id int64, patch LocationPatch) (Location, error)
	DeleteLocation(ctx context.Context, id int64) error

	CreateParty(ctx context.Context, table string, p Party) (Party, error)
	GetParty(ctx context.Context, table string, id int64) (Party, error)
	ListParties(ctx context.Context, table string, filters ListFilters) ([]Party, error)
	UpdateParty(ctx context.Context, table string, id int64, patch PartyPatch) (Party, error)
	DeleteParty(ctx context.Context, table string, id int64) error

	CreateVehicle(ctx context.Context, v Vehicle) (Vehicle, error)
	GetVehicle(ctx context.Context, id int64) (Vehicle, error)
	ListVehicles(ctx context.Context, filters ListFilters) ([]Vehicle, error)
	UpdateVehicle(ctx context.Context, id int64, patch VehiclePatch) (Vehicle, error)
	DeleteVehicle(ctx context.Context, id int64) error
}

const (
	tableSuppliers = "suppliers"
	tableCustomers = "customers"
)

// Service validates and persists master data.
type Service struct {
	store    Store
	validate *validator.Validate
}

// NewService constructs Service.
func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// ---- products ----

func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p.SKU = strings.TrimSpace(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	if p.SKU == "" {
		return Product{}, shared.NewValidationError("sku", "is required")
	}
	if p.Name == "" {
		return Product{}, shared.NewValidationError("name", "is required")
	}
	if p.Price < 0 {
		return Product{}, shared.NewValidationError("price", "must not be negative")
	}
	return s.store.CreateProduct(ctx, p)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.NewValidationError("id", "must be positive")
	}
	return s.store.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, filters ListFilters) ([]Product, error) {
	return s.store.ListProducts(ctx, filters)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	if id <= 0 {
		return Product{}, shared.NewValidationError("id", "must be positive")
	}
	if err := s.validate.Struct(patch); err != nil {
		return Product{}, shared.NewValidationError("patch", err.Error())
	}
	if patch.SKU != nil && strings.TrimSpace(*patch.SKU) == "" {
		return Product{}, shared.NewValidationError("sku", "must not be blank")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Product{}, shared.NewValidationError("name", "must not be blank")
	}
	return s.store.UpdateProduct(ctx, id, patch)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.NewValidationError("id", "must be positive")
	}
	return s.store.DeleteProduct(ctx, id)
}

// ---- locations ----

func (s *Service) CreateLocation(ctx context.Context, l Location) (Location, error) {
	l.Code = strings.TrimSpace(l.Code)
	l.Name = strings.TrimSpace(l.Name)
	if l.Code == "" {
		return Location{}, shared.NewValidationError("code", "is required")
	}
	if l.Name == "" {
		return Location{}, shared.NewValidationError("name", "is required")
	}
	if l.Capacity < 0 {
		return Location{}, shared.NewValidationError("capacity", "must not be negative")
	}
	return s.store.CreateLocation(ctx, l)
}

func (s *Service) GetLocation(ctx context.Context, id int64) (Location, error) {
	if id <= 0 {
		return Location{}, shared.NewValidationError("id", "must be positive")
	}
	return s.store.GetLocation(ctx, id)
}

func (s *Service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.store.ListLocations(ctx)
}

func (s *Service) UpdateLocation(ctx context.Context, id int64, patch LocationPatch) (Location, error) {
	if id <= 0 {
		return Location{}, shared.NewValidationError("id", "must be positive")
	}
	if err := s.validate.Struct(patch); err != nil {
		return Location{}, shared.NewValidationError("patch", err.Error())
	}
	if patch.Code != nil && strings.TrimSpace(*patch.Code) == "" {
		return Location{}, shared.NewValidationError("code", "must not be blank")
	}
	return s.store.UpdateLocation(ctx, id, patch)
}

func (s *Service) DeleteLocation(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.NewValidationError("id", "must be positive")
	}
	return s.store.DeleteLocation(ctx, id)
}

// ---- suppliers ----

func (s *Service) CreateSupplier(ctx context.Context, p Party) (Party, error) {
	return s.createParty(ctx, tableSuppliers, p)
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (Party, error) {
	return s.getParty(ctx, tableSuppliers, id)
}

func (s *Service) ListSuppliers(ctx context.Context, filters ListFilters) ([]Party, error) {
	return s.store.ListParties(ctx, tableSuppliers, filters)
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, patch PartyPatch) (Party, error) {
	return s.updateParty(ctx, tableSuppliers, id, patch)
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	return s.deleteParty(ctx, tableSuppliers, id)
}

// ---- customers ----

func (s *Service) CreateCustomer(ctx context.Context, p Party) (Party, error) {
	return s.createParty(ctx, tableCustomers, p)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (Party, error) {
	return s.getParty(ctx, tableCustomers, id)
}

func (s *Service) ListCustomers(ctx context.Context, filters ListFilters) ([]Party, error) {
	return s.store.ListParties(ctx, tableCustomers, filters)
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, patch PartyPatch) (Party, error) {
	return s.updateParty(ctx, tableCustomers, id, patch)
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	return s.deleteParty(ctx, tableCustomers, id)
}

func (s *Service) createParty(ctx context.Context, table string, p Party) (Party, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Party{}, shared.NewValidationError("name", "is required")
	}
	if p.Email != "" {
		if err := s.validate.Var(p.Email, "email"); err != nil {
			return Party{}, shared.NewValidationError("email", "is not a valid address")
		}
	}
	return s.store.CreateParty(ctx, table, p)
}

func (s *Service) getParty(ctx context.Context, table string, id int64) (Party, error) {
	if id <= 0 {
		return Party{}, shared.NewValidationError("id", "must be positive")
	}
	return s.store.GetParty(ctx, table, id)
}

func (s *Service) updateParty(ctx context.Context, table string, id int64, patch PartyPatch) (Party, error) {
	if id <= 0 {
		return Party{}, shared.NewValidationError("id", "must be positive")
	}
	if err := s.validate.Struct(patch); err != nil {
		return Party{}, shared.NewValidationError("patch", err.Error())
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Party{}, shared.NewValidationError("name", "must not be blank")
	}
	return s.store.UpdateParty(ctx, table, id, patch)
}

func (s *Service) deleteParty(ctx context.Context, table string, id int64) error {
	if id <= 0 {
		return shared.NewValidationError("id", "must be positive")
	}
	return s.store.DeleteParty(ctx, table, id)
}

// ---- vehicles ----

func (s *Service) CreateVehicle(ctx context.Context, v Vehicle) (Vehicle, error) {
	v.Plate = strings.TrimSpace(strings.ToUpper(v.Plate))
	if v.Plate == "" {
		return Vehicle{}, shared.NewValidationError("plate", "is required")
	}
	if v.Status == "" {
		v.Status = "active"
	}
	return s.store.CreateVehicle(ctx, v)
}

func (s *Service) GetVehicle(ctx context.Context, id int64) (Vehicle, error) {
	if id <= 0 {
		return Vehicle{}, shared.NewValidationError("id", "must be positive")
	}
	return s.store.GetVehicle(ctx, id)
}

func (s *Service) ListVehicles(ctx context.Context, filters ListFilters) ([]Vehicle, error) {
	return s.store.ListVehicles(ctx, filters)
}

func (s *Service) UpdateVehicle(ctx context.Context, id int64, patch VehiclePatch) (Vehicle, error) {
	if id <= 0 {
		return Vehicle{}, shared.NewValidationError("id", "must be positive")
	}
	if patch.Plate != nil {
		plate := strings.TrimSpace(strings.ToUpper(*patch.Plate))
		if plate == "" {
			return Vehicle{}, shared.NewValidationError("plate", "must not be blank")
		}
		patch.Plate = &plate
	}
	return s.store.UpdateVehicle(ctx, id, patch)
}

func (s *Service) DeleteVehicle(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.NewValidationError("id", "must be positive")
	}
	return s.store.DeleteVehicle(ctx, id)
}
