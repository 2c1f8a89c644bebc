package masterdata

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warelog/warelog/internal/platform/httpx"
)

type fakeStore struct {
	products  map[int64]Product
	locations map[int64]Location
	parties   map[string]map[int64]Party
	vehicles  map[int64]Vehicle
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  map[int64]Product{},
		locations: map[int64]Location{},
		parties:   map[string]map[int64]Party{tableSuppliers: {}, tableCustomers: {}},
		vehicles:  map[int64]Vehicle{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateProduct(_ context.Context, p Product) (Product, error) {
	for _, existing := range f.products {
		if existing.SKU == p.SKU {
			return Product{}, fmt.Errorf("%w: products_sku_key", httpx.ErrDuplicate)
		}
	}
	p.ID = f.id()
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id int64) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeStore) ListProducts(_ context.Context, _ ListFilters) ([]Product, error) {
	var out []Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, id int64, patch ProductPatch) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Unit != nil {
		p.Unit = *patch.Unit
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	f.products[id] = p
	return p, nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) CreateLocation(_ context.Context, l Location) (Location, error) {
	l.ID = f.id()
	f.locations[l.ID] = l
	return l, nil
}

func (f *fakeStore) GetLocation(_ context.Context, id int64) (Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return Location{}, fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
	}
	return l, nil
}

func (f *fakeStore) ListLocations(_ context.Context) ([]Location, error) {
	var out []Location
	for _, l := range f.locations {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeStore) UpdateLocation(_ context.Context, id int64, patch LocationPatch) (Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return Location{}, fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
	}
	if patch.Code != nil {
		l.Code = *patch.Code
	}
	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Capacity != nil {
		l.Capacity = *patch.Capacity
	}
	f.locations[id] = l
	return l, nil
}

func (f *fakeStore) DeleteLocation(_ context.Context, id int64) error {
	if _, ok := f.locations[id]; !ok {
		return fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
	}
	delete(f.locations, id)
	return nil
}

func (f *fakeStore) CreateParty(_ context.Context, table string, p Party) (Party, error) {
	p.ID = f.id()
	f.parties[table][p.ID] = p
	return p, nil
}

func (f *fakeStore) GetParty(_ context.Context, table string, id int64) (Party, error) {
	p, ok := f.parties[table][id]
	if !ok {
		return Party{}, fmt.Errorf("%w: party %d", httpx.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeStore) ListParties(_ context.Context, table string, _ ListFilters) ([]Party, error) {
	var out []Party
	for _, p := range f.parties[table] {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdateParty(_ context.Context, table string, id int64, patch PartyPatch) (Party, error) {
	p, ok := f.parties[table][id]
	if !ok {
		return Party{}, fmt.Errorf("%w: party %d", httpx.ErrNotFound, id)
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.TaxCode != nil {
		p.TaxCode = *patch.TaxCode
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	f.parties[table][id] = p
	return p, nil
}

func (f *fakeStore) DeleteParty(_ context.Context, table string, id int64) error {
	if _, ok := f.parties[table][id]; !ok {
		return fmt.Errorf("%w: party %d", httpx.ErrNotFound, id)
	}
	delete(f.parties[table], id)
	return nil
}

func (f *fakeStore) CreateVehicle(_ context.Context, v Vehicle) (Vehicle, error) {
	v.ID = f.id()
	f.vehicles[v.ID] = v
	return v, nil
}

func (f *fakeStore) GetVehicle(_ context.Context, id int64) (Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return Vehicle{}, fmt.Errorf("%w: vehicle %d", httpx.ErrNotFound, id)
	}
	return v, nil
}

func (f *fakeStore) ListVehicles(_ context.Context, _ ListFilters) ([]Vehicle, error) {
	var out []Vehicle
	for _, v := range f.vehicles {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeStore) UpdateVehicle(_ context.Context, id int64, patch VehiclePatch) (Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return Vehicle{}, fmt.Errorf("%w: vehicle %d", httpx.ErrNotFound, id)
	}
	if patch.Plate != nil {
		v.Plate = *patch.Plate
	}
	if patch.Type != nil {
		v.Type = *patch.Type
	}
	if patch.Driver != nil {
		v.Driver = *patch.Driver
	}
	if patch.DriverPhone != nil {
		v.DriverPhone = *patch.DriverPhone
	}
	if patch.Owner != nil {
		v.Owner = *patch.Owner
	}
	if patch.Note != nil {
		v.Note = *patch.Note
	}
	if patch.Status != nil {
		v.Status = *patch.Status
	}
	f.vehicles[id] = v
	return v, nil
}

func (f *fakeStore) DeleteVehicle(_ context.Context, id int64) error {
	if _, ok := f.vehicles[id]; !ok {
		return fmt.Errorf("%w: vehicle %d", httpx.ErrNotFound, id)
	}
	delete(f.vehicles, id)
	return nil
}

var _ Store = (*fakeStore)(nil)

func strPtr(s string) *string    { return &s }
func f64Ptr(v float64) *float64 { return &v }

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.CreateProduct(context.Background(), Product{Name: "Pallet Wrap"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateProduct(context.Background(), Product{SKU: "PW-01"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateProduct(context.Background(), Product{SKU: "PW-01", Name: "Pallet Wrap", Price: -5})
	require.ErrorIs(t, err, httpx.ErrValidation)

	created, err := svc.CreateProduct(context.Background(), Product{SKU: " PW-01 ", Name: "Pallet Wrap", Price: 12.5, Unit: "roll"})
	require.NoError(t, err)
	require.Equal(t, "PW-01", created.SKU)
	require.NotZero(t, created.ID)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.CreateProduct(context.Background(), Product{SKU: "PW-01", Name: "Pallet Wrap"})
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), Product{SKU: "PW-01", Name: "Another Wrap"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateProductPartialPatch(t *testing.T) {
	svc := NewService(newFakeStore())

	created, err := svc.CreateProduct(context.Background(), Product{SKU: "PW-01", Name: "Pallet Wrap", Price: 12.5, Category: "packing"})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(context.Background(), created.ID, ProductPatch{Price: f64Ptr(14)})
	require.NoError(t, err)
	require.Equal(t, 14.0, updated.Price)
	require.Equal(t, "Pallet Wrap", updated.Name)
	require.Equal(t, "packing", updated.Category)

	_, err = svc.UpdateProduct(context.Background(), created.ID, ProductPatch{Price: f64Ptr(-1)})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.UpdateProduct(context.Background(), created.ID, ProductPatch{Name: strPtr("  ")})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateProductNotFound(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.UpdateProduct(context.Background(), 99, ProductPatch{Name: strPtr("Ghost")})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestPartyEmailValidation(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.CreateSupplier(context.Background(), Party{Name: "Acme Logistics", Email: "not-an-email"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	created, err := svc.CreateSupplier(context.Background(), Party{Name: "Acme Logistics", Email: "ops@acme.test"})
	require.NoError(t, err)

	_, err = svc.UpdateSupplier(context.Background(), created.ID, PartyPatch{Email: strPtr("still-bad")})
	require.ErrorIs(t, err, httpx.ErrValidation)

	updated, err := svc.UpdateSupplier(context.Background(), created.ID, PartyPatch{Phone: strPtr("0123456789")})
	require.NoError(t, err)
	require.Equal(t, "0123456789", updated.Phone)
	require.Equal(t, "ops@acme.test", updated.Email)
}

func TestVehiclePlateNormalisation(t *testing.T) {
	svc := NewService(newFakeStore())

	created, err := svc.CreateVehicle(context.Background(), Vehicle{Plate: " 51c-12345 ", Driver: "Nguyen Van A"})
	require.NoError(t, err)
	require.Equal(t, "51C-12345", created.Plate)
	require.Equal(t, "active", created.Status)

	updated, err := svc.UpdateVehicle(context.Background(), created.ID, VehiclePatch{Plate: strPtr("29h-00001")})
	require.NoError(t, err)
	require.Equal(t, "29H-00001", updated.Plate)
}

func TestDeleteMissingEntityReturnsNotFound(t *testing.T) {
	svc := NewService(newFakeStore())

	require.ErrorIs(t, svc.DeleteLocation(context.Background(), 7), httpx.ErrNotFound)
	require.ErrorIs(t, svc.DeleteCustomer(context.Background(), 7), httpx.ErrNotFound)
	require.ErrorIs(t, svc.DeleteVehicle(context.Background(), 7), httpx.ErrNotFound)
}
