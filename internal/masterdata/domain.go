// Package masterdata owns the reference entities the warehouse core validates
// against: products, storage locations, suppliers, customers and vehicles.
// It is thin CRUD; the ledger and gate-log cores consume it through Lookup.
package masterdata

import "time"

// Product is a stock-keeping unit.
type Product struct {
	ID          int64     `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Unit        string    `json:"unit"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Location is a storage slot inside the warehouse.
type Location struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Capacity  float64   `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Party holds the shared shape of suppliers and customers.
type Party struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	TaxCode   string    `json:"tax_code"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier provides inbound stock.
type Supplier = Party

// Customer receives outbound stock.
type Customer = Party

// Vehicle is a truck registered at the facility gate.
type Vehicle struct {
	ID          int64     `json:"id"`
	Plate       string    `json:"plate"`
	Type        string    `json:"type"`
	Driver      string    `json:"driver"`
	DriverPhone string    `json:"driver_phone"`
	Owner       string    `json:"owner"`
	Note        string    `json:"note"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Patch structs carry partial updates: a nil field means "unchanged", a set
// pointer means "replace with this value".

// ProductPatch is a partial product update.
type ProductPatch struct {
	SKU         *string  `json:"sku,omitempty"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty"`
}

// LocationPatch is a partial location update.
type LocationPatch struct {
	Code     *string  `json:"code,omitempty"`
	Name     *string  `json:"name,omitempty"`
	Capacity *float64 `json:"capacity,omitempty" validate:"omitempty,gte=0"`
}

// PartyPatch is a partial supplier/customer update.
type PartyPatch struct {
	Name    *string `json:"name,omitempty"`
	TaxCode *string `json:"tax_code,omitempty"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
}

// VehiclePatch is a partial vehicle update.
type VehiclePatch struct {
	Plate       *string `json:"plate,omitempty"`
	Type        *string `json:"type,omitempty"`
	Driver      *string `json:"driver,omitempty"`
	DriverPhone *string `json:"driver_phone,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	Note        *string `json:"note,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ListFilters narrows list queries.
type ListFilters struct {
	Search   string
	Category string
}
