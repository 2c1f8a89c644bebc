package masterdata

import "context"

// Lookup is the narrow read surface other modules use to validate references
// before writing movements or gate logs.
type Lookup interface {
	ProductExists(ctx context.Context, id int64) (bool, error)
	LocationExists(ctx context.Context, id int64) (bool, error)
	SupplierExists(ctx context.Context, id int64) (bool, error)
	CustomerExists(ctx context.Context, id int64) (bool, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetVehicle(ctx context.Context, id int64) (Vehicle, error)
}

var _ Lookup = (*Repository)(nil)
