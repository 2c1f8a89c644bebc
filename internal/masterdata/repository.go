package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warelog/warelog/internal/platform/httpx"
)

// Repository persists master data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

// mapWriteError converts unique-constraint violations into ErrDuplicate so the
// API reports them as client errors instead of opaque persistence failures.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", httpx.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", httpx.ErrNotFound, entity, id)
	}
	return err
}

// ---- products ----

func (r *Repository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO products (sku, name, description, unit, price, category, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		p.SKU, p.Name, p.Description, p.Unit, p.Price, p.Category).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, mapWriteError(err)
	}
	return p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, sku, name, description, unit, price, category, created_at, updated_at
FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Unit, &p.Price, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, notFound(err, "product", id)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context, filters ListFilters) ([]Product, error) {
	query := `SELECT id, sku, name, description, unit, price, category, created_at, updated_at FROM products WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + n + ` OR sku ILIKE $` + n + `)`
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Unit, &p.Price, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	set, args := patchClauses(map[string]any{
		"sku":         deref(patch.SKU),
		"name":        deref(patch.Name),
		"description": deref(patch.Description),
		"unit":        deref(patch.Unit),
		"price":       deref(patch.Price),
		"category":    deref(patch.Category),
	})
	if set == "" {
		return r.GetProduct(ctx, id)
	}
	args = append(args, id)
	tag, err := r.pool.Exec(ctx, `UPDATE products SET `+set+`, updated_at=NOW() WHERE id=$`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return Product{}, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return Product{}, fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	return r.GetProduct(ctx, id)
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	return nil
}

// ---- locations ----

func (r *Repository) CreateLocation(ctx context.Context, l Location) (Location, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO locations (code, name, capacity, created_at, updated_at)
VALUES ($1,$2,$3,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		l.Code, l.Name, l.Capacity).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Location{}, mapWriteError(err)
	}
	return l, nil
}

func (r *Repository) GetLocation(ctx context.Context, id int64) (Location, error) {
	var l Location
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, capacity, created_at, updated_at FROM locations WHERE id=$1`, id).
		Scan(&l.ID, &l.Code, &l.Name, &l.Capacity, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Location{}, notFound(err, "location", id)
	}
	return l, nil
}

func (r *Repository) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, capacity, created_at, updated_at FROM locations ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.Capacity, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *Repository) UpdateLocation(ctx context.Context, id int64, patch LocationPatch) (Location, error) {
	set, args := patchClauses(map[string]any{
		"code":     deref(patch.Code),
		"name":     deref(patch.Name),
		"capacity": deref(patch.Capacity),
	})
	if set == "" {
		return r.GetLocation(ctx, id)
	}
	args = append(args, id)
	tag, err := r.pool.Exec(ctx, `UPDATE locations SET `+set+`, updated_at=NOW() WHERE id=$`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return Location{}, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return Location{}, fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
	}
	return r.GetLocation(ctx, id)
}

func (r *Repository) DeleteLocation(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM locations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
	}
	return nil
}

// ---- suppliers and customers ----

func (r *Repository) CreateParty(ctx context.Context, table string, p Party) (Party, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO `+table+` (name, tax_code, address, phone, email, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		p.Name, p.TaxCode, p.Address, p.Phone, p.Email).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Party{}, mapWriteError(err)
	}
	return p, nil
}

func (r *Repository) GetParty(ctx context.Context, table string, id int64) (Party, error) {
	var p Party
	err := r.pool.QueryRow(ctx, `SELECT id, name, tax_code, address, phone, email, created_at, updated_at FROM `+table+` WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.TaxCode, &p.Address, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Party{}, notFound(err, table[:len(table)-1], id)
	}
	return p, nil
}

func (r *Repository) ListParties(ctx context.Context, table string, filters ListFilters) ([]Party, error) {
	query := `SELECT id, name, tax_code, address, phone, email, created_at, updated_at FROM ` + table + ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += ` AND name ILIKE $1`
	}
	query += ` ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var parties []Party
	for rows.Next() {
		var p Party
		if err := rows.Scan(&p.ID, &p.Name, &p.TaxCode, &p.Address, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

func (r *Repository) UpdateParty(ctx context.Context, table string, id int64, patch PartyPatch) (Party, error) {
	set, args := patchClauses(map[string]any{
		"name":     deref(patch.Name),
		"tax_code": deref(patch.TaxCode),
		"address":  deref(patch.Address),
		"phone":    deref(patch.Phone),
		"email":    deref(patch.Email),
	})
	if set == "" {
		return r.GetParty(ctx, table, id)
	}
	args = append(args, id)
	tag, err := r.pool.Exec(ctx, `UPDATE `+table+` SET `+set+`, updated_at=NOW() WHERE id=$`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return Party{}, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return Party{}, fmt.Errorf("%w: %s %d", httpx.ErrNotFound, table[:len(table)-1], id)
	}
	return r.GetParty(ctx, table, id)
}

func (r *Repository) DeleteParty(ctx context.Context, table string, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d", httpx.ErrNotFound, table[:len(table)-1], id)
	}
	return nil
}

// ---- vehicles ----

func (r *Repository) CreateVehicle(ctx context.Context, v Vehicle) (Vehicle, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO vehicles (plate, type, driver, driver_phone, owner, note, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		v.Plate, v.Type, v.Driver, v.DriverPhone, v.Owner, v.Note, v.Status).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return Vehicle{}, mapWriteError(err)
	}
	return v, nil
}

func (r *Repository) GetVehicle(ctx context.Context, id int64) (Vehicle, error) {
	var v Vehicle
	err := r.pool.QueryRow(ctx, `SELECT id, plate, type, driver, driver_phone, owner, note, status, created_at, updated_at
FROM vehicles WHERE id=$1`, id).
		Scan(&v.ID, &v.Plate, &v.Type, &v.Driver, &v.DriverPhone, &v.Owner, &v.Note, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return Vehicle{}, notFound(err, "vehicle", id)
	}
	return v, nil
}

func (r *Repository) ListVehicles(ctx context.Context, filters ListFilters) ([]Vehicle, error) {
	query := `SELECT id, plate, type, driver, driver_phone, owner, note, status, created_at, updated_at FROM vehicles WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += ` AND (plate ILIKE $1 OR driver ILIKE $1)`
	}
	query += ` ORDER BY plate ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vehicles []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Type, &v.Driver, &v.DriverPhone, &v.Owner, &v.Note, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *Repository) UpdateVehicle(ctx context.Context, id int64, patch VehiclePatch) (Vehicle, error) {
	set, args := patchClauses(map[string]any{
		"plate":        deref(patch.Plate),
		"type":         deref(patch.Type),
		"driver":       deref(patch.Driver),
		"driver_phone": deref(patch.DriverPhone),
		"owner":        deref(patch.Owner),
		"note":         deref(patch.Note),
		"status":       deref(patch.Status),
	})
	if set == "" {
		return r.GetVehicle(ctx, id)
	}
	args = append(args, id)
	tag, err := r.pool.Exec(ctx, `UPDATE vehicles SET `+set+`, updated_at=NOW() WHERE id=$`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return Vehicle{}, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return Vehicle{}, fmt.Errorf("%w: vehicle %d", httpx.ErrNotFound, id)
	}
	return r.GetVehicle(ctx, id)
}

func (r *Repository) DeleteVehicle(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: vehicle %d", httpx.ErrNotFound, id)
	}
	return nil
}

// ---- existence lookups ----

func (r *Repository) exists(ctx context.Context, table string, id int64) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id=$1)`, id).Scan(&found)
	return found, err
}

func (r *Repository) ProductExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "products", id)
}

func (r *Repository) LocationExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "locations", id)
}

func (r *Repository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "suppliers", id)
}

func (r *Repository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "customers", id)
}

func (r *Repository) PartyName(ctx context.Context, table string, id int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM `+table+` WHERE id=$1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", notFound(err, table[:len(table)-1], id)
	}
	return name, err
}

// ---- helpers ----

// patchClauses builds "col=$n" fragments for the non-nil patch values,
// preserving a stable column order for deterministic SQL.
func patchClauses(fields map[string]any) (string, []any) {
	order := []string{"sku", "code", "name", "description", "unit", "price", "category", "capacity",
		"tax_code", "address", "phone", "email", "plate", "type", "driver", "driver_phone", "owner", "note", "status"}
	var set string
	var args []any
	for _, col := range order {
		val, ok := fields[col]
		if !ok || val == nil {
			continue
		}
		args = append(args, val)
		if set != "" {
			set += ", "
		}
		set += col + "=$" + strconv.Itoa(len(args))
	}
	return set, args
}

// deref lifts a typed pointer into an untyped value, keeping nil as nil.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
