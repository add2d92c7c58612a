// README: Read-only lookups against platform-owned tables.
package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mealmesh/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetUser(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, name, role FROM users WHERE id = $1`, string(id))
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetVendor(ctx context.Context, id types.ID) (*Vendor, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, name, status, delivery_fee, currency FROM vendors WHERE id = $1`, string(id))
	var v Vendor
	err := row.Scan(&v.ID, &v.Name, &v.Status, &v.DeliveryFee.Amount, &v.DeliveryFee.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) GetAddress(ctx context.Context, id types.ID) (*Address, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, user_id, line, pincode, latitude, longitude
        FROM addresses WHERE id = $1`, string(id))
	var a Address
	var lat, lng *float64
	err := row.Scan(&a.ID, &a.UserID, &a.Line, &a.Pincode, &lat, &lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		a.Coordinates = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &a, nil
}

// GetProducts resolves a batch of product ids; a missing id fails the whole
// lookup with ErrProductNotFound.
func (s *Store) GetProducts(ctx context.Context, ids []types.ID) (map[types.ID]Product, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `
        SELECT id, vendor_id, name, status, price, currency
        FROM products WHERE id = ANY($1)`, raw)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[types.ID]Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.VendorID, &p.Name, &p.Status, &p.Price.Amount, &p.Price.Currency); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, ErrProductNotFound
		}
	}
	return products, nil
}