// README: Service area and vendor location store backed by Postgres JSONB and Redis GEO.
package geofence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"mealmesh/internal/types"
)

const vendorGeoKey = "geo:vendors"

// Store persists service areas and vendor locations in Postgres and mirrors
// vendor coordinates into a Redis GEO set for proximity lookups.
type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

func (s *Store) ListActiveAreas(ctx context.Context) ([]ServiceArea, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, city, state, boundary, pincodes, status
        FROM service_areas
        WHERE status = 'ACTIVE'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAreas(rows)
}

func (s *Store) GetArea(ctx context.Context, id types.ID) (*ServiceArea, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, city, state, boundary, pincodes, status
        FROM service_areas
        WHERE id = $1`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	areas, err := scanAreas(rows)
	if err != nil {
		return nil, err
	}
	if len(areas) == 0 {
		return nil, ErrAreaNotFound
	}
	return &areas[0], nil
}

// UpsertArea writes a service area after boundary validation. Identity is
// immutable; boundary and pincodes are replaced wholesale.
func (s *Store) UpsertArea(ctx context.Context, a ServiceArea) error {
	if err := ValidateBoundary(a.Boundary); err != nil {
		return err
	}
	boundary, err := json.Marshal(a.Boundary)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO service_areas (id, name, city, state, boundary, pincodes, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE
        SET boundary = EXCLUDED.boundary,
            pincodes = EXCLUDED.pincodes,
            status = EXCLUDED.status`,
		string(a.ID), a.Name, a.City, a.State, boundary, a.Pincodes, string(a.Status))
	return err
}

func (s *Store) GetVendorLocation(ctx context.Context, vendorID types.ID) (*VendorLocation, error) {
	row := s.db.QueryRow(ctx, `
        SELECT vendor_id, latitude, longitude, service_radius_km
        FROM vendor_locations
        WHERE vendor_id = $1`, string(vendorID))

	var loc VendorLocation
	err := row.Scan(&loc.VendorID, &loc.Position.Lat, &loc.Position.Lng, &loc.ServiceRadiusKm)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVendorNotLocated
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// SetVendorLocation writes the vendor's coordinates and mirrors them into the
// Redis GEO index.
func (s *Store) SetVendorLocation(ctx context.Context, loc VendorLocation) error {
	if loc.ServiceRadiusKm < 1 || loc.ServiceRadiusKm > 100 {
		return ErrInvalidRadius
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO vendor_locations (vendor_id, latitude, longitude, service_radius_km)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (vendor_id) DO UPDATE
        SET latitude = EXCLUDED.latitude,
            longitude = EXCLUDED.longitude,
            service_radius_km = EXCLUDED.service_radius_km`,
		string(loc.VendorID), loc.Position.Lat, loc.Position.Lng, loc.ServiceRadiusKm)
	if err != nil {
		return err
	}
	return s.redis.GeoAdd(ctx, vendorGeoKey, &redis.GeoLocation{
		Name:      string(loc.VendorID),
		Longitude: loc.Position.Lng,
		Latitude:  loc.Position.Lat,
	}).Err()
}

// VendorsNear returns vendor ids within radiusKm of p, nearest first.
func (s *Store) VendorsNear(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, vendorGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

func (s *Store) VendorServesArea(ctx context.Context, vendorID, areaID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM vendor_service_areas
            WHERE vendor_id = $1 AND service_area_id = $2
        )`, string(vendorID), string(areaID))
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanAreas(rows pgx.Rows) ([]ServiceArea, error) {
	var areas []ServiceArea
	for rows.Next() {
		var a ServiceArea
		var boundary []byte
		if err := rows.Scan(&a.ID, &a.Name, &a.City, &a.State, &boundary, &a.Pincodes, &a.Status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(boundary, &a.Boundary); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}