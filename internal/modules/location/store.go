// README: Partner location store backed by Redis GEO and Postgres snapshots.
package location

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"mealmesh/internal/types"
)

const partnerGeoKey = "geo:partners"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

// Set persists the location if it is newer than the stored one. The seq
// predicate in the upsert makes the staleness check atomic.
func (s *Store) Set(ctx context.Context, loc PartnerLocation) error {
	tag, err := s.db.Exec(ctx, `
        INSERT INTO partner_locations (partner_id, latitude, longitude, seq, recorded_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (partner_id) DO UPDATE
        SET latitude = EXCLUDED.latitude,
            longitude = EXCLUDED.longitude,
            seq = EXCLUDED.seq,
            recorded_at = EXCLUDED.recorded_at
        WHERE partner_locations.seq < EXCLUDED.seq`,
		string(loc.PartnerID), loc.Position.Lat, loc.Position.Lng, loc.Seq, loc.RecordedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleUpdate
	}
	return s.redis.GeoAdd(ctx, partnerGeoKey, &redis.GeoLocation{
		Name:      string(loc.PartnerID),
		Longitude: loc.Position.Lng,
		Latitude:  loc.Position.Lat,
	}).Err()
}

func (s *Store) Get(ctx context.Context, partnerID types.ID) (*PartnerLocation, error) {
	var loc PartnerLocation
	var id string
	err := s.db.QueryRow(ctx, `
        SELECT partner_id, latitude, longitude, seq, recorded_at
        FROM partner_locations WHERE partner_id = $1`,
		string(partnerID)).Scan(&id, &loc.Position.Lat, &loc.Position.Lng, &loc.Seq, &loc.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	loc.PartnerID = types.ID(id)
	return &loc, nil
}

// PartnersNear returns partner ids within radiusKm of p, nearest first.
func (s *Store) PartnersNear(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, partnerGeoKey, &redis.GeoSearchQuery{
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
