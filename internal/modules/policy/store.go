// README: Fulfillment policy store with lazy defaults and a Redis read-through cache.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"mealmesh/internal/types"
)

const (
	cacheKeyPrefix = "policy:vendor:%s"
	cacheTTL       = 5 * time.Minute
)

// Store lazily materializes per-vendor policies in Postgres and keeps a
// read-through Redis hash cache in front of them.
type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

// Get returns the vendor's policy, inserting the defaults on first read.
func (s *Store) Get(ctx context.Context, vendorID types.ID) (Policy, error) {
	if p, ok := s.cached(ctx, vendorID); ok {
		return p, nil
	}

	def := defaultPolicy(string(vendorID))
	_, err := s.db.Exec(ctx, `
        INSERT INTO vendor_fulfillment_policies (vendor_id, eat_in_enabled, pickup_enabled, delivery_enabled)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (vendor_id) DO NOTHING`,
		string(vendorID), def.EatInEnabled, def.PickupEnabled, def.DeliveryEnabled)
	if err != nil {
		return Policy{}, err
	}

	var p Policy
	row := s.db.QueryRow(ctx, `
        SELECT vendor_id, eat_in_enabled, pickup_enabled, delivery_enabled
        FROM vendor_fulfillment_policies
        WHERE vendor_id = $1`, string(vendorID))
	if err := row.Scan(&p.VendorID, &p.EatInEnabled, &p.PickupEnabled, &p.DeliveryEnabled); err != nil {
		return Policy{}, err
	}

	s.cache(ctx, p)
	return p, nil
}

// SetMethod flips one flag and drops the cache entry.
func (s *Store) SetMethod(ctx context.Context, vendorID types.ID, m Method, enabled bool) error {
	// $5 only applies on conflict; the inserted row must already carry the
	// requested flag.
	ins := defaultPolicy(string(vendorID))
	var column string
	switch m {
	case MethodEatIn:
		column = "eat_in_enabled"
		ins.EatInEnabled = enabled
	case MethodPickup:
		column = "pickup_enabled"
		ins.PickupEnabled = enabled
	case MethodDelivery:
		column = "delivery_enabled"
		ins.DeliveryEnabled = enabled
	default:
		return ErrUnknownMethod
	}

	_, err := s.db.Exec(ctx, fmt.Sprintf(`
        INSERT INTO vendor_fulfillment_policies (vendor_id, eat_in_enabled, pickup_enabled, delivery_enabled)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (vendor_id) DO UPDATE SET %s = $5`, column),
		string(vendorID), ins.EatInEnabled, ins.PickupEnabled, ins.DeliveryEnabled, enabled)
	if err != nil {
		return err
	}
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, cacheKey(vendorID)).Err()
}

func (s *Store) cached(ctx context.Context, vendorID types.ID) (Policy, bool) {
	if s.redis == nil {
		return Policy{}, false
	}
	vals, err := s.redis.HGetAll(ctx, cacheKey(vendorID)).Result()
	if err != nil || len(vals) == 0 {
		return Policy{}, false
	}
	return Policy{
		VendorID:        string(vendorID),
		EatInEnabled:    vals["eat_in"] == "1",
		PickupEnabled:   vals["pickup"] == "1",
		DeliveryEnabled: vals["delivery"] == "1",
	}, true
}

func (s *Store) cache(ctx context.Context, p Policy) {
	if s.redis == nil {
		return
	}
	key := cacheKey(types.ID(p.VendorID))
	pipe := s.redis.Pipeline()
	pipe.HSet(ctx, key,
		"eat_in", boolFlag(p.EatInEnabled),
		"pickup", boolFlag(p.PickupEnabled),
		"delivery", boolFlag(p.DeliveryEnabled))
	pipe.Expire(ctx, key, cacheTTL)
	// Cache failures are invisible to callers; the next read hits Postgres.
	_, _ = pipe.Exec(ctx)
}

func cacheKey(vendorID types.ID) string {
	return fmt.Sprintf(cacheKeyPrefix, string(vendorID))
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}