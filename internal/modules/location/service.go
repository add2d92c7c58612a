// README: Partner location service handles high-frequency updates with staleness rejection.
package location

import (
	"context"
	"time"

	"mealmesh/internal/types"
)

// LocationStore is the persistence surface; *Store implements it.
type LocationStore interface {
	Set(ctx context.Context, loc PartnerLocation) error
	Get(ctx context.Context, partnerID types.ID) (*PartnerLocation, error)
	PartnersNear(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

type Service struct {
	store LocationStore
	now   func() time.Time
}

func NewService(store LocationStore) *Service {
	return &Service{store: store, now: time.Now}
}

type UpdateCommand struct {
	PartnerID types.ID
	Position  types.Point
	Seq       int64
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*PartnerLocation, error) {
	loc := PartnerLocation{
		PartnerID:  cmd.PartnerID,
		Position:   cmd.Position,
		Seq:        cmd.Seq,
		RecordedAt: s.now(),
	}
	if err := s.store.Set(ctx, loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *Service) Get(ctx context.Context, partnerID types.ID) (*PartnerLocation, error) {
	return s.store.Get(ctx, partnerID)
}

// PartnersNear returns partner ids within radiusKm of p, nearest first.
func (s *Service) PartnersNear(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	return s.store.PartnersNear(ctx, p, radiusKm)
}
