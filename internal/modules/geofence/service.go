// README: Geofence service; service-area resolution and vendor reach checks.
package geofence

import (
	"context"
	"errors"
	"fmt"

	"mealmesh/internal/types"
)

var ErrVendorDoesNotServeLocation = errors.New("vendor does not serve this location")

// NotServiceableError reports a point outside every active service area,
// with the nearest area as an actionable hint.
type NotServiceableError struct {
	NearestArea string
	DistanceKm  float64
}

func (e *NotServiceableError) Error() string {
	if e.NearestArea == "" {
		return "address is not in a serviceable area"
	}
	return fmt.Sprintf("address is not in a serviceable area; nearest is %s (%.1f km away)", e.NearestArea, e.DistanceKm)
}

// OutOfRangeError reports a deliverable area that is beyond the vendor's
// service radius.
type OutOfRangeError struct {
	DistanceKm float64
	RadiusKm   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("delivery point is %.1f km away, vendor delivers within %.1f km", e.DistanceKm, e.RadiusKm)
}

// AreaStore is the persistence surface the evaluator needs.
type AreaStore interface {
	ListActiveAreas(ctx context.Context) ([]ServiceArea, error)
	GetVendorLocation(ctx context.Context, vendorID types.ID) (*VendorLocation, error)
	VendorServesArea(ctx context.Context, vendorID, areaID types.ID) (bool, error)
}

type Service struct {
	store AreaStore
}

func NewService(store AreaStore) *Service {
	return &Service{store: store}
}

// LocateServiceArea finds the first active area whose polygon contains p.
// When none contains it, the error carries the nearest-area hint.
func (s *Service) LocateServiceArea(ctx context.Context, p types.Point) (*ServiceArea, error) {
	areas, err := s.store.ListActiveAreas(ctx)
	if err != nil {
		return nil, err
	}
	for i := range areas {
		if PointInPolygon(p, areas[i].Boundary) {
			return &areas[i], nil
		}
	}
	nearest, dist := NearestServiceArea(p, areas)
	if nearest == nil {
		return nil, &NotServiceableError{}
	}
	return nil, &NotServiceableError{NearestArea: nearest.Name, DistanceKm: dist}
}

// CheckVendorDelivery confirms the vendor serves the resolved area and that
// p falls within the vendor's delivery radius.
func (s *Service) CheckVendorDelivery(ctx context.Context, vendorID types.ID, areaID types.ID, p types.Point) error {
	serves, err := s.store.VendorServesArea(ctx, vendorID, areaID)
	if err != nil {
		return err
	}
	if !serves {
		return ErrVendorDoesNotServeLocation
	}
	loc, err := s.store.GetVendorLocation(ctx, vendorID)
	if errors.Is(err, ErrVendorNotLocated) {
		// No registered kitchen coordinates; area membership already passed,
		// so the radius check is skipped rather than blocking the order.
		return nil
	}
	if err != nil {
		return err
	}
	d := DistanceKm(p, loc.Position)
	if d > loc.ServiceRadiusKm {
		return &OutOfRangeError{DistanceKm: d, RadiusKm: loc.ServiceRadiusKm}
	}
	return nil
}