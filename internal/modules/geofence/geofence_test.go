package geofence

import (
	"context"
	"errors"
	"math"
	"testing"

	"mealmesh/internal/types"
)

// A 1x1 degree square around the origin, with a small hole in the middle.
func squareWithHole() Boundary {
	return Boundary{
		Type: "Polygon",
		Rings: [][]types.Point{
			{
				{Lat: 0, Lng: 0},
				{Lat: 0, Lng: 1},
				{Lat: 1, Lng: 1},
				{Lat: 1, Lng: 0},
				{Lat: 0, Lng: 0},
			},
			{
				{Lat: 0.4, Lng: 0.4},
				{Lat: 0.4, Lng: 0.6},
				{Lat: 0.6, Lng: 0.6},
				{Lat: 0.6, Lng: 0.4},
				{Lat: 0.4, Lng: 0.4},
			},
		},
	}
}

func TestPointInPolygon(t *testing.T) {
	b := squareWithHole()
	cases := []struct {
		name string
		p    types.Point
		want bool
	}{
		{"inside outer ring", types.Point{Lat: 0.2, Lng: 0.2}, true},
		{"outside outer ring", types.Point{Lat: 2, Lng: 2}, false},
		{"strictly inside hole", types.Point{Lat: 0.5, Lng: 0.5}, false},
		{"between hole and outer", types.Point{Lat: 0.3, Lng: 0.5}, true},
		{"negative quadrant", types.Point{Lat: -0.1, Lng: 0.5}, false},
	}
	for _, tc := range cases {
		if got := PointInPolygon(tc.p, b); got != tc.want {
			t.Errorf("%s: PointInPolygon = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// Containment must not depend on which vertex the ring starts at.
func TestPointInPolygonRingRotationInvariance(t *testing.T) {
	ring := []types.Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 1},
		{Lat: 1, Lng: 0},
	}
	p := types.Point{Lat: 0.25, Lng: 0.75}
	for shift := 0; shift < len(ring); shift++ {
		rotated := append(append([]types.Point{}, ring[shift:]...), ring[:shift]...)
		rotated = append(rotated, rotated[0])
		b := Boundary{Type: "Polygon", Rings: [][]types.Point{rotated}}
		if !PointInPolygon(p, b) {
			t.Errorf("rotation %d: point unexpectedly outside", shift)
		}
	}
}

func TestDistanceKm(t *testing.T) {
	// Connaught Place to India Gate, New Delhi: roughly 2.5 km.
	a := types.Point{Lat: 28.6315, Lng: 77.2167}
	b := types.Point{Lat: 28.6129, Lng: 77.2295}
	d := DistanceKm(a, b)
	if d < 2.0 || d > 3.0 {
		t.Errorf("DistanceKm = %.3f, want ~2.5", d)
	}
	if DistanceKm(a, a) != 0 {
		t.Errorf("distance to self = %v, want 0", DistanceKm(a, a))
	}
	if math.Abs(DistanceKm(a, b)-DistanceKm(b, a)) > 1e-9 {
		t.Error("distance is not symmetric")
	}
}

func TestWithinRadius(t *testing.T) {
	center := types.Point{Lat: 28.6315, Lng: 77.2167}
	near := types.Point{Lat: 28.6129, Lng: 77.2295}
	if !WithinRadius(near, center, 5) {
		t.Error("expected point within 5 km")
	}
	if WithinRadius(near, center, 1) {
		t.Error("expected point outside 1 km")
	}
}

func TestValidateBoundary(t *testing.T) {
	valid := squareWithHole()
	if err := ValidateBoundary(valid); err != nil {
		t.Fatalf("valid boundary rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Boundary)
	}{
		{"wrong type", func(b *Boundary) { b.Type = "MultiPolygon" }},
		{"no rings", func(b *Boundary) { b.Rings = nil }},
		{"short ring", func(b *Boundary) { b.Rings[1] = b.Rings[1][:3] }},
		{"longitude out of range", func(b *Boundary) { b.Rings[0][1].Lng = 181 }},
		{"latitude out of range", func(b *Boundary) { b.Rings[0][1].Lat = -91 }},
	}
	for _, tc := range cases {
		b := squareWithHole()
		tc.mutate(&b)
		if err := ValidateBoundary(b); err != ErrInvalidBoundary {
			t.Errorf("%s: err = %v, want ErrInvalidBoundary", tc.name, err)
		}
	}
}

func TestNearestServiceArea(t *testing.T) {
	far := ServiceArea{ID: "a-far", Name: "Far", Status: AreaActive, Boundary: shiftedSquare(10)}
	near := ServiceArea{ID: "a-close", Name: "Close", Status: AreaActive, Boundary: shiftedSquare(2)}
	inactive := ServiceArea{ID: "a-off", Name: "Off", Status: AreaInactive, Boundary: shiftedSquare(1)}

	nearest, dist := NearestServiceArea(types.Point{Lat: 0, Lng: 0}, []ServiceArea{far, inactive, near})
	if nearest == nil || nearest.ID != "a-close" {
		t.Fatalf("nearest = %+v, want a-close", nearest)
	}
	if dist <= 0 {
		t.Errorf("distance = %v, want > 0", dist)
	}

	if got, _ := NearestServiceArea(types.Point{}, []ServiceArea{inactive}); got != nil {
		t.Errorf("inactive-only input returned %+v, want nil", got)
	}
}

func shiftedSquare(offsetLat float64) Boundary {
	return Boundary{
		Type: "Polygon",
		Rings: [][]types.Point{{
			{Lat: offsetLat, Lng: 0},
			{Lat: offsetLat, Lng: 1},
			{Lat: offsetLat + 1, Lng: 1},
			{Lat: offsetLat + 1, Lng: 0},
			{Lat: offsetLat, Lng: 0},
		}},
	}
}

// stubAreaStore is a test double for AreaStore.
type stubAreaStore struct {
	areas  []ServiceArea
	loc    *VendorLocation
	serves bool
}

func (s *stubAreaStore) ListActiveAreas(context.Context) ([]ServiceArea, error) { return s.areas, nil }
func (s *stubAreaStore) GetVendorLocation(context.Context, types.ID) (*VendorLocation, error) {
	if s.loc == nil {
		return nil, ErrVendorNotLocated
	}
	return s.loc, nil
}
func (s *stubAreaStore) VendorServesArea(context.Context, types.ID, types.ID) (bool, error) {
	return s.serves, nil
}

func TestLocateServiceArea(t *testing.T) {
	area := ServiceArea{ID: "blr-south", Name: "South Bangalore", Status: AreaActive, Boundary: squareWithHole()}
	svc := NewService(&stubAreaStore{areas: []ServiceArea{area}})

	got, err := svc.LocateServiceArea(context.Background(), types.Point{Lat: 0.2, Lng: 0.2})
	if err != nil {
		t.Fatalf("LocateServiceArea: %v", err)
	}
	if got.ID != "blr-south" {
		t.Errorf("area = %s, want blr-south", got.ID)
	}

	_, err = svc.LocateServiceArea(context.Background(), types.Point{Lat: 5, Lng: 5})
	var nse *NotServiceableError
	if !errors.As(err, &nse) {
		t.Fatalf("err = %v, want NotServiceableError", err)
	}
	if nse.NearestArea != "South Bangalore" {
		t.Errorf("nearest hint = %q, want South Bangalore", nse.NearestArea)
	}
}

func TestCheckVendorDelivery(t *testing.T) {
	loc := &VendorLocation{
		VendorID:        "v1",
		Position:        types.Point{Lat: 28.6315, Lng: 77.2167},
		ServiceRadiusKm: 5,
	}
	ctx := context.Background()
	nearby := types.Point{Lat: 28.6129, Lng: 77.2295}

	svc := NewService(&stubAreaStore{loc: loc, serves: true})
	if err := svc.CheckVendorDelivery(ctx, "v1", "area1", nearby); err != nil {
		t.Errorf("expected in-range delivery, got %v", err)
	}

	svc = NewService(&stubAreaStore{loc: loc, serves: false})
	if err := svc.CheckVendorDelivery(ctx, "v1", "area1", nearby); err != ErrVendorDoesNotServeLocation {
		t.Errorf("err = %v, want ErrVendorDoesNotServeLocation", err)
	}

	farAway := types.Point{Lat: 28.75, Lng: 77.5}
	svc = NewService(&stubAreaStore{loc: loc, serves: true})
	err := svc.CheckVendorDelivery(ctx, "v1", "area1", farAway)
	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("err = %v, want OutOfRangeError", err)
	}
	if oor.RadiusKm != 5 || oor.DistanceKm <= 5 {
		t.Errorf("unexpected range payload: %+v", oor)
	}
}

// A vendor without registered coordinates cannot be radius-checked; area
// membership alone decides, even for points any radius would reject.
func TestCheckVendorDeliverySkipsRadiusWhenUnlocated(t *testing.T) {
	ctx := context.Background()
	farAway := types.Point{Lat: 28.75, Lng: 77.5}

	svc := NewService(&stubAreaStore{loc: nil, serves: true})
	if err := svc.CheckVendorDelivery(ctx, "v1", "area1", farAway); err != nil {
		t.Errorf("unlocated vendor: err = %v, want nil", err)
	}

	svc = NewService(&stubAreaStore{loc: nil, serves: false})
	if err := svc.CheckVendorDelivery(ctx, "v1", "area1", farAway); err != ErrVendorDoesNotServeLocation {
		t.Errorf("err = %v, want ErrVendorDoesNotServeLocation", err)
	}
}
