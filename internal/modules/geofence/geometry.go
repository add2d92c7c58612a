package geofence

import (
	"math"

	"mealmesh/internal/types"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the haversine great-circle distance in kilometres.
func DistanceKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// WithinRadius reports whether p lies within rKm of center.
func WithinRadius(p, center types.Point, rKm float64) bool {
	return DistanceKm(p, center) <= rKm
}

// PointInPolygon tests containment by even-odd ray casting against the outer
// ring. A point inside any hole ring counts as outside the area.
func PointInPolygon(p types.Point, b Boundary) bool {
	if len(b.Rings) == 0 {
		return false
	}
	if !pointInRing(p, b.Rings[0]) {
		return false
	}
	for _, hole := range b.Rings[1:] {
		if pointInRing(p, hole) {
			return false
		}
	}
	return true
}

// pointInRing casts a horizontal ray from p and counts edge crossings.
func pointInRing(p types.Point, ring []types.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if (pi.Lat > p.Lat) != (pj.Lat > p.Lat) &&
			p.Lng < (pj.Lng-pi.Lng)*(p.Lat-pi.Lat)/(pj.Lat-pi.Lat)+pi.Lng {
			inside = !inside
		}
	}
	return inside
}

// RepresentativePoint returns the centroid of the outer ring vertices, used
// only for nearest-area distance hints.
func RepresentativePoint(b Boundary) types.Point {
	if len(b.Rings) == 0 || len(b.Rings[0]) == 0 {
		return types.Point{}
	}
	ring := b.Rings[0]
	var lat, lng float64
	for _, p := range ring {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(ring))
	return types.Point{Lat: lat / n, Lng: lng / n}
}

// NearestServiceArea picks the ACTIVE area whose representative point is
// closest to p. It informs user messaging, never admission decisions.
func NearestServiceArea(p types.Point, areas []ServiceArea) (*ServiceArea, float64) {
	var nearest *ServiceArea
	best := math.MaxFloat64
	for i := range areas {
		if areas[i].Status != AreaActive {
			continue
		}
		d := DistanceKm(p, RepresentativePoint(areas[i].Boundary))
		if d < best {
			best = d
			nearest = &areas[i]
		}
	}
	if nearest == nil {
		return nil, 0
	}
	return nearest, best
}
