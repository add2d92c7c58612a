// Package geofence evaluates service-area membership: polygon containment,
// great-circle distance, and vendor delivery radius.
package geofence

import (
	"encoding/json"
	"errors"

	"mealmesh/internal/types"
)

var (
	ErrInvalidBoundary  = errors.New("invalid boundary geometry")
	ErrAreaNotFound     = errors.New("service area not found")
	ErrInvalidRadius    = errors.New("service radius must be between 1 and 100 km")
	ErrVendorNotLocated = errors.New("vendor has no registered location")
)

type AreaStatus string

const (
	AreaActive   AreaStatus = "ACTIVE"
	AreaInactive AreaStatus = "INACTIVE"
)

// Boundary is a polygon with an outer ring and optional hole rings.
// On the wire it is GeoJSON-shaped: {"type":"Polygon","coordinates":[[[lng,lat],...],...]}.
type Boundary struct {
	Type  string
	Rings [][]types.Point
}

type boundaryJSON struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

func (b Boundary) MarshalJSON() ([]byte, error) {
	out := boundaryJSON{Type: b.Type, Coordinates: make([][][2]float64, len(b.Rings))}
	for i, ring := range b.Rings {
		out.Coordinates[i] = make([][2]float64, len(ring))
		for j, p := range ring {
			out.Coordinates[i][j] = [2]float64{p.Lng, p.Lat}
		}
	}
	return json.Marshal(out)
}

func (b *Boundary) UnmarshalJSON(data []byte) error {
	var in boundaryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	b.Type = in.Type
	b.Rings = make([][]types.Point, len(in.Coordinates))
	for i, ring := range in.Coordinates {
		b.Rings[i] = make([]types.Point, len(ring))
		for j, c := range ring {
			b.Rings[i][j] = types.Point{Lng: c[0], Lat: c[1]}
		}
	}
	return nil
}

// ServiceArea is a named deliverable territory.
type ServiceArea struct {
	ID       types.ID
	Name     string
	City     string
	State    string
	Boundary Boundary
	Pincodes []string
	Status   AreaStatus
}

// VendorLocation complements polygon membership with a radius check from the
// vendor's kitchen.
type VendorLocation struct {
	VendorID        types.ID
	Position        types.Point
	ServiceRadiusKm float64
}

// ValidateBoundary rejects malformed polygon payloads before they reach the
// store or the evaluator.
func ValidateBoundary(b Boundary) error {
	if b.Type != "Polygon" {
		return ErrInvalidBoundary
	}
	if len(b.Rings) == 0 {
		return ErrInvalidBoundary
	}
	for _, ring := range b.Rings {
		if len(ring) < 4 {
			return ErrInvalidBoundary
		}
		for _, p := range ring {
			if p.Lng < -180 || p.Lng > 180 || p.Lat < -90 || p.Lat > 90 {
				return ErrInvalidBoundary
			}
		}
	}
	return nil
}
