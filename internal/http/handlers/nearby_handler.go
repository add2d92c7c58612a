// README: Proximity lookup handlers over the Redis GEO indexes.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mealmesh/internal/http/middleware"
	"mealmesh/internal/types"
)

const defaultNearbyVendorRadiusKm = 10.0

// vendorFinder and partnerFinder expose the GEO searches the nearby surface
// needs; *geofence.Store and *location.Service implement them.
type vendorFinder interface {
	VendorsNear(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

type partnerFinder interface {
	PartnersNear(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

type NearbyHandler struct {
	vendors  vendorFinder
	partners partnerFinder
}

func NewNearbyHandler(vendors vendorFinder, partners partnerFinder) *NearbyHandler {
	return &NearbyHandler{vendors: vendors, partners: partners}
}

// Vendors lists vendor ids within radius_km of the given point, nearest first.
func (h *NearbyHandler) Vendors(c *gin.Context) {
	p, radius, ok := nearbyQuery(c, defaultNearbyVendorRadiusKm)
	if !ok {
		return
	}
	ids, err := h.vendors.VendorsNear(c.Request.Context(), p, radius)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor_ids": ids, "radius_km": radius})
}

// Partners lists delivery partner ids near a point. Restricted to vendors and
// admins; partner positions are operational data, not customer-facing.
func (h *NearbyHandler) Partners(c *gin.Context) {
	role := middleware.CallerRole(c)
	if role != types.RoleVendor && role != types.RoleAdmin {
		writeError(c, http.StatusForbidden, "vendors and admins only")
		return
	}
	p, radius, ok := nearbyQuery(c, 0)
	if !ok {
		return
	}
	ids, err := h.partners.PartnersNear(c.Request.Context(), p, radius)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partner_ids": ids})
}

func nearbyQuery(c *gin.Context, defaultRadiusKm float64) (types.Point, float64, bool) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		writeError(c, http.StatusBadRequest, "lat and lng query params required")
		return types.Point{}, 0, false
	}
	radius := defaultRadiusKm
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 || r > 100 {
			writeError(c, http.StatusBadRequest, "radius_km must be in (0, 100]")
			return types.Point{}, 0, false
		}
		radius = r
	}
	return types.Point{Lat: lat, Lng: lng}, radius, true
}
