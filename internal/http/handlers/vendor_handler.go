// README: Vendor settings handlers for fulfillment policy and delivery location.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mealmesh/internal/modules/geofence"
	"mealmesh/internal/modules/policy"
	"mealmesh/internal/types"
)

type VendorHandler struct {
	policy *policy.Service
	geo    *geofence.Store
}

func NewVendorHandler(policySvc *policy.Service, geo *geofence.Store) *VendorHandler {
	return &VendorHandler{policy: policySvc, geo: geo}
}

type setMethodReq struct {
	Method  string `json:"method"`
	Enabled *bool  `json:"enabled"`
}

func (h *VendorHandler) SetFulfillmentMethod(c *gin.Context) {
	vendorID := types.ID(c.Param("id"))
	if !vendorSelfOrAdmin(c, vendorID) {
		writeError(c, http.StatusForbidden, "not your vendor")
		return
	}
	var req setMethodReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		writeError(c, http.StatusBadRequest, "method and enabled required")
		return
	}
	if err := h.policy.SetMethod(c.Request.Context(), vendorID, policy.Method(req.Method), *req.Enabled); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"method": req.Method, "enabled": *req.Enabled})
}

type setLocationReq struct {
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	ServiceRadiusKm float64 `json:"service_radius_km"`
}

func (h *VendorHandler) SetLocation(c *gin.Context) {
	vendorID := types.ID(c.Param("id"))
	if !vendorSelfOrAdmin(c, vendorID) {
		writeError(c, http.StatusForbidden, "not your vendor")
		return
	}
	var req setLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.geo.SetVendorLocation(c.Request.Context(), geofence.VendorLocation{
		VendorID:        vendorID,
		Position:        types.Point{Lat: req.Lat, Lng: req.Lng},
		ServiceRadiusKm: req.ServiceRadiusKm,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
