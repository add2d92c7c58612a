// README: Admin handlers for service area management.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mealmesh/internal/http/middleware"
	"mealmesh/internal/modules/geofence"
	"mealmesh/internal/types"
)

// areaStore is the slice of the geofence store the admin surface needs;
// *geofence.Store implements it.
type areaStore interface {
	UpsertArea(ctx context.Context, a geofence.ServiceArea) error
	GetArea(ctx context.Context, id types.ID) (*geofence.ServiceArea, error)
}

type AdminHandler struct {
	geo areaStore
}

func NewAdminHandler(geo areaStore) *AdminHandler {
	return &AdminHandler{geo: geo}
}

type upsertAreaReq struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	City     string            `json:"city"`
	State    string            `json:"state"`
	Boundary geofence.Boundary `json:"boundary"`
	Pincodes []string          `json:"pincodes"`
	Status   string            `json:"status"`
}

type serviceAreaResp struct {
	ID       types.ID          `json:"id"`
	Name     string            `json:"name"`
	City     string            `json:"city"`
	State    string            `json:"state"`
	Boundary geofence.Boundary `json:"boundary"`
	Pincodes []string          `json:"pincodes"`
	Status   string            `json:"status"`
}

func (h *AdminHandler) UpsertServiceArea(c *gin.Context) {
	if middleware.CallerRole(c) != types.RoleAdmin {
		writeError(c, http.StatusForbidden, "admin only")
		return
	}
	var req upsertAreaReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	status := geofence.AreaStatus(req.Status)
	if status == "" {
		status = geofence.AreaActive
	}
	area := geofence.ServiceArea{
		ID:       types.ID(req.ID),
		Name:     req.Name,
		City:     req.City,
		State:    req.State,
		Boundary: req.Boundary,
		Pincodes: req.Pincodes,
		Status:   status,
	}
	if err := h.geo.UpsertArea(c.Request.Context(), area); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": area.ID})
}

func (h *AdminHandler) GetServiceArea(c *gin.Context) {
	if middleware.CallerRole(c) != types.RoleAdmin {
		writeError(c, http.StatusForbidden, "admin only")
		return
	}
	area, err := h.geo.GetArea(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serviceAreaResp{
		ID:       area.ID,
		Name:     area.Name,
		City:     area.City,
		State:    area.State,
		Boundary: area.Boundary,
		Pincodes: area.Pincodes,
		Status:   string(area.Status),
	})
}
