// README: Delivery partner handlers for live location updates.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mealmesh/internal/http/middleware"
	"mealmesh/internal/modules/location"
	"mealmesh/internal/modules/order"
	"mealmesh/internal/realtime"
	"mealmesh/internal/types"
)

type PartnerHandler struct {
	location    *location.Service
	order       *order.Service
	broadcaster *realtime.Broadcaster
}

func NewPartnerHandler(locationSvc *location.Service, orderSvc *order.Service, b *realtime.Broadcaster) *PartnerHandler {
	return &PartnerHandler{location: locationSvc, order: orderSvc, broadcaster: b}
}

type updateLocationReq struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Seq     int64   `json:"seq"`
	OrderID string  `json:"order_id"`
}

// UpdateLocation records the partner's position. When an order id is given
// and the partner is assigned to it, the position is pushed to the order's
// live audience.
func (h *PartnerHandler) UpdateLocation(c *gin.Context) {
	partnerID := types.ID(c.Param("id"))
	role := middleware.CallerRole(c)
	if role != types.RoleAdmin && (role != types.RoleDeliveryPartner || middleware.CallerID(c) != partnerID) {
		writeError(c, http.StatusForbidden, "not your partner id")
		return
	}
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	loc, err := h.location.Update(c.Request.Context(), location.UpdateCommand{
		PartnerID: partnerID,
		Position:  types.Point{Lat: req.Lat, Lng: req.Lng},
		Seq:       req.Seq,
	})
	if err != nil {
		writeLocationError(c, err)
		return
	}

	if req.OrderID != "" {
		o, err := h.order.Get(c.Request.Context(), types.ID(req.OrderID))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		if o.DeliveryPartnerID == nil || *o.DeliveryPartnerID != partnerID {
			writeError(c, http.StatusForbidden, "not assigned to this order")
			return
		}
		h.broadcaster.PublishLocation(o, partnerID, loc.Position, loc.RecordedAt)
	}

	c.JSON(http.StatusOK, gin.H{"seq": loc.Seq, "recorded_at": loc.RecordedAt})
}

func (h *PartnerHandler) GetLocation(c *gin.Context) {
	loc, err := h.location.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeLocationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"partner_id":  loc.PartnerID,
		"position":    loc.Position,
		"seq":         loc.Seq,
		"recorded_at": loc.RecordedAt,
	})
}

func writeLocationError(c *gin.Context, err error) {
	switch {
	case err == location.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case err == location.ErrStaleUpdate:
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
