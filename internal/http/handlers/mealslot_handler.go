// README: Meal slot handlers for listing, windows, create, deactivate.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mealmesh/internal/http/middleware"
	"mealmesh/internal/modules/mealslot"
	"mealmesh/internal/types"
)

type MealSlotHandler struct {
	slots *mealslot.Service
}

func NewMealSlotHandler(svc *mealslot.Service) *MealSlotHandler {
	return &MealSlotHandler{slots: svc}
}

type mealSlotResp struct {
	ID            types.ID `json:"id"`
	VendorID      types.ID `json:"vendor_id"`
	Name          string   `json:"name"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Cutoff        string   `json:"cutoff"`
	WindowMinutes int      `json:"window_minutes"`
	IsActive      bool     `json:"is_active"`
}

func toMealSlotResp(s *mealslot.MealSlot) mealSlotResp {
	return mealSlotResp{
		ID:            s.ID,
		VendorID:      s.VendorID,
		Name:          s.Name,
		Start:         s.Start.String(),
		End:           s.End.String(),
		Cutoff:        s.Cutoff.String(),
		WindowMinutes: s.WindowMinutes,
		IsActive:      s.IsActive,
	}
}

// ListByVendor returns a vendor's active slots, or all slots with ?all=1.
func (h *MealSlotHandler) ListByVendor(c *gin.Context) {
	vendorID := types.ID(c.Param("id"))
	activeOnly := c.Query("all") != "1"
	slots, err := h.slots.Slots(c.Request.Context(), vendorID, activeOnly)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]mealSlotResp, 0, len(slots))
	for i := range slots {
		resp = append(resp, toMealSlotResp(&slots[i]))
	}
	c.JSON(http.StatusOK, gin.H{"meal_slots": resp})
}

type windowResp struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (h *MealSlotHandler) DeliveryWindows(c *gin.Context) {
	windows, err := h.slots.DeliveryWindows(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]windowResp, 0, len(windows))
	for _, w := range windows {
		resp = append(resp, windowResp{Start: w.Start.String(), End: w.End.String()})
	}
	c.JSON(http.StatusOK, gin.H{"windows": resp})
}

type createMealSlotReq struct {
	Name          string `json:"name"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Cutoff        string `json:"cutoff"`
	WindowMinutes int    `json:"window_minutes"`
}

// Create adds a meal slot for the calling vendor.
func (h *MealSlotHandler) Create(c *gin.Context) {
	vendorID := types.ID(c.Param("id"))
	if !vendorSelfOrAdmin(c, vendorID) {
		writeError(c, http.StatusForbidden, "not your vendor")
		return
	}
	var req createMealSlotReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	slot, err := h.slots.Create(c.Request.Context(), mealslot.CreateCommand{
		VendorID:      vendorID,
		Name:          req.Name,
		Start:         req.Start,
		End:           req.End,
		Cutoff:        req.Cutoff,
		WindowMinutes: req.WindowMinutes,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMealSlotResp(slot))
}

// Deactivate retires a slot. Existing orders keep referencing it.
func (h *MealSlotHandler) Deactivate(c *gin.Context) {
	id := types.ID(c.Param("id"))
	slot, err := h.slots.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !vendorSelfOrAdmin(c, slot.VendorID) {
		writeError(c, http.StatusForbidden, "not your vendor")
		return
	}
	if err := h.slots.Deactivate(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func vendorSelfOrAdmin(c *gin.Context, vendorID types.ID) bool {
	role := middleware.CallerRole(c)
	if role == types.RoleAdmin {
		return true
	}
	return role == types.RoleVendor && middleware.CallerID(c) == vendorID
}
