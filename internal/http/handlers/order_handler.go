// README: Order handlers for create/status transition/get/list.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mealmesh/internal/http/middleware"
	"mealmesh/internal/modules/order"
	"mealmesh/internal/modules/policy"
	"mealmesh/internal/types"
)

type OrderHandler struct {
	order *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{order: svc}
}

type orderItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderReq struct {
	VendorID       string         `json:"vendor_id"`
	AddressID      string         `json:"address_id"`
	Method         string         `json:"method"`
	MealSlotID     string         `json:"meal_slot_id"`
	PreferredStart string         `json:"preferred_start"`
	PreferredEnd   string         `json:"preferred_end"`
	Items          []orderItemReq `json:"items"`
}

type orderItemResp struct {
	ProductID types.ID    `json:"product_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice types.Money `json:"unit_price"`
	LineTotal types.Money `json:"line_total"`
}

type statusRecordResp struct {
	Status order.Status `json:"status"`
	At     time.Time    `json:"at"`
}

type orderResp struct {
	ID                types.ID           `json:"id"`
	Number            string             `json:"number"`
	CustomerID        types.ID           `json:"customer_id"`
	VendorID          types.ID           `json:"vendor_id"`
	DeliveryPartnerID *types.ID          `json:"delivery_partner_id,omitempty"`
	Items             []orderItemResp    `json:"items"`
	Subtotal          types.Money        `json:"subtotal"`
	DeliveryFee       types.Money        `json:"delivery_fee"`
	Tax               types.Money        `json:"tax"`
	Total             types.Money        `json:"total"`
	Method            string             `json:"method"`
	MealSlotID        *types.ID          `json:"meal_slot_id,omitempty"`
	PreferredStart    string             `json:"preferred_start,omitempty"`
	PreferredEnd      string             `json:"preferred_end,omitempty"`
	Status            order.Status       `json:"status"`
	History           []statusRecordResp `json:"history"`
	CreatedAt         time.Time          `json:"created_at"`
}

func toOrderResp(o *order.Order) orderResp {
	resp := orderResp{
		ID:                o.ID,
		Number:            o.Number,
		CustomerID:        o.CustomerID,
		VendorID:          o.VendorID,
		DeliveryPartnerID: o.DeliveryPartnerID,
		Subtotal:          o.Subtotal,
		DeliveryFee:       o.DeliveryFee,
		Tax:               o.Tax,
		Total:             o.Total,
		Method:            string(o.Method),
		MealSlotID:        o.MealSlotID,
		Status:            o.Status,
		CreatedAt:         o.CreatedAt,
	}
	if o.PreferredStart != nil {
		resp.PreferredStart = o.PreferredStart.String()
	}
	if o.PreferredEnd != nil {
		resp.PreferredEnd = o.PreferredEnd.String()
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.UnitPrice.Mul(it.Quantity),
		})
	}
	for _, rec := range o.History {
		resp.History = append(resp.History, statusRecordResp{Status: rec.Status, At: rec.At})
	}
	return resp
}

func (h *OrderHandler) Create(c *gin.Context) {
	if middleware.CallerRole(c) != types.RoleCustomer {
		writeError(c, http.StatusForbidden, "only customers can place orders")
		return
	}
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := order.CreateCommand{
		CustomerID: middleware.CallerID(c),
		VendorID:   types.ID(req.VendorID),
		Method:     policy.Method(req.Method),
	}
	if req.AddressID != "" {
		id := types.ID(req.AddressID)
		cmd.DeliveryAddressID = &id
	}
	if req.MealSlotID != "" {
		id := types.ID(req.MealSlotID)
		cmd.MealSlotID = &id
	}
	if req.PreferredStart != "" {
		cmd.PreferredStart = &req.PreferredStart
	}
	if req.PreferredEnd != "" {
		cmd.PreferredEnd = &req.PreferredEnd
	}
	for _, it := range req.Items {
		cmd.Items = append(cmd.Items, order.ItemRequest{
			ProductID: types.ID(it.ProductID),
			Quantity:  it.Quantity,
		})
	}

	o, err := h.order.Create(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResp(o))
}

type transitionReq struct {
	Status string `json:"status"`
}

func (h *OrderHandler) Transition(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "status required")
		return
	}

	o, err := h.order.Transition(c.Request.Context(), order.TransitionCommand{
		OrderID:   types.ID(id),
		ActorRole: middleware.CallerRole(c),
		ActorID:   middleware.CallerID(c),
		Target:    order.Status(req.Status),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResp(o))
}

func (h *OrderHandler) Get(c *gin.Context) {
	id := c.Param("id")
	o, err := h.order.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !isParticipant(c, o) {
		writeError(c, http.StatusForbidden, "not a participant of this order")
		return
	}
	c.JSON(http.StatusOK, toOrderResp(o))
}

// List returns the caller's own orders: placed orders for customers,
// received orders for vendors.
func (h *OrderHandler) List(c *gin.Context) {
	callerID := middleware.CallerID(c)
	var (
		orders []order.Order
		err    error
	)
	switch middleware.CallerRole(c) {
	case types.RoleCustomer:
		orders, err = h.order.ListByCustomer(c.Request.Context(), callerID)
	case types.RoleVendor:
		orders, err = h.order.ListByVendor(c.Request.Context(), callerID)
	default:
		writeError(c, http.StatusForbidden, "listing not available for this role")
		return
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]orderResp, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResp(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

func isParticipant(c *gin.Context, o *order.Order) bool {
	callerID := middleware.CallerID(c)
	role := middleware.CallerRole(c)
	if role == types.RoleAdmin {
		return true
	}
	if callerID == o.CustomerID || callerID == o.VendorID {
		return true
	}
	return o.DeliveryPartnerID != nil && callerID == *o.DeliveryPartnerID
}
