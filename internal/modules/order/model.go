// Package order owns the order lifecycle: the admission pipeline that creates
// an order and the state machine that governs every later transition.
package order

import (
	"fmt"
	"time"

	"mealmesh/internal/modules/policy"
	"mealmesh/internal/modules/timewindow"
	"mealmesh/internal/types"
)

type Status string

const (
	StatusPending            Status = "PENDING"
	StatusAccepted           Status = "ACCEPTED"
	StatusPreparing          Status = "PREPARING"
	StatusReadyForPickup     Status = "READY_FOR_PICKUP"
	StatusAssignedToDelivery Status = "ASSIGNED_TO_DELIVERY"
	StatusPickedUp           Status = "PICKED_UP"
	StatusInTransit          Status = "IN_TRANSIT"
	StatusDelivered          Status = "DELIVERED"
	StatusCancelled          Status = "CANCELLED"
	StatusRejected           Status = "REJECTED"
)

// AllowedTransitions is the full state flow as data. Terminal statuses
// (DELIVERED, CANCELLED, REJECTED) have no entry and so no outgoing edges.
var AllowedTransitions = map[Status][]Status{
	StatusPending:            {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:           {StatusPreparing, StatusCancelled},
	StatusPreparing:          {StatusReadyForPickup, StatusCancelled},
	StatusReadyForPickup:     {StatusAssignedToDelivery, StatusCancelled},
	StatusAssignedToDelivery: {StatusPickedUp, StatusCancelled},
	StatusPickedUp:           {StatusInTransit},
	StatusInTransit:          {StatusDelivered},
}

// RoleTransitions layers per-role guards over the table: for each role, which
// target statuses it may set, and from which states.
var RoleTransitions = map[types.Role]map[Status][]Status{
	types.RoleCustomer: {
		StatusCancelled: {StatusPending, StatusAccepted, StatusPreparing},
	},
	types.RoleVendor: {
		StatusAccepted:       {StatusPending},
		StatusRejected:       {StatusPending},
		StatusPreparing:      {StatusAccepted},
		StatusReadyForPickup: {StatusAccepted, StatusPreparing},
	},
	types.RoleDeliveryPartner: {
		StatusAssignedToDelivery: {StatusReadyForPickup},
		StatusPickedUp:           {StatusReadyForPickup, StatusAssignedToDelivery},
		StatusInTransit:          {StatusPickedUp},
		StatusDelivered:          {StatusInTransit},
	},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RoleAllows reports whether the role's guard permits setting to from from.
func RoleAllows(role types.Role, from, to Status) bool {
	for _, s := range RoleTransitions[role][to] {
		if s == from {
			return true
		}
	}
	return false
}

func IsTerminal(s Status) bool {
	return len(AllowedTransitions[s]) == 0
}

// TransitionError names the attempted pair and the allowed next set.
type TransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition %s -> %s (allowed: %v)", e.From, e.To, e.Allowed)
}

// Item is an order line carrying the server-side unit price captured at
// admission time.
type Item struct {
	ProductID types.ID    `json:"product_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice types.Money `json:"unit_price"`
}

// StatusRecord is one immutable entry of the order's status history.
type StatusRecord struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

// Order is created once by the admission pipeline with status PENDING and
// mutated only through validated transitions. Status always equals the last
// history entry; Total = Subtotal + DeliveryFee + Tax.
type Order struct {
	ID                types.ID
	Number            string
	CustomerID        types.ID
	VendorID          types.ID
	DeliveryAddressID *types.ID
	DeliveryPartnerID *types.ID
	Items             []Item
	Subtotal          types.Money
	DeliveryFee       types.Money
	Tax               types.Money
	Total             types.Money
	Method            policy.Method
	MealSlotID        *types.ID
	PreferredStart    *timewindow.Clock
	PreferredEnd      *timewindow.Clock
	Status            Status
	History           []StatusRecord
	CreatedAt         time.Time
}

// Event is the lifecycle notification emitted after every committed creation
// or transition. Participant ids steer audience resolution and stay off the
// wire.
type Event struct {
	OrderID           types.ID  `json:"order_id"`
	OrderNumber       string    `json:"order_number"`
	CustomerID        types.ID  `json:"-"`
	VendorID          types.ID  `json:"-"`
	DeliveryPartnerID *types.ID `json:"-"`
	From              Status    `json:"from,omitempty"`
	To                Status    `json:"status"`
	At                time.Time `json:"at"`
}
