// Package types holds the small value types shared across modules.
package types

// ID identifies a persisted entity (user, vendor, order, ...).
type ID string

// Role is the verified actor role carried by a bearer credential.
type Role string

const (
	RoleCustomer        Role = "CUSTOMER"
	RoleVendor          Role = "VENDOR"
	RoleDeliveryPartner Role = "DELIVERY_PARTNER"
	RoleAdmin           Role = "ADMIN"
)

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
