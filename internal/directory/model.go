// Package directory resolves the entities the order pipeline depends on but
// does not own: users, vendors, addresses, and catalog products. The wider
// portal surface (profile editing, catalog CRUD, credential issuance) lives
// elsewhere; this is strictly a resolve-by-id facade.
package directory

import (
	"errors"

	"mealmesh/internal/types"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrVendorNotFound  = errors.New("vendor not found")
	ErrAddressNotFound = errors.New("address not found")
	ErrProductNotFound = errors.New("product not found")
)

type User struct {
	ID   types.ID
	Name string
	Role types.Role
}

type VendorStatus string

const (
	VendorActive    VendorStatus = "ACTIVE"
	VendorSuspended VendorStatus = "SUSPENDED"
)

type Vendor struct {
	ID          types.ID
	Name        string
	Status      VendorStatus
	DeliveryFee types.Money
}

type Address struct {
	ID          types.ID
	UserID      types.ID
	Line        string
	Pincode     string
	Coordinates *types.Point // nil when the address was saved without geocoding
}

type ProductStatus string

const (
	ProductAvailable   ProductStatus = "AVAILABLE"
	ProductUnavailable ProductStatus = "UNAVAILABLE"
)

type Product struct {
	ID       types.ID
	VendorID types.ID
	Name     string
	Status   ProductStatus
	Price    types.Money
}
