// Package policy answers which fulfillment methods a vendor has enabled.
package policy

import (
	"errors"
	"fmt"
)

// Method is how an order is handed to the customer.
type Method string

const (
	MethodDelivery Method = "DELIVERY"
	MethodPickup   Method = "PICKUP"
	MethodEatIn    Method = "EAT_IN"
)

var ErrUnknownMethod = errors.New("unknown fulfillment method")

// MethodNotEnabledError reports an order attempt against a disabled method.
type MethodNotEnabledError struct {
	Method Method
}

func (e *MethodNotEnabledError) Error() string {
	return fmt.Sprintf("fulfillment method %s is not enabled for this vendor", e.Method)
}

// Policy is the per-vendor method flag set. Defaults (eat-in off, pickup and
// delivery on) are materialized on first read.
type Policy struct {
	VendorID        string
	EatInEnabled    bool
	PickupEnabled   bool
	DeliveryEnabled bool
}

func defaultPolicy(vendorID string) Policy {
	return Policy{
		VendorID:        vendorID,
		EatInEnabled:    false,
		PickupEnabled:   true,
		DeliveryEnabled: true,
	}
}

func (p Policy) allows(m Method) (bool, error) {
	switch m {
	case MethodEatIn:
		return p.EatInEnabled, nil
	case MethodPickup:
		return p.PickupEnabled, nil
	case MethodDelivery:
		return p.DeliveryEnabled, nil
	default:
		return false, ErrUnknownMethod
	}
}

// RequiresDeliveryAddress is true only for DELIVERY.
func RequiresDeliveryAddress(m Method) bool {
	return m == MethodDelivery
}
