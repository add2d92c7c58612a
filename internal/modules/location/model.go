// README: Delivery partner location snapshot for live tracking.
package location

import (
	"errors"
	"time"

	"mealmesh/internal/types"
)

var (
	ErrNotFound    = errors.New("no location recorded for partner")
	ErrStaleUpdate = errors.New("location update is older than the stored one")
)

// DefaultNearbyRadiusKm bounds proximity searches when the caller does not
// supply a radius.
const DefaultNearbyRadiusKm = 5.0

// PartnerLocation is the latest known position of a delivery partner.
// Seq is a client-side counter; updates with a lower or equal Seq are
// rejected so out-of-order delivery cannot move a partner backwards.
type PartnerLocation struct {
	PartnerID  types.ID
	Position   types.Point
	Seq        int64
	RecordedAt time.Time
}
