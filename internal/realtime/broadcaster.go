// README: Lifecycle event fan-out to order participants and subscribers.
package realtime

import (
	"time"

	"github.com/rs/zerolog"

	"mealmesh/internal/modules/order"
	"mealmesh/internal/types"
)

// Broadcaster fans order lifecycle events out to the participants of the
// order, to any subscribed watchers, and, for orders becoming ready for
// pickup, to every connected delivery partner.
type Broadcaster struct {
	registry *Registry
	subs     *SubscriptionIndex
	logger   zerolog.Logger
}

func NewBroadcaster(registry *Registry, subs *SubscriptionIndex, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, subs: subs, logger: logger}
}

// Publish implements the order event sink. Delivery is best effort; a user
// without a live connection simply misses the frame.
func (b *Broadcaster) Publish(ev order.Event) {
	frame := EventFrame{
		Type:        TypeOrderStatus,
		OrderID:     ev.OrderID,
		OrderNumber: ev.OrderNumber,
		From:        string(ev.From),
		To:          string(ev.To),
		At:          ev.At,
	}
	if ev.From == "" {
		frame.Type = TypeOrderCreated
	}

	audience := b.audience(ev)
	delivered := 0
	for _, id := range audience {
		if b.registry.SendToUser(id, frame) {
			delivered++
		}
	}

	// Partners already in the audience (assigned or subscribed) must not
	// receive the role fan-out a second time.
	if ev.To == order.StatusReadyForPickup {
		skip := make(map[types.ID]struct{}, len(audience))
		for _, id := range audience {
			skip[id] = struct{}{}
		}
		delivered += b.registry.BroadcastToRoleExcept(types.RoleDeliveryPartner, skip, frame)
	}

	b.logger.Debug().
		Str("order_id", string(ev.OrderID)).
		Str("status", string(ev.To)).
		Int("delivered", delivered).
		Msg("order event broadcast")
}

// PublishLocation pushes a partner position to the customer, vendor, and
// watchers of the order. The partner already knows where they are.
func (b *Broadcaster) PublishLocation(o *order.Order, partnerID types.ID, p types.Point, at time.Time) {
	frame := LocationFrame{
		Type:      TypePartnerLocation,
		OrderID:   o.ID,
		PartnerID: partnerID,
		Position:  p,
		At:        at,
	}
	ev := order.Event{OrderID: o.ID, CustomerID: o.CustomerID, VendorID: o.VendorID}
	for _, id := range b.audience(ev) {
		if id == partnerID {
			continue
		}
		b.registry.SendToUser(id, frame)
	}
}

// audience is the deduplicated set of participant and subscriber user ids.
func (b *Broadcaster) audience(ev order.Event) []types.ID {
	seen := make(map[types.ID]struct{})
	out := make([]types.ID, 0, 4)
	add := func(id types.ID) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(ev.CustomerID)
	add(ev.VendorID)
	if ev.DeliveryPartnerID != nil {
		add(*ev.DeliveryPartnerID)
	}
	for _, id := range b.subs.Subscribers(ev.OrderID) {
		add(id)
	}
	return out
}