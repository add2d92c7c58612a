package realtime

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mealmesh/internal/modules/order"
	"mealmesh/internal/types"
)

func TestPublishReachesParticipantsAndSubscribers(t *testing.T) {
	reg, subs := newTestRegistry(time.Hour)
	b := NewBroadcaster(reg, subs, zerolog.Nop())

	cust := newFakeConn()
	vendor := newFakeConn()
	watcher := newFakeConn()
	stranger := newFakeConn()
	reg.Register("c1", types.RoleCustomer, cust)
	reg.Register("v1", types.RoleVendor, vendor)
	reg.Register("w1", types.RoleCustomer, watcher)
	reg.Register("s1", types.RoleCustomer, stranger)
	subs.Subscribe("w1", "o1")

	b.Publish(order.Event{
		OrderID:     "o1",
		OrderNumber: "ORD-20260829-AB12CD",
		CustomerID:  "c1",
		VendorID:    "v1",
		From:        order.StatusPending,
		To:          order.StatusAccepted,
		At:          time.Now(),
	})

	for name, conn := range map[string]*fakeConn{"customer": cust, "vendor": vendor, "watcher": watcher} {
		if len(conn.sent()) != 1 {
			t.Fatalf("%s got %d frames, want 1", name, len(conn.sent()))
		}
	}
	if len(stranger.sent()) != 0 {
		t.Fatal("non-participant should receive nothing")
	}

	frame, ok := cust.sent()[0].(EventFrame)
	if !ok {
		t.Fatalf("frame type %T", cust.sent()[0])
	}
	if frame.Type != TypeOrderStatus || frame.To != string(order.StatusAccepted) {
		t.Fatalf("frame = %+v", frame)
	}
}

func TestPublishCreationFrame(t *testing.T) {
	reg, subs := newTestRegistry(time.Hour)
	b := NewBroadcaster(reg, subs, zerolog.Nop())

	cust := newFakeConn()
	reg.Register("c1", types.RoleCustomer, cust)

	b.Publish(order.Event{
		OrderID:    "o1",
		CustomerID: "c1",
		VendorID:   "v1",
		To:         order.StatusPending,
		At:         time.Now(),
	})

	frame := cust.sent()[0].(EventFrame)
	if frame.Type != TypeOrderCreated {
		t.Fatalf("frame type = %q, want %q", frame.Type, TypeOrderCreated)
	}
}

func TestReadyForPickupNotifiesDeliveryPartners(t *testing.T) {
	reg, subs := newTestRegistry(time.Hour)
	b := NewBroadcaster(reg, subs, zerolog.Nop())

	cust := newFakeConn()
	dp := newFakeConn()
	reg.Register("c1", types.RoleCustomer, cust)
	reg.Register("dp9", types.RoleDeliveryPartner, dp)

	b.Publish(order.Event{
		OrderID:    "o1",
		CustomerID: "c1",
		VendorID:   "v1",
		From:       order.StatusPreparing,
		To:         order.StatusReadyForPickup,
		At:         time.Now(),
	})

	if len(dp.sent()) != 1 {
		t.Fatalf("partner got %d frames, want 1", len(dp.sent()))
	}
	if len(cust.sent()) != 1 {
		t.Fatalf("customer got %d frames, want 1", len(cust.sent()))
	}
}

// A partner who subscribed to the order is already in the audience; the
// READY_FOR_PICKUP role fan-out must not deliver the same frame again.
func TestReadyForPickupSubscribedPartnerGetsOneFrame(t *testing.T) {
	reg, subs := newTestRegistry(time.Hour)
	b := NewBroadcaster(reg, subs, zerolog.Nop())

	watching := newFakeConn()
	idle := newFakeConn()
	reg.Register("dp1", types.RoleDeliveryPartner, watching)
	reg.Register("dp2", types.RoleDeliveryPartner, idle)
	subs.Subscribe("dp1", "o1")

	b.Publish(order.Event{
		OrderID:    "o1",
		CustomerID: "c1",
		VendorID:   "v1",
		From:       order.StatusPreparing,
		To:         order.StatusReadyForPickup,
		At:         time.Now(),
	})

	if len(watching.sent()) != 1 {
		t.Fatalf("subscribed partner got %d frames, want 1", len(watching.sent()))
	}
	if len(idle.sent()) != 1 {
		t.Fatalf("idle partner got %d frames, want 1", len(idle.sent()))
	}
}

func TestPublishDeduplicatesAssignedPartner(t *testing.T) {
	reg, subs := newTestRegistry(time.Hour)
	b := NewBroadcaster(reg, subs, zerolog.Nop())

	dp := newFakeConn()
	reg.Register("dp1", types.RoleDeliveryPartner, dp)
	subs.Subscribe("dp1", "o1")

	partnerID := types.ID("dp1")
	b.Publish(order.Event{
		OrderID:           "o1",
		CustomerID:        "c1",
		VendorID:          "v1",
		DeliveryPartnerID: &partnerID,
		From:              order.StatusPickedUp,
		To:                order.StatusInTransit,
		At:                time.Now(),
	})

	if len(dp.sent()) != 1 {
		t.Fatalf("partner got %d frames, want exactly 1", len(dp.sent()))
	}
}
