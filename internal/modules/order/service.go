// README: Order service; admission pipeline and role-gated status transitions.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mealmesh/internal/directory"
	"mealmesh/internal/modules/geofence"
	"mealmesh/internal/modules/mealslot"
	"mealmesh/internal/modules/policy"
	"mealmesh/internal/modules/timewindow"
	"mealmesh/internal/types"
)

var (
	ErrNotFound                 = errors.New("order not found")
	ErrConflict                 = errors.New("order state conflict")
	ErrBadRequest               = errors.New("bad request")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrVendorUnavailable        = errors.New("vendor unavailable")
	ErrAddressNotFound          = errors.New("delivery address not found")
	ErrAddressOwnershipMismatch = errors.New("delivery address does not belong to customer")
	ErrMealSlotUnavailable      = errors.New("meal slot unavailable")
	ErrCutoffPassed             = errors.New("meal slot ordering cutoff has passed")
	ErrItemUnavailable          = errors.New("item unavailable")
)

// CreationError wraps a commit failure; no partial state survives it.
type CreationError struct {
	cause error
}

func (e *CreationError) Error() string { return "order creation failed: " + e.cause.Error() }
func (e *CreationError) Unwrap() error { return e.cause }

// Directory resolves the external entities the pipeline depends on.
type Directory interface {
	GetUser(ctx context.Context, id types.ID) (*directory.User, error)
	GetVendor(ctx context.Context, id types.ID) (*directory.Vendor, error)
	GetAddress(ctx context.Context, id types.ID) (*directory.Address, error)
	GetProducts(ctx context.Context, ids []types.ID) (map[types.ID]directory.Product, error)
}

// PolicyChecker gates fulfillment methods per vendor.
type PolicyChecker interface {
	IsEnabled(ctx context.Context, vendorID types.ID, m policy.Method) error
}

// SlotResolver looks up meal slots.
type SlotResolver interface {
	Get(ctx context.Context, id types.ID) (*mealslot.MealSlot, error)
}

// Geofence answers service-area membership and vendor reach.
type Geofence interface {
	LocateServiceArea(ctx context.Context, p types.Point) (*geofence.ServiceArea, error)
	CheckVendorDelivery(ctx context.Context, vendorID, areaID types.ID, p types.Point) error
}

// OrderStore is the persistence surface; *Store implements it.
type OrderStore interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id types.ID) (*Order, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, at time.Time, partnerID *types.ID) (bool, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]Order, error)
	ListByVendor(ctx context.Context, vendorID types.ID) ([]Order, error)
}

// EventSink receives lifecycle events strictly after the triggering commit.
type EventSink interface {
	Publish(e Event)
}

// Config carries the pricing knobs the pipeline applies server-side.
type Config struct {
	TaxRateBps int // tax in basis points of the subtotal
	Currency   string
}

type Service struct {
	store     OrderStore
	directory Directory
	policy    PolicyChecker
	slots     SlotResolver
	geofence  Geofence
	events    EventSink
	cfg       Config
	now       func() time.Time
}

func NewService(store OrderStore, dir Directory, pol PolicyChecker, slots SlotResolver, geo Geofence, events EventSink, cfg Config) *Service {
	return &Service{
		store:     store,
		directory: dir,
		policy:    pol,
		slots:     slots,
		geofence:  geo,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

type ItemRequest struct {
	ProductID types.ID
	Quantity  int
}

type CreateCommand struct {
	CustomerID        types.ID
	VendorID          types.ID
	DeliveryAddressID *types.ID
	Items             []ItemRequest
	Method            policy.Method
	MealSlotID        *types.ID
	PreferredStart    *string
	PreferredEnd      *string
}

// Create runs the admission pipeline: each gate short-circuits with its typed
// reason, and nothing is written until every gate has passed.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if cmd.CustomerID == "" || cmd.VendorID == "" || len(cmd.Items) == 0 {
		return nil, ErrBadRequest
	}
	for _, it := range cmd.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, ErrBadRequest
		}
	}

	// Gate 1: requester must be a customer.
	customer, err := s.directory.GetUser(ctx, cmd.CustomerID)
	if err != nil || customer.Role != types.RoleCustomer {
		return nil, ErrUnauthorized
	}

	// Gate 2: vendor must exist and be active.
	vendor, err := s.directory.GetVendor(ctx, cmd.VendorID)
	if err != nil || vendor.Status != directory.VendorActive {
		return nil, ErrVendorUnavailable
	}

	// Gate 3: fulfillment method must be enabled for the vendor.
	if err := s.policy.IsEnabled(ctx, cmd.VendorID, cmd.Method); err != nil {
		return nil, err
	}

	// Gate 4: delivery needs an owned address.
	var address *directory.Address
	if policy.RequiresDeliveryAddress(cmd.Method) {
		if cmd.DeliveryAddressID == nil {
			return nil, ErrAddressNotFound
		}
		address, err = s.directory.GetAddress(ctx, *cmd.DeliveryAddressID)
		if err != nil {
			return nil, ErrAddressNotFound
		}
		if address.UserID != cmd.CustomerID {
			return nil, ErrAddressOwnershipMismatch
		}
	}

	// Gate 5: meal slot scheduling.
	var prefStart, prefEnd *timewindow.Clock
	if cmd.MealSlotID != nil {
		slot, err := s.slots.Get(ctx, *cmd.MealSlotID)
		if err != nil || slot.VendorID != cmd.VendorID || !slot.IsActive {
			return nil, ErrMealSlotUnavailable
		}
		if !timewindow.IsWithinCutoff(timewindow.ClockOf(s.now()), slot.Cutoff) {
			return nil, ErrCutoffPassed
		}
		if cmd.PreferredStart != nil || cmd.PreferredEnd != nil {
			if cmd.PreferredStart == nil || cmd.PreferredEnd == nil {
				return nil, timewindow.ErrWindowOutOfRange
			}
			ws, err := timewindow.ParseClock(*cmd.PreferredStart)
			if err != nil {
				return nil, err
			}
			we, err := timewindow.ParseClock(*cmd.PreferredEnd)
			if err != nil {
				return nil, err
			}
			if err := timewindow.ValidateDeliveryWindow(slot.Slot(), ws, we); err != nil {
				return nil, err
			}
			prefStart, prefEnd = &ws, &we
		}
	}

	// Gate 6: geofencing. Addresses without coordinates skip this gate.
	if cmd.Method == policy.MethodDelivery && address != nil && address.Coordinates != nil {
		area, err := s.geofence.LocateServiceArea(ctx, *address.Coordinates)
		if err != nil {
			return nil, err
		}
		if err := s.geofence.CheckVendorDelivery(ctx, cmd.VendorID, area.ID, *address.Coordinates); err != nil {
			return nil, err
		}
	}

	// Gate 7: resolve and reprice every item from the live catalog. Client
	// prices are never trusted.
	ids := make([]types.ID, len(cmd.Items))
	for i, it := range cmd.Items {
		ids[i] = it.ProductID
	}
	products, err := s.directory.GetProducts(ctx, ids)
	if err != nil {
		if errors.Is(err, directory.ErrProductNotFound) {
			return nil, ErrItemUnavailable
		}
		return nil, err
	}
	items := make([]Item, len(cmd.Items))
	subtotal := types.Money{Currency: s.cfg.Currency}
	for i, it := range cmd.Items {
		p := products[it.ProductID]
		if p.VendorID != cmd.VendorID || p.Status != directory.ProductAvailable {
			return nil, ErrItemUnavailable
		}
		items[i] = Item{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
		}
		subtotal = subtotal.Add(p.Price.Mul(it.Quantity))
	}

	deliveryFee := types.Money{Currency: s.cfg.Currency}
	if cmd.Method == policy.MethodDelivery {
		deliveryFee = vendor.DeliveryFee
	}
	tax := types.Money{Amount: subtotal.Amount * int64(s.cfg.TaxRateBps) / 10000, Currency: s.cfg.Currency}

	now := s.now()
	o := &Order{
		ID:                types.ID(uuid.NewString()),
		Number:            newOrderNumber(now),
		CustomerID:        cmd.CustomerID,
		VendorID:          cmd.VendorID,
		DeliveryAddressID: cmd.DeliveryAddressID,
		Items:             items,
		Subtotal:          subtotal,
		DeliveryFee:       deliveryFee,
		Tax:               tax,
		Total:             subtotal.Add(deliveryFee).Add(tax),
		Method:            cmd.Method,
		MealSlotID:        cmd.MealSlotID,
		PreferredStart:    prefStart,
		PreferredEnd:      prefEnd,
		Status:            StatusPending,
		History:           []StatusRecord{{Status: StatusPending, At: now}},
		CreatedAt:         now,
	}

	// Gate 8: atomic commit.
	if err := s.store.Create(ctx, o); err != nil {
		return nil, &CreationError{cause: err}
	}

	// Gate 9: lifecycle event, strictly after commit.
	s.publish(Event{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		CustomerID:  o.CustomerID,
		VendorID:    o.VendorID,
		To:          StatusPending,
		At:          now,
	})
	return o, nil
}

type TransitionCommand struct {
	OrderID   types.ID
	ActorRole types.Role
	ActorID   types.ID
	Target    Status
}

// Transition validates the actor binding, the transition table, and the role
// guard, then commits the status swap with its history row. The CAS predicate
// serializes concurrent transitions on the same order.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if err := s.checkActorBinding(o, cmd); err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, cmd.Target) || !RoleAllows(cmd.ActorRole, o.Status, cmd.Target) {
		return nil, &TransitionError{
			From:    o.Status,
			To:      cmd.Target,
			Allowed: allowedFor(cmd.ActorRole, o.Status),
		}
	}

	// A partner picking up binds themselves on assignment or direct pickup.
	var partnerID *types.ID
	if cmd.ActorRole == types.RoleDeliveryPartner && o.DeliveryPartnerID == nil {
		partnerID = &cmd.ActorID
	}

	at := s.now()
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, cmd.Target, at, partnerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	from := o.Status
	o.Status = cmd.Target
	o.History = append(o.History, StatusRecord{Status: cmd.Target, At: at})
	if partnerID != nil {
		o.DeliveryPartnerID = partnerID
	}

	s.publish(Event{
		OrderID:           o.ID,
		OrderNumber:       o.Number,
		CustomerID:        o.CustomerID,
		VendorID:          o.VendorID,
		DeliveryPartnerID: o.DeliveryPartnerID,
		From:              from,
		To:                cmd.Target,
		At:                at,
	})
	return o, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID types.ID) ([]Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

func (s *Service) ListByVendor(ctx context.Context, vendorID types.ID) ([]Order, error) {
	return s.store.ListByVendor(ctx, vendorID)
}

// checkActorBinding ties the actor to the order: customers to their own
// orders, vendors to theirs, partners to the assigned order except when
// claiming an unassigned one.
func (s *Service) checkActorBinding(o *Order, cmd TransitionCommand) error {
	switch cmd.ActorRole {
	case types.RoleCustomer:
		if o.CustomerID != cmd.ActorID {
			return ErrUnauthorized
		}
	case types.RoleVendor:
		if o.VendorID != cmd.ActorID {
			return ErrUnauthorized
		}
	case types.RoleDeliveryPartner:
		if o.DeliveryPartnerID != nil && *o.DeliveryPartnerID != cmd.ActorID {
			return ErrUnauthorized
		}
	default:
		return ErrUnauthorized
	}
	return nil
}

// allowedFor lists the targets the role could legally set from the state.
func allowedFor(role types.Role, from Status) []Status {
	var out []Status
	for _, to := range AllowedTransitions[from] {
		if RoleAllows(role, from, to) {
			out = append(out, to)
		}
	}
	return out
}

func (s *Service) publish(e Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}