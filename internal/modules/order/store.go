// README: Order store; transactional create and CAS status updates over pgx.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mealmesh/internal/modules/timewindow"
	"mealmesh/internal/types"
)

// Store persists orders with pgx. The admission commit and every status
// update run inside a single transaction, so partial writes are never
// observable and per-order transitions serialize on the status predicate.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create commits the order row, its items, the initial history entry, and the
// matching cart clear atomically.
func (s *Store) Create(ctx context.Context, o *Order) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO orders (
            id, order_number, customer_id, vendor_id, delivery_address_id,
            fulfillment_method, meal_slot_id, preferred_start, preferred_end,
            subtotal, delivery_fee, tax, total, currency, status, created_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9,
            $10, $11, $12, $13, $14, $15, $16
        )`,
		string(o.ID), o.Number, string(o.CustomerID), string(o.VendorID), idPtr(o.DeliveryAddressID),
		string(o.Method), idPtr(o.MealSlotID), clockPtr(o.PreferredStart), clockPtr(o.PreferredEnd),
		o.Subtotal.Amount, o.DeliveryFee.Amount, o.Tax.Amount, o.Total.Amount, o.Total.Currency,
		string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
            INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
            VALUES ($1, $2, $3, $4, $5)`,
			string(o.ID), string(it.ProductID), it.Name, it.Quantity, it.UnitPrice.Amount)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO order_status_history (order_id, status, recorded_at)
        VALUES ($1, $2, $3)`,
		string(o.ID), string(o.Status), o.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
        DELETE FROM cart_items
        WHERE customer_id = $1 AND vendor_id = $2`,
		string(o.CustomerID), string(o.VendorID))
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, order_number, customer_id, vendor_id, delivery_address_id, delivery_partner_id,
               fulfillment_method, meal_slot_id, preferred_start, preferred_end,
               subtotal, delivery_fee, tax, total, currency, status, created_at
        FROM orders
        WHERE id = $1`, string(id))

	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if o.Items, err = s.items(ctx, id, o.Total.Currency); err != nil {
		return nil, err
	}
	if o.History, err = s.history(ctx, id); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus performs a compare-and-swap on the current status and appends
// the history row in the same transaction. Returns false when another
// transition won the race.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, at time.Time, partnerID *types.ID) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE orders
        SET status = $1,
            delivery_partner_id = COALESCE($2, delivery_partner_id)
        WHERE id = $3 AND status = $4`,
		string(to), idPtr(partnerID), string(id), string(from))
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO order_status_history (order_id, status, recorded_at)
        VALUES ($1, $2, $3)`,
		string(id), string(to), at)
	if err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]Order, error) {
	return s.list(ctx, `customer_id = $1`, string(customerID))
}

func (s *Store) ListByVendor(ctx context.Context, vendorID types.ID) ([]Order, error) {
	return s.list(ctx, `vendor_id = $1`, string(vendorID))
}

func (s *Store) list(ctx context.Context, where string, arg any) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, order_number, customer_id, vendor_id, delivery_address_id, delivery_partner_id,
               fulfillment_method, meal_slot_id, preferred_start, preferred_end,
               subtotal, delivery_fee, tax, total, currency, status, created_at
        FROM orders
        WHERE `+where+`
        ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *Store) items(ctx context.Context, orderID types.ID, currency string) ([]Item, error) {
	rows, err := s.db.Query(ctx, `
        SELECT product_id, name, quantity, unit_price
        FROM order_items
        WHERE order_id = $1`, string(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice.Amount); err != nil {
			return nil, err
		}
		it.UnitPrice.Currency = currency
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) history(ctx context.Context, orderID types.ID) ([]StatusRecord, error) {
	rows, err := s.db.Query(ctx, `
        SELECT status, recorded_at
        FROM order_status_history
        WHERE order_id = $1
        ORDER BY recorded_at, id`, string(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []StatusRecord
	for rows.Next() {
		var r StatusRecord
		if err := rows.Scan(&r.Status, &r.At); err != nil {
			return nil, err
		}
		history = append(history, r)
	}
	return history, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var addressID, partnerID, slotID, prefStart, prefEnd *string
	err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.VendorID, &addressID, &partnerID,
		&o.Method, &slotID, &prefStart, &prefEnd,
		&o.Subtotal.Amount, &o.DeliveryFee.Amount, &o.Tax.Amount, &o.Total.Amount, &o.Total.Currency,
		&o.Status, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Subtotal.Currency = o.Total.Currency
	o.DeliveryFee.Currency = o.Total.Currency
	o.Tax.Currency = o.Total.Currency
	o.DeliveryAddressID = toID(addressID)
	o.DeliveryPartnerID = toID(partnerID)
	o.MealSlotID = toID(slotID)
	if o.PreferredStart, err = toClock(prefStart); err != nil {
		return nil, err
	}
	if o.PreferredEnd, err = toClock(prefEnd); err != nil {
		return nil, err
	}
	return &o, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toID(v *string) *types.ID {
	if v == nil {
		return nil
	}
	id := types.ID(*v)
	return &id
}

func clockPtr(c *timewindow.Clock) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

func toClock(v *string) (*timewindow.Clock, error) {
	if v == nil {
		return nil, nil
	}
	c, err := timewindow.ParseClock(*v)
	if err != nil {
		return nil, err
	}
	return &c, nil
}