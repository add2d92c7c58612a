// README: Meal slot store; clocks persisted as HH:MM text.
package mealslot

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mealmesh/internal/modules/timewindow"
	"mealmesh/internal/types"
)

// Store persists meal slots. Clock values are stored as "HH:MM" text and
// parsed on read, so a malformed row surfaces as ErrInvalidTimeFormat rather
// than a silent zero value.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, m *MealSlot) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO meal_slots (id, vendor_id, name, start_time, end_time, cutoff_time, window_minutes, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(m.ID), string(m.VendorID), m.Name,
		m.Start.String(), m.End.String(), m.Cutoff.String(),
		m.WindowMinutes, m.IsActive)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*MealSlot, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, vendor_id, name, start_time, end_time, cutoff_time, window_minutes, is_active
        FROM meal_slots
        WHERE id = $1`, string(id))
	m, err := scanSlot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *Store) ListByVendor(ctx context.Context, vendorID types.ID, activeOnly bool) ([]MealSlot, error) {
	query := `
        SELECT id, vendor_id, name, start_time, end_time, cutoff_time, window_minutes, is_active
        FROM meal_slots
        WHERE vendor_id = $1
        ORDER BY start_time`
	if activeOnly {
		query = `
        SELECT id, vendor_id, name, start_time, end_time, cutoff_time, window_minutes, is_active
        FROM meal_slots
        WHERE vendor_id = $1 AND is_active
        ORDER BY start_time`
	}
	rows, err := s.db.Query(ctx, query, string(vendorID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []MealSlot
	for rows.Next() {
		m, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *m)
	}
	return slots, rows.Err()
}

// Deactivate soft-deletes the slot.
func (s *Store) Deactivate(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `UPDATE meal_slots SET is_active = FALSE WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSlot(row pgx.Row) (*MealSlot, error) {
	var m MealSlot
	var start, end, cutoff string
	if err := row.Scan(&m.ID, &m.VendorID, &m.Name, &start, &end, &cutoff, &m.WindowMinutes, &m.IsActive); err != nil {
		return nil, err
	}
	var err error
	if m.Start, err = timewindow.ParseClock(start); err != nil {
		return nil, err
	}
	if m.End, err = timewindow.ParseClock(end); err != nil {
		return nil, err
	}
	if m.Cutoff, err = timewindow.ParseClock(cutoff); err != nil {
		return nil, err
	}
	return &m, nil
}