package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/tablereserve/internal/domain"
)

// PostgresRestaurantRepository implements domain.RestaurantRepository.
// Aggregates are loaded fully hydrated (restaurant, tables, slots) and saves
// are guarded by a per-restaurant version column: a concurrent writer that
// committed first makes the save fail with domain.ErrVersionConflict.
type PostgresRestaurantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRestaurantRepository creates a new restaurant repository.
func NewPostgresRestaurantRepository(db *sql.DB, logger *slog.Logger) *PostgresRestaurantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRestaurantRepository{db: db, logger: logger}
}

// EnsureSchema creates the tables this repository needs.
func (r *PostgresRestaurantRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			capacity INT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			open_minutes INT NOT NULL,
			close_minutes INT NOT NULL,
			next_table_number INT NOT NULL DEFAULT 1,
			version BIGINT NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS restaurant_tables (
			id TEXT PRIMARY KEY,
			restaurant_id TEXT NOT NULL REFERENCES restaurants(id) ON DELETE CASCADE,
			number INT NOT NULL,
			seats INT NOT NULL,
			location TEXT NOT NULL,
			available BOOLEAN NOT NULL DEFAULT TRUE,
			position INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reservation_slots (
			id TEXT PRIMARY KEY,
			table_id TEXT NOT NULL REFERENCES restaurant_tables(id) ON DELETE CASCADE,
			slot_date DATE NOT NULL,
			start_minutes INT NOT NULL,
			end_minutes INT NOT NULL,
			party_size INT NOT NULL,
			status TEXT NOT NULL,
			customer_name TEXT NOT NULL DEFAULT '',
			customer_phone TEXT NOT NULL DEFAULT '',
			customer_email TEXT NOT NULL DEFAULT '',
			position INT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tables_restaurant ON restaurant_tables(restaurant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_table ON reservation_slots(table_id)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// GetByID loads a fully hydrated aggregate.
func (r *PostgresRestaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByName loads a fully hydrated aggregate by restaurant name.
func (r *PostgresRestaurantRepository) GetByName(ctx context.Context, name string) (*domain.Restaurant, error) {
	return r.getOne(ctx, `WHERE name = $1`, name)
}

func (r *PostgresRestaurantRepository) getOne(ctx context.Context, where string, arg any) (*domain.Restaurant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, address, phone, email, capacity, active,
		       open_minutes, close_minutes, next_table_number, version
		FROM restaurants `+where, arg)

	head, err := scanRestaurantRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load restaurant: %w", err)
	}

	tables, err := r.loadTables(ctx, head.id)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateRestaurant(
		head.id, head.name, head.address, head.phone, head.email,
		head.capacity, head.active,
		domain.OperatingHours{Open: domain.TimeOfDay(head.openMinutes), Close: domain.TimeOfDay(head.closeMinutes)},
		head.version, head.nextTableNumber, tables,
	), nil
}

// List loads every aggregate, fully hydrated.
func (r *PostgresRestaurantRepository) List(ctx context.Context) ([]*domain.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, address, phone, email, capacity, active,
		       open_minutes, close_minutes, next_table_number, version
		FROM restaurants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	var heads []restaurantRow
	for rows.Next() {
		head, err := scanRestaurantRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		heads = append(heads, head)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}

	out := make([]*domain.Restaurant, 0, len(heads))
	for _, head := range heads {
		tables, err := r.loadTables(ctx, head.id)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.RehydrateRestaurant(
			head.id, head.name, head.address, head.phone, head.email,
			head.capacity, head.active,
			domain.OperatingHours{Open: domain.TimeOfDay(head.openMinutes), Close: domain.TimeOfDay(head.closeMinutes)},
			head.version, head.nextTableNumber, tables,
		))
	}
	return out, nil
}

// Save performs create-or-update by identity presence. A restaurant that was
// never persisted carries version 0 and is inserted; anything else updates
// the head row with a version check, then rewrites the child rows inside the
// same transaction.
func (r *PostgresRestaurantRepository) Save(ctx context.Context, restaurant *domain.Restaurant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if restaurant.Version == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO restaurants (id, name, address, phone, email, capacity, active,
				open_minutes, close_minutes, next_table_number, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)`,
			restaurant.ID, restaurant.Name, restaurant.Address, restaurant.Phone, restaurant.Email,
			restaurant.Capacity, restaurant.Active,
			int(restaurant.Hours.Open), int(restaurant.Hours.Close), restaurant.NextTableNumber(),
		)
		if err != nil {
			return fmt.Errorf("insert restaurant: %w", err)
		}
		restaurant.Version = 1
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE restaurants
			SET name = $2, address = $3, phone = $4, email = $5, capacity = $6, active = $7,
			    open_minutes = $8, close_minutes = $9, next_table_number = $10, version = version + 1
			WHERE id = $1 AND version = $11`,
			restaurant.ID, restaurant.Name, restaurant.Address, restaurant.Phone, restaurant.Email,
			restaurant.Capacity, restaurant.Active,
			int(restaurant.Hours.Open), int(restaurant.Hours.Close), restaurant.NextTableNumber(),
			restaurant.Version,
		)
		if err != nil {
			return fmt.Errorf("update restaurant: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update restaurant: %w", err)
		}
		if affected == 0 {
			return domain.ErrVersionConflict
		}
		restaurant.Version++
	}

	// Child rows are rewritten wholesale; the aggregate is small and the
	// version check above already serializes writers.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM reservation_slots WHERE table_id IN
			(SELECT id FROM restaurant_tables WHERE restaurant_id = $1)`, restaurant.ID); err != nil {
		return fmt.Errorf("clear slots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE restaurant_id = $1`, restaurant.ID); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}

	for ti, table := range restaurant.Tables() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO restaurant_tables (id, restaurant_id, number, seats, location, available, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			table.ID, restaurant.ID, table.Number, table.Seats, string(table.Location), table.Available, ti,
		); err != nil {
			return fmt.Errorf("insert table: %w", err)
		}
		for si, slot := range table.Slots() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO reservation_slots (id, table_id, slot_date, start_minutes, end_minutes,
					party_size, status, customer_name, customer_phone, customer_email, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				slot.ID, table.ID, slot.Date.String(), int(slot.Start), int(slot.End),
				slot.PartySize, string(slot.Status),
				slot.CustomerName, slot.CustomerPhone, slot.CustomerEmail, si,
			); err != nil {
				return fmt.Errorf("insert slot: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	r.logger.Debug("restaurant saved",
		slog.String("restaurant_id", restaurant.ID),
		slog.Int64("version", restaurant.Version),
	)
	return nil
}

// Delete removes an aggregate and, through cascades, its tables and slots.
func (r *PostgresRestaurantRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type restaurantRow struct {
	id, name, address, phone, email string
	capacity                        int
	active                          bool
	openMinutes, closeMinutes       int
	nextTableNumber                 int
	version                         int64
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurantRow(row rowScanner) (restaurantRow, error) {
	var head restaurantRow
	err := row.Scan(
		&head.id, &head.name, &head.address, &head.phone, &head.email,
		&head.capacity, &head.active,
		&head.openMinutes, &head.closeMinutes, &head.nextTableNumber, &head.version,
	)
	return head, err
}

func (r *PostgresRestaurantRepository) loadTables(ctx context.Context, restaurantID string) ([]*domain.Table, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, number, seats, location, available
		FROM restaurant_tables WHERE restaurant_id = $1 ORDER BY position`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	defer rows.Close()

	type tableRow struct {
		id        string
		number    int
		seats     int
		location  string
		available bool
	}
	var heads []tableRow
	for rows.Next() {
		var tr tableRow
		if err := rows.Scan(&tr.id, &tr.number, &tr.seats, &tr.location, &tr.available); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		heads = append(heads, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}

	var tables []*domain.Table
	for _, tr := range heads {
		slots, err := r.loadSlots(ctx, tr.id)
		if err != nil {
			return nil, err
		}
		tables = append(tables, domain.RehydrateTable(
			tr.id, tr.number, tr.seats, domain.TableLocation(tr.location), tr.available, slots,
		))
	}
	return tables, nil
}

func (r *PostgresRestaurantRepository) loadSlots(ctx context.Context, tableID string) ([]*domain.ReservationSlot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, to_char(slot_date, 'YYYY-MM-DD'), start_minutes, end_minutes,
		       party_size, status, customer_name, customer_phone, customer_email
		FROM reservation_slots WHERE table_id = $1 ORDER BY position`, tableID)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()

	var slots []*domain.ReservationSlot
	for rows.Next() {
		var (
			slot    domain.ReservationSlot
			rawDate string
			start   int
			end     int
			status  string
		)
		if err := rows.Scan(
			&slot.ID, &rawDate, &start, &end,
			&slot.PartySize, &status,
			&slot.CustomerName, &slot.CustomerPhone, &slot.CustomerEmail,
		); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		date, err := domain.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("scan slot date: %w", err)
		}
		slot.Date = date
		slot.Start = domain.TimeOfDay(start)
		slot.End = domain.TimeOfDay(end)
		slot.Status = domain.ReservationStatus(status)
		s := slot
		slots = append(slots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	return slots, nil
}
