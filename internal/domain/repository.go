package domain

import (
	"context"
	"time"
)

// RestaurantRepository persists restaurant aggregates. Loads return fully
// hydrated graphs (restaurant, tables, slots); Save performs create-or-update
// by identity presence and must reject stale versions with ErrVersionConflict
// so concurrent bookings on the same aggregate cannot both commit.
type RestaurantRepository interface {
	GetByID(ctx context.Context, id string) (*Restaurant, error)
	GetByName(ctx context.Context, name string) (*Restaurant, error)
	List(ctx context.Context) ([]*Restaurant, error)
	Save(ctx context.Context, r *Restaurant) error
	Delete(ctx context.Context, id string) error
}

// Hold is a short-lived tentative lock on a table + time range, placed
// between the availability check and the booking commit so two guests cannot
// race each other through the check. Expiry is enforced by the store's TTL.
type Hold struct {
	Key          string    `json:"key"`
	RestaurantID string    `json:"restaurant_id"`
	TableID      string    `json:"table_id"`
	Date         Date      `json:"date"`
	Start        TimeOfDay `json:"start"`
	End          TimeOfDay `json:"end"`
	PartySize    int       `json:"party_size"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// HoldKey builds the canonical lock key for a table + time range. Two holds
// contend exactly when their keys collide.
func HoldKey(restaurantID, tableID string, date Date, start, end TimeOfDay) string {
	return "hold:" + restaurantID + ":" + tableID + ":" + date.String() + ":" + start.String() + "-" + end.String()
}

// HoldRepository stores table holds with a TTL.
type HoldRepository interface {
	// Place stores the hold if and only if no hold exists for the same key.
	Place(ctx context.Context, hold *Hold, ttl time.Duration) error
	Get(ctx context.Context, key string) (*Hold, error)
	Release(ctx context.Context, key string) error
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*Hold, error)
}
