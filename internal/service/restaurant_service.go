package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/observability/metrics"
)

// RestaurantService manages restaurant aggregates and their tables.
type RestaurantService struct {
	restaurants domain.RestaurantRepository
	publisher   domain.EventPublisher
	clock       domain.Clock
	logger      *slog.Logger
}

// CreateRestaurantRequest captures a new restaurant registration.
type CreateRestaurantRequest struct {
	Name     string
	Address  string
	Phone    string
	Email    string
	Capacity int
	Open     domain.TimeOfDay
	Close    domain.TimeOfDay
}

// AddTableRequest captures a new table for an existing restaurant.
type AddTableRequest struct {
	RestaurantID string
	Seats        int
	Location     domain.TableLocation
}

// NewRestaurantService creates a new restaurant service
func NewRestaurantService(
	restaurants domain.RestaurantRepository,
	publisher domain.EventPublisher,
	clock domain.Clock,
	logger *slog.Logger,
) *RestaurantService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RestaurantService{
		restaurants: restaurants,
		publisher:   publisher,
		clock:       clock,
		logger:      logger,
	}
}

// Create registers a new restaurant. Names are unique; a second registration
// under an existing name is rejected as a validation error.
func (s *RestaurantService) Create(ctx context.Context, req CreateRestaurantRequest) (*domain.Restaurant, error) {
	if existing, err := s.restaurants.GetByName(ctx, req.Name); err == nil && existing != nil {
		return nil, &domain.ValidationError{Field: "name", Reason: "a restaurant with this name already exists"}
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	restaurant, err := domain.NewRestaurant(req.Name, req.Address, req.Phone, req.Email, req.Capacity,
		domain.OperatingHours{Open: req.Open, Close: req.Close})
	if err != nil {
		return nil, err
	}

	if err := s.restaurants.Save(ctx, restaurant); err != nil {
		return nil, err
	}

	event := domain.NewEvent(s.clock, domain.EventRestaurantCreated, restaurant.ID)
	event.Detail = restaurant.Name
	_ = s.publisher.Publish(ctx, event)

	s.logger.Info("restaurant created",
		slog.String("restaurant_id", restaurant.ID),
		slog.String("name", restaurant.Name),
	)
	return restaurant, nil
}

// Get loads a restaurant by id.
func (s *RestaurantService) Get(ctx context.Context, id string) (*domain.Restaurant, error) {
	return s.restaurants.GetByID(ctx, id)
}

// List loads every restaurant.
func (s *RestaurantService) List(ctx context.Context) ([]*domain.Restaurant, error) {
	return s.restaurants.List(ctx)
}

// Delete removes a restaurant and everything it owns.
func (s *RestaurantService) Delete(ctx context.Context, id string) error {
	return s.restaurants.Delete(ctx, id)
}

// AddTable creates a table and attaches it to the restaurant, which assigns
// the next sequential table number.
func (s *RestaurantService) AddTable(ctx context.Context, req AddTableRequest) (*domain.Table, error) {
	table, err := domain.NewTable(req.Seats, req.Location)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, req.RestaurantID, func(r *domain.Restaurant) error {
		return r.AddTable(table)
	})
	if err != nil {
		return nil, err
	}

	event := domain.NewEvent(s.clock, domain.EventTableAdded, req.RestaurantID)
	event.TableID = table.ID
	_ = s.publisher.Publish(ctx, event)

	s.logger.Info("table added",
		slog.String("restaurant_id", req.RestaurantID),
		slog.String("table_id", table.ID),
		slog.Int("number", table.Number),
		slog.Int("seats", table.Seats),
	)
	return table, nil
}

// RemoveTable detaches a table from the restaurant. Assigned numbers are
// never reused.
func (s *RestaurantService) RemoveTable(ctx context.Context, restaurantID, tableID string) error {
	return s.mutate(ctx, restaurantID, func(r *domain.Restaurant) error {
		if r.TableByID(tableID) == nil {
			return domain.ErrNotFound
		}
		r.RemoveTable(tableID)
		return nil
	})
}

// SetActive flips the restaurant's accepting-reservations flag.
func (s *RestaurantService) SetActive(ctx context.Context, restaurantID string, active bool) error {
	var previous bool
	err := s.mutate(ctx, restaurantID, func(r *domain.Restaurant) error {
		previous = r.Active
		if active {
			r.Activate()
		} else {
			r.Deactivate()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if previous != active {
		event := domain.NewEvent(s.clock, domain.EventRestaurantStatusChanged, restaurantID)
		event.Previous = activeLabel(previous)
		event.Current = activeLabel(active)
		_ = s.publisher.Publish(ctx, event)
	}
	return nil
}

// SetTableAvailability flips a table's bookable flag, used when a table is
// taken out of service without deleting its history.
func (s *RestaurantService) SetTableAvailability(ctx context.Context, restaurantID, tableID string, available bool) error {
	var previous bool
	err := s.mutate(ctx, restaurantID, func(r *domain.Restaurant) error {
		table := r.TableByID(tableID)
		if table == nil {
			return domain.ErrNotFound
		}
		previous = table.Available
		if available {
			table.MakeAvailable()
		} else {
			table.MakeUnavailable()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if previous != available {
		event := domain.NewEvent(s.clock, domain.EventTableAvailabilityChanged, restaurantID)
		event.TableID = tableID
		event.Previous = availableLabel(previous)
		event.Current = availableLabel(available)
		_ = s.publisher.Publish(ctx, event)
	}
	return nil
}

// mutate runs fn against a freshly loaded aggregate and saves, retrying the
// whole sequence on optimistic version conflicts.
func (s *RestaurantService) mutate(ctx context.Context, restaurantID string, fn func(*domain.Restaurant) error) error {
	for attempt := 1; ; attempt++ {
		restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
		if err != nil {
			return err
		}
		if err := fn(restaurant); err != nil {
			return err
		}
		err = s.restaurants.Save(ctx, restaurant)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= maxSaveAttempts {
			metrics.ObserveReservation("restaurant_save", "error")
			return err
		}
	}
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func availableLabel(available bool) string {
	if available {
		return "available"
	}
	return "unavailable"
}
