package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/featureflags"
	"github.com/yourorg/tablereserve/internal/observability/metrics"
	"github.com/yourorg/tablereserve/pkg/cache"
	"github.com/yourorg/tablereserve/pkg/config"
)

// maxSaveAttempts bounds the reload-and-retry loop around optimistic save
// conflicts. Past this the caller gets the conflict error as-is.
const maxSaveAttempts = 3

// ReservationService coordinates booking and slot lifecycle transitions
// against the restaurant aggregate.
type ReservationService struct {
	restaurants domain.RestaurantRepository
	holds       domain.HoldRepository
	engine      *domain.AvailabilityEngine
	publisher   domain.EventPublisher
	clock       domain.Clock
	rateCache   *cache.Cache
	logger      *slog.Logger
	config      *config.Config
}

// BookingRequest captures a reservation request. TableID is optional: when
// empty the engine picks the smallest available table that fits the party.
type BookingRequest struct {
	RestaurantID  string
	TableID       string
	Date          domain.Date
	Start         domain.TimeOfDay
	End           domain.TimeOfDay
	PartySize     int
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	HoldKey       string
}

// HoldRequest captures a tentative lock request for a table + time range.
type HoldRequest struct {
	RestaurantID string
	TableID      string
	Date         domain.Date
	Start        domain.TimeOfDay
	End          domain.TimeOfDay
	PartySize    int
}

// NewReservationService creates a new reservation service
func NewReservationService(
	restaurants domain.RestaurantRepository,
	holds domain.HoldRepository,
	engine *domain.AvailabilityEngine,
	publisher domain.EventPublisher,
	clock domain.Clock,
	rateCache *cache.Cache,
	logger *slog.Logger,
	cfg *config.Config,
) *ReservationService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationService{
		restaurants: restaurants,
		holds:       holds,
		engine:      engine,
		publisher:   publisher,
		clock:       clock,
		rateCache:   rateCache,
		logger:      logger,
		config:      cfg,
	}
}

// Book creates a new reservation slot on a table. The slot starts in the
// available state; Confirm moves it to confirmed. Concurrent bookings on the
// same restaurant are serialized by the aggregate version: on a conflict the
// whole check-and-add sequence reruns against a fresh load.
func (s *ReservationService) Book(ctx context.Context, req BookingRequest) (*domain.ReservationSlot, error) {
	start := time.Now()

	if featureflags.Enabled("require_holds") && req.HoldKey == "" {
		metrics.ObserveBooking("rejected", time.Since(start))
		return nil, &domain.ValidationError{Field: "holdKey", Reason: "a table hold is required before booking"}
	}
	if req.HoldKey != "" {
		hold, err := s.holds.Get(ctx, req.HoldKey)
		if err != nil {
			metrics.ObserveBooking("rejected", time.Since(start))
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.ValidationError{Field: "holdKey", Reason: "hold has expired or was never placed"}
			}
			return nil, fmt.Errorf("verify hold: %w", err)
		}
		// A hold locks one table + range; a booking may only consume a hold
		// that covers exactly what it is asking for.
		if hold.RestaurantID != req.RestaurantID || hold.Date != req.Date || hold.Start != req.Start || hold.End != req.End {
			metrics.ObserveBooking("rejected", time.Since(start))
			return nil, &domain.ValidationError{Field: "holdKey", Reason: "hold does not match the requested reservation"}
		}
		if req.TableID != "" && req.TableID != hold.TableID {
			metrics.ObserveBooking("rejected", time.Since(start))
			return nil, &domain.ValidationError{Field: "holdKey", Reason: "hold is for a different table"}
		}
		if req.TableID == "" {
			req.TableID = hold.TableID
		}
	}

	var slot *domain.ReservationSlot
	var tableID string
	for attempt := 1; ; attempt++ {
		restaurant, err := s.restaurants.GetByID(ctx, req.RestaurantID)
		if err != nil {
			metrics.ObserveBooking("error", time.Since(start))
			return nil, err
		}

		var table *domain.Table
		if req.TableID != "" {
			table = restaurant.TableByID(req.TableID)
			if table == nil {
				metrics.ObserveBooking("rejected", time.Since(start))
				return nil, domain.ErrNotFound
			}
		} else {
			table, err = s.engine.FindBestTable(restaurant, req.PartySize, req.Date, req.Start, req.End)
			if err != nil {
				metrics.ObserveBooking("rejected", time.Since(start))
				return nil, err
			}
			if table == nil {
				metrics.ObserveBooking("rejected", time.Since(start))
				return nil, &domain.CapacityError{
					Requested: req.PartySize,
					Capacity:  restaurant.TotalSeats(),
					Reason:    "no available table can accommodate the party at the requested time",
				}
			}
		}

		if err := s.engine.ValidateReservationConstraints(restaurant, table, req.PartySize, req.Date, req.Start, req.End); err != nil {
			metrics.ObserveBooking("rejected", time.Since(start))
			return nil, err
		}

		slot, err = domain.NewReservationSlot(s.clock, req.Date, req.Start, req.End, req.PartySize)
		if err != nil {
			metrics.ObserveBooking("rejected", time.Since(start))
			return nil, err
		}
		slot.ID = domain.NewID()
		slot.CustomerName = req.CustomerName
		slot.CustomerPhone = req.CustomerPhone
		slot.CustomerEmail = req.CustomerEmail

		if err := table.AddSlot(slot); err != nil {
			metrics.ObserveBooking("rejected", time.Since(start))
			return nil, err
		}

		err = s.restaurants.Save(ctx, restaurant)
		if err == nil {
			tableID = table.ID
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= maxSaveAttempts {
			metrics.ObserveBooking("error", time.Since(start))
			return nil, err
		}
		s.logger.Debug("booking save conflict, retrying",
			slog.String("restaurant_id", req.RestaurantID),
			slog.Int("attempt", attempt),
		)
	}

	if req.HoldKey != "" {
		if err := s.holds.Release(ctx, req.HoldKey); err != nil {
			s.logger.Warn("failed to release hold after booking",
				slog.String("hold_key", req.HoldKey),
				slog.String("error", err.Error()),
			)
		}
	}
	s.invalidateRates(req.RestaurantID)

	event := domain.NewEvent(s.clock, domain.EventReservationCreated, req.RestaurantID)
	event.TableID = tableID
	event.SlotID = slot.ID
	event.Current = string(slot.Status)
	_ = s.publisher.Publish(ctx, event)

	s.logger.Info("reservation booked",
		slog.String("restaurant_id", req.RestaurantID),
		slog.String("table_id", tableID),
		slog.String("slot_id", slot.ID),
		slog.Int("party_size", req.PartySize),
	)
	metrics.ObserveBooking("success", time.Since(start))
	metrics.ObserveReservation("book", "success")
	return slot, nil
}

// Confirm transitions a slot from available to confirmed.
func (s *ReservationService) Confirm(ctx context.Context, restaurantID, slotID string) (*domain.ReservationSlot, error) {
	slot, err := s.transition(ctx, restaurantID, slotID, "confirm", (*domain.ReservationSlot).Confirm)
	if err == nil {
		metrics.IncrementConfirmed()
	}
	return slot, err
}

// Cancel transitions a confirmed slot to cancelled, freeing its time range.
func (s *ReservationService) Cancel(ctx context.Context, restaurantID, slotID string) (*domain.ReservationSlot, error) {
	slot, err := s.transition(ctx, restaurantID, slotID, "cancel", (*domain.ReservationSlot).Cancel)
	if err == nil {
		metrics.DecrementConfirmed()
	}
	return slot, err
}

// Complete transitions a confirmed slot to completed after service ends.
func (s *ReservationService) Complete(ctx context.Context, restaurantID, slotID string) (*domain.ReservationSlot, error) {
	slot, err := s.transition(ctx, restaurantID, slotID, "complete", (*domain.ReservationSlot).Complete)
	if err == nil {
		metrics.DecrementConfirmed()
	}
	return slot, err
}

func (s *ReservationService) transition(
	ctx context.Context,
	restaurantID, slotID, operation string,
	apply func(*domain.ReservationSlot) error,
) (*domain.ReservationSlot, error) {
	var slot *domain.ReservationSlot
	var tableID string
	var previous domain.ReservationStatus

	for attempt := 1; ; attempt++ {
		restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
		if err != nil {
			metrics.ObserveReservation(operation, "error")
			return nil, err
		}

		table, found := restaurant.SlotByID(slotID)
		if found == nil {
			metrics.ObserveReservation(operation, "not_found")
			return nil, domain.ErrNotFound
		}
		slot = found
		tableID = table.ID
		previous = slot.Status

		if err := apply(slot); err != nil {
			metrics.ObserveReservation(operation, "rejected")
			return nil, err
		}

		err = s.restaurants.Save(ctx, restaurant)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= maxSaveAttempts {
			metrics.ObserveReservation(operation, "error")
			return nil, err
		}
	}

	s.invalidateRates(restaurantID)

	event := domain.NewEvent(s.clock, domain.EventReservationStatusChanged, restaurantID)
	event.TableID = tableID
	event.SlotID = slotID
	event.Previous = string(previous)
	event.Current = string(slot.Status)
	_ = s.publisher.Publish(ctx, event)

	s.logger.Info("reservation "+operation+"ed",
		slog.String("restaurant_id", restaurantID),
		slog.String("slot_id", slotID),
		slog.String("previous", string(previous)),
		slog.String("current", string(slot.Status)),
	)
	metrics.ObserveReservation(operation, "success")
	return slot, nil
}

// PlaceHold validates the request against current availability and places a
// TTL-bounded lock on the table + time range.
func (s *ReservationService) PlaceHold(ctx context.Context, req HoldRequest) (*domain.Hold, error) {
	restaurant, err := s.restaurants.GetByID(ctx, req.RestaurantID)
	if err != nil {
		metrics.ObserveHold("place", "error")
		return nil, err
	}
	table := restaurant.TableByID(req.TableID)
	if table == nil {
		metrics.ObserveHold("place", "not_found")
		return nil, domain.ErrNotFound
	}
	if err := s.engine.ValidateReservationConstraints(restaurant, table, req.PartySize, req.Date, req.Start, req.End); err != nil {
		metrics.ObserveHold("place", "rejected")
		return nil, err
	}

	ttl := time.Duration(s.config.HoldTTLSeconds) * time.Second
	now := s.clock.Now()
	hold := &domain.Hold{
		Key:          domain.HoldKey(req.RestaurantID, req.TableID, req.Date, req.Start, req.End),
		RestaurantID: req.RestaurantID,
		TableID:      req.TableID,
		Date:         req.Date,
		Start:        req.Start,
		End:          req.End,
		PartySize:    req.PartySize,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}
	if err := s.holds.Place(ctx, hold, ttl); err != nil {
		metrics.ObserveHold("place", "conflict")
		return nil, err
	}

	metrics.ObserveHold("place", "success")
	return hold, nil
}

// ReleaseHold frees a previously placed hold.
func (s *ReservationService) ReleaseHold(ctx context.Context, key string) error {
	if err := s.holds.Release(ctx, key); err != nil {
		metrics.ObserveHold("release", "error")
		return err
	}
	metrics.ObserveHold("release", "success")
	return nil
}

// ListHolds returns the live holds for a restaurant.
func (s *ReservationService) ListHolds(ctx context.Context, restaurantID string) ([]*domain.Hold, error) {
	return s.holds.ListByRestaurant(ctx, restaurantID)
}

// FindAvailableTables returns the tables free for the given party and range.
func (s *ReservationService) FindAvailableTables(ctx context.Context, restaurantID string, partySize int, date domain.Date, start, end domain.TimeOfDay) ([]*domain.Table, error) {
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return s.engine.FindAvailableTables(restaurant, partySize, date, start, end)
}

// FindBestTable returns the smallest free table that fits, or nil when none.
func (s *ReservationService) FindBestTable(ctx context.Context, restaurantID string, partySize int, date domain.Date, start, end domain.TimeOfDay) (*domain.Table, error) {
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return s.engine.FindBestTable(restaurant, partySize, date, start, end)
}

// Rates bundles the derived occupancy figures served by the availability API.
type Rates struct {
	AvailabilityRate float64 `json:"availability_rate"`
	UtilizationRate  float64 `json:"utilization_rate"`
}

// Rates computes availability and utilization for a restaurant, cached
// briefly since both are derived and read often.
func (s *ReservationService) Rates(ctx context.Context, restaurantID string, date domain.Date, at domain.TimeOfDay) (Rates, error) {
	cacheKey := fmt.Sprintf("rates:%s:%s:%s", restaurantID, date, at)
	if s.rateCache != nil {
		if cached, ok := s.rateCache.Get(cacheKey); ok {
			if rates, ok := cached.(Rates); ok {
				return rates, nil
			}
		}
	}

	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return Rates{}, err
	}
	rates := Rates{
		AvailabilityRate: s.engine.AvailabilityRate(restaurant, date),
		UtilizationRate:  s.engine.UtilizationRate(restaurant, date, at),
	}
	if s.rateCache != nil {
		s.rateCache.Set(cacheKey, rates, time.Duration(s.config.RateCacheTTLSeconds)*time.Second)
	}
	return rates, nil
}

// CanAccommodateOnDate reports whether the restaurant's total seating could
// ever fit the party, regardless of current bookings.
func (s *ReservationService) CanAccommodateOnDate(ctx context.Context, restaurantID string, partySize int, date domain.Date) (bool, error) {
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return false, err
	}
	return s.engine.CanAccommodateOnDate(restaurant, partySize, date)
}

func (s *ReservationService) invalidateRates(restaurantID string) {
	if s.rateCache != nil {
		s.rateCache.Invalidate("rates:" + restaurantID)
	}
}
