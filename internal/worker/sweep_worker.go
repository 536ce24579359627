package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/observability/metrics"
)

// SweepWorker periodically closes out reservations whose service window has
// passed: confirmed slots end up completed once their end time is behind the
// clock. It also refreshes the occupancy gauges and raises a capacity alert
// event when a restaurant's utilization crosses the configured threshold.
type SweepWorker struct {
	restaurants    domain.RestaurantRepository
	publisher      domain.EventPublisher
	engine         *domain.AvailabilityEngine
	clock          domain.Clock
	logger         *slog.Logger
	interval       time.Duration
	alertThreshold float64
	maxRetries     int
}

// NewSweepWorker creates a new sweep worker
func NewSweepWorker(
	restaurants domain.RestaurantRepository,
	publisher domain.EventPublisher,
	engine *domain.AvailabilityEngine,
	clock domain.Clock,
	logger *slog.Logger,
	interval time.Duration,
	alertThreshold float64,
) *SweepWorker {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = domain.NewAvailabilityEngine(clock, logger)
	}
	return &SweepWorker{
		restaurants:    restaurants,
		publisher:      publisher,
		engine:         engine,
		clock:          clock,
		logger:         logger,
		interval:       interval,
		alertThreshold: alertThreshold,
		maxRetries:     3,
	}
}

// Start begins the sweep loop. It runs until the context is cancelled.
func (w *SweepWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sweep worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweep worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass over every restaurant.
func (w *SweepWorker) Sweep(ctx context.Context) {
	w.logger.Debug("running sweep for elapsed reservations")

	restaurants, err := w.restaurants.List(ctx)
	if err != nil {
		w.logger.Error("failed to list restaurants",
			slog.String("error", err.Error()),
		)
		metrics.ObserveSweep("error")
		return
	}

	confirmedCount := 0
	for _, r := range restaurants {
		confirmedCount += w.sweepRestaurant(ctx, r.ID)
	}
	metrics.SetConfirmed(confirmedCount)
}

// sweepRestaurant closes elapsed slots on one aggregate with retry logic,
// and returns the number of confirmed slots that remain after the pass.
func (w *SweepWorker) sweepRestaurant(ctx context.Context, restaurantID string) int {
	logger := w.logger.With(slog.String("restaurant_id", restaurantID))

	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt*attempt) * time.Second
			logger.Warn("retrying sweep", slog.Int("attempt", attempt), slog.Duration("backoff", backoff))
			time.Sleep(backoff)
		}

		remaining, done := w.performSweep(ctx, restaurantID, logger)
		if done {
			return remaining
		}
	}

	logger.Error("sweep failed after retries",
		slog.Int("max_retries", w.maxRetries),
	)
	metrics.ObserveSweep("error")
	return 0
}

func (w *SweepWorker) performSweep(ctx context.Context, restaurantID string, logger *slog.Logger) (int, bool) {
	restaurant, err := w.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted between List and GetByID.
			return 0, true
		}
		logger.Error("failed to load restaurant", slog.String("error", err.Error()))
		return 0, false
	}

	now := w.clock.Now()
	today := domain.DateOf(now)
	nowTime := domain.TimeOfDay(now.Hour()*60 + now.Minute())

	type closed struct {
		tableID string
		slotID  string
	}
	var completed []closed
	remaining := 0

	for _, table := range restaurant.Tables() {
		for _, slot := range table.Slots() {
			if slot.Status != domain.StatusConfirmed {
				continue
			}
			elapsed := slot.Date.Before(today) || (slot.Date == today && !nowTime.Before(slot.End))
			if !elapsed {
				remaining++
				continue
			}
			if err := slot.Complete(); err != nil {
				logger.Error("failed to complete elapsed slot",
					slog.String("slot_id", slot.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			completed = append(completed, closed{tableID: table.ID, slotID: slot.ID})
		}
	}

	utilization := w.engine.UtilizationRate(restaurant, today, nowTime)
	metrics.SetUtilization(restaurant.ID, utilization)

	if len(completed) == 0 {
		metrics.ObserveSweep("success")
		w.maybeAlertCapacity(ctx, restaurant, utilization)
		return remaining, true
	}

	if err := w.restaurants.Save(ctx, restaurant); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			logger.Debug("sweep save conflict, will retry against fresh load")
		} else {
			logger.Error("failed to save swept restaurant", slog.String("error", err.Error()))
		}
		return 0, false
	}

	for _, c := range completed {
		event := domain.NewEvent(w.clock, domain.EventReservationStatusChanged, restaurant.ID)
		event.TableID = c.tableID
		event.SlotID = c.slotID
		event.Previous = string(domain.StatusConfirmed)
		event.Current = string(domain.StatusCompleted)
		event.Detail = "completed by sweep"
		_ = w.publisher.Publish(ctx, event)
	}

	logger.Info("sweep completed elapsed reservations",
		slog.Int("completed", len(completed)),
		slog.Int("still_confirmed", remaining),
	)
	metrics.ObserveSweep("success")
	w.maybeAlertCapacity(ctx, restaurant, utilization)
	return remaining, true
}

// maybeAlertCapacity publishes a threshold event when current utilization
// reaches the configured alert level.
func (w *SweepWorker) maybeAlertCapacity(ctx context.Context, restaurant *domain.Restaurant, utilization float64) {
	if w.alertThreshold <= 0 || utilization < w.alertThreshold {
		return
	}
	event := domain.NewEvent(w.clock, domain.EventCapacityThresholdReached, restaurant.ID)
	event.Detail = restaurant.Name
	_ = w.publisher.Publish(ctx, event)
	w.logger.Warn("capacity threshold reached",
		slog.String("restaurant_id", restaurant.ID),
		slog.Float64("utilization", utilization),
		slog.Float64("threshold", w.alertThreshold),
	)
}

