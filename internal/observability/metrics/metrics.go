package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablereserve_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tablereserve_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	bookingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tablereserve_booking_duration_seconds",
		Help:    "Duration of booking attempts",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	reservationOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablereserve_reservation_operations_total",
		Help: "Count of reservation operations by kind and result",
	}, []string{"operation", "result"})

	holdOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablereserve_hold_operations_total",
		Help: "Count of table hold operations by kind and result",
	}, []string{"operation", "result"})

	sweepOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablereserve_sweep_operations_total",
		Help: "Count of sweep worker completions by result",
	}, []string{"result"})

	confirmedSlots = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tablereserve_confirmed_slots",
		Help: "Number of confirmed reservation slots (logical state)",
	})

	seatUtilization = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tablereserve_seat_utilization_ratio",
		Help: "Seat utilization per restaurant as observed by the sweep worker",
	}, []string{"restaurant_id"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveBooking records the duration of a booking attempt with a result label.
func ObserveBooking(result string, duration time.Duration) {
	bookingDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveReservation increments the reservation counter for an operation and result.
func ObserveReservation(operation, result string) {
	reservationOperations.WithLabelValues(operation, result).Inc()
}

// ObserveHold increments the hold counter for an operation and result.
func ObserveHold(operation, result string) {
	holdOperations.WithLabelValues(operation, result).Inc()
}

// ObserveSweep increments the sweep counter for the given result.
func ObserveSweep(result string) {
	sweepOperations.WithLabelValues(result).Inc()
}

// IncrementConfirmed increments the confirmed slot gauge.
func IncrementConfirmed() {
	confirmedSlots.Inc()
}

// DecrementConfirmed decrements the confirmed slot gauge.
func DecrementConfirmed() {
	confirmedSlots.Dec()
}

// SetConfirmed sets the confirmed slot gauge to a specific count.
func SetConfirmed(count int) {
	if count < 0 {
		count = 0
	}
	confirmedSlots.Set(float64(count))
}

// SetUtilization records the current seat utilization for a restaurant.
func SetUtilization(restaurantID string, ratio float64) {
	seatUtilization.WithLabelValues(restaurantID).Set(ratio)
}
