package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/tablereserve/internal/service"
)

// AvailabilityHandler answers table availability queries.
type AvailabilityHandler struct {
	reservationService *service.ReservationService
	logger             *slog.Logger
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(reservationService *service.ReservationService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// AvailabilityResponse lists the free tables plus the engine's best pick.
type AvailabilityResponse struct {
	Tables []TableResponse `json:"tables"`
	Best   *TableResponse  `json:"best,omitempty"`
}

// ServeHTTP handles GET /api/restaurants/{id}/availability requests
func (h *AvailabilityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	restaurantID := r.PathValue("id")
	q := r.URL.Query()

	date, err := queryDate(q, "date")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	start, err := queryTime(q, "start")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	end, err := queryTime(q, "end")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	partySize, err := queryInt(q, "partySize")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tables, err := h.reservationService.FindAvailableTables(r.Context(), restaurantID, partySize, date, start, end)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	best, err := h.reservationService.FindBestTable(r.Context(), restaurantID, partySize, date, start, end)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := AvailabilityResponse{Tables: make([]TableResponse, 0, len(tables))}
	for _, t := range tables {
		resp.Tables = append(resp.Tables, toTableResponse(t))
	}
	if best != nil {
		b := toTableResponse(best)
		resp.Best = &b
	}
	writeJSON(w, http.StatusOK, resp)
}

// RatesHandler serves the derived availability and utilization figures.
type RatesHandler struct {
	reservationService *service.ReservationService
	logger             *slog.Logger
}

// NewRatesHandler creates a new rates handler
func NewRatesHandler(reservationService *service.ReservationService, logger *slog.Logger) *RatesHandler {
	return &RatesHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// ServeHTTP handles GET /api/restaurants/{id}/rates requests
func (h *RatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	restaurantID := r.PathValue("id")
	q := r.URL.Query()

	date, err := queryDate(q, "date")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	at, err := queryTime(q, "at")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rates, err := h.reservationService.Rates(r.Context(), restaurantID, date, at)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

// AccommodateHandler answers whether a party could ever fit on a date.
type AccommodateHandler struct {
	reservationService *service.ReservationService
	logger             *slog.Logger
}

// NewAccommodateHandler creates a new accommodate handler
func NewAccommodateHandler(reservationService *service.ReservationService, logger *slog.Logger) *AccommodateHandler {
	return &AccommodateHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// ServeHTTP handles GET /api/restaurants/{id}/accommodate requests
func (h *AccommodateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	restaurantID := r.PathValue("id")
	q := r.URL.Query()

	date, err := queryDate(q, "date")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	partySize, err := queryInt(q, "partySize")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	ok, err := h.reservationService.CanAccommodateOnDate(r.Context(), restaurantID, partySize, date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"canAccommodate": ok})
}
