package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/service"
)

// BookingRequest represents a reservation request
type BookingRequest struct {
	TableID       string `json:"tableId,omitempty"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	PartySize     int    `json:"partySize"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	HoldKey       string `json:"holdKey,omitempty"`
}

// SlotResponse is the public shape of a reservation slot
type SlotResponse struct {
	ID            string `json:"id"`
	TableID       string `json:"tableId"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	PartySize     int    `json:"partySize"`
	Status        string `json:"status"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

func toSlotResponse(s *domain.ReservationSlot) SlotResponse {
	return SlotResponse{
		ID:            s.ID,
		TableID:       s.TableID,
		Date:          s.Date.String(),
		StartTime:     s.Start.String(),
		EndTime:       s.End.String(),
		PartySize:     s.PartySize,
		Status:        string(s.Status),
		CustomerName:  s.CustomerName,
		CustomerPhone: s.CustomerPhone,
		CustomerEmail: s.CustomerEmail,
	}
}

// BookHandler creates reservation slots.
type BookHandler struct {
	reservationService *service.ReservationService
	logger             *slog.Logger
}

// NewBookHandler creates a new booking handler
func NewBookHandler(reservationService *service.ReservationService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// ServeHTTP handles POST /api/restaurants/{id}/reservations requests
func (h *BookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	restaurantID := r.PathValue("id")
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		writeError(w, h.logger, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		writeError(w, h.logger, &domain.ValidationError{Field: "date", Reason: "must be a date in YYYY-MM-DD format"})
		return
	}
	start, err := domain.ParseTimeOfDay(req.StartTime)
	if err != nil {
		writeError(w, h.logger, &domain.ValidationError{Field: "startTime", Reason: "must be a time in HH:MM format"})
		return
	}
	end, err := domain.ParseTimeOfDay(req.EndTime)
	if err != nil {
		writeError(w, h.logger, &domain.ValidationError{Field: "endTime", Reason: "must be a time in HH:MM format"})
		return
	}

	slot, err := h.reservationService.Book(r.Context(), service.BookingRequest{
		RestaurantID:  restaurantID,
		TableID:       req.TableID,
		Date:          date,
		Start:         start,
		End:           end,
		PartySize:     req.PartySize,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		HoldKey:       req.HoldKey,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSlotResponse(slot))
}

// ReservationActionHandler applies lifecycle transitions to a slot.
type ReservationActionHandler struct {
	reservationService *service.ReservationService
	logger             *slog.Logger
}

// NewReservationActionHandler creates a new reservation action handler
func NewReservationActionHandler(reservationService *service.ReservationService, logger *slog.Logger) *ReservationActionHandler {
	return &ReservationActionHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// ServeHTTP handles POST /api/restaurants/{id}/reservations/{slotId}/{action}
// requests, where action is confirm, cancel or complete.
func (h *ReservationActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	restaurantID := r.PathValue("id")
	slotID := r.PathValue("slotId")
	action := r.PathValue("action")

	var slot *domain.ReservationSlot
	var err error
	switch action {
	case "confirm":
		slot, err = h.reservationService.Confirm(r.Context(), restaurantID, slotID)
	case "cancel":
		slot, err = h.reservationService.Cancel(r.Context(), restaurantID, slotID)
	case "complete":
		slot, err = h.reservationService.Complete(r.Context(), restaurantID, slotID)
	default:
		writeError(w, h.logger, &domain.ValidationError{Field: "action", Reason: "must be confirm, cancel or complete"})
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toSlotResponse(slot))
}
