package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/service"
)

// PlaceHoldRequest represents a tentative table lock request
type PlaceHoldRequest struct {
	TableID   string `json:"tableId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	PartySize int    `json:"partySize"`
}

// HoldResponse is the public shape of a table hold
type HoldResponse struct {
	Key       string    `json:"key"`
	TableID   string    `json:"tableId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	PartySize int       `json:"partySize"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toHoldResponse(h *domain.Hold) HoldResponse {
	return HoldResponse{
		Key:       h.Key,
		TableID:   h.TableID,
		Date:      h.Date.String(),
		StartTime: h.Start.String(),
		EndTime:   h.End.String(),
		PartySize: h.PartySize,
		ExpiresAt: h.ExpiresAt,
	}
}

// HoldsHandler places and lists table holds for a restaurant.
type HoldsHandler struct {
	reservationService *service.ReservationService
	logger             *slog.Logger
}

// NewHoldsHandler creates a new holds handler
func NewHoldsHandler(reservationService *service.ReservationService, logger *slog.Logger) *HoldsHandler {
	return &HoldsHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// ServeHTTP handles POST and GET /api/restaurants/{id}/holds requests
func (h *HoldsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.place(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HoldsHandler) place(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("id")
	var req PlaceHoldRequest
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

	hold, err := h.reservationService.PlaceHold(r.Context(), service.HoldRequest{
		RestaurantID: restaurantID,
		TableID:      req.TableID,
		Date:         date,
		Start:        start,
		End:          end,
		PartySize:    req.PartySize,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toHoldResponse(hold))
}

func (h *HoldsHandler) list(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("id")
	holds, err := h.reservationService.ListHolds(r.Context(), restaurantID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]HoldResponse, 0, len(holds))
	for _, hold := range holds {
		out = append(out, toHoldResponse(hold))
	}
	writeJSON(w, http.StatusOK, out)
}

// ReleaseHoldHandler frees a previously placed hold.
type ReleaseHoldHandler struct {
	reservationService *service.ReservationService
	logger             *slog.Logger
}

// NewReleaseHoldHandler creates a new release hold handler
func NewReleaseHoldHandler(reservationService *service.ReservationService, logger *slog.Logger) *ReleaseHoldHandler {
	return &ReleaseHoldHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// ServeHTTP handles DELETE /api/holds/{key} requests
func (h *ReleaseHoldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := r.PathValue("key")
	if key == "" {
		writeError(w, h.logger, &domain.ValidationError{Field: "key", Reason: "hold key required"})
		return
	}

	if err := h.reservationService.ReleaseHold(r.Context(), key); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
