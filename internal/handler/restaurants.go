package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/service"
)

// CreateRestaurantRequest represents a restaurant registration
type CreateRestaurantRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Capacity  int    `json:"capacity,omitempty"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// RestaurantResponse is the public shape of a restaurant aggregate
type RestaurantResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Address    string          `json:"address"`
	Phone      string          `json:"phone,omitempty"`
	Email      string          `json:"email,omitempty"`
	Capacity   int             `json:"capacity"`
	Active     bool            `json:"active"`
	OpenTime   string          `json:"openTime"`
	CloseTime  string          `json:"closeTime"`
	TotalSeats int             `json:"totalSeats"`
	Tables     []TableResponse `json:"tables"`
}

// TableResponse is the public shape of a table
type TableResponse struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	Seats     int    `json:"seats"`
	Location  string `json:"location"`
	Available bool   `json:"available"`
	Slots     int    `json:"slots"`
}

func toRestaurantResponse(r *domain.Restaurant) RestaurantResponse {
	tables := make([]TableResponse, 0, len(r.Tables()))
	for _, t := range r.Tables() {
		tables = append(tables, toTableResponse(t))
	}
	return RestaurantResponse{
		ID:         r.ID,
		Name:       r.Name,
		Address:    r.Address,
		Phone:      r.Phone,
		Email:      r.Email,
		Capacity:   r.Capacity,
		Active:     r.Active,
		OpenTime:   r.Hours.Open.String(),
		CloseTime:  r.Hours.Close.String(),
		TotalSeats: r.TotalSeats(),
		Tables:     tables,
	}
}

func toTableResponse(t *domain.Table) TableResponse {
	return TableResponse{
		ID:        t.ID,
		Number:    t.Number,
		Seats:     t.Seats,
		Location:  string(t.Location),
		Available: t.Available,
		Slots:     len(t.Slots()),
	}
}

// RestaurantsHandler serves the restaurant collection: create and list.
type RestaurantsHandler struct {
	restaurantService *service.RestaurantService
	logger            *slog.Logger
}

// NewRestaurantsHandler creates a new restaurants handler
func NewRestaurantsHandler(restaurantService *service.RestaurantService, logger *slog.Logger) *RestaurantsHandler {
	return &RestaurantsHandler{
		restaurantService: restaurantService,
		logger:            logger,
	}
}

// ServeHTTP handles POST and GET /api/restaurants requests
func (h *RestaurantsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RestaurantsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		writeError(w, h.logger, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	open, err := domain.ParseTimeOfDay(req.OpenTime)
	if err != nil {
		writeError(w, h.logger, &domain.ValidationError{Field: "openTime", Reason: "must be a time in HH:MM format"})
		return
	}
	closeAt, err := domain.ParseTimeOfDay(req.CloseTime)
	if err != nil {
		writeError(w, h.logger, &domain.ValidationError{Field: "closeTime", Reason: "must be a time in HH:MM format"})
		return
	}

	restaurant, err := h.restaurantService.Create(r.Context(), service.CreateRestaurantRequest{
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		Capacity: req.Capacity,
		Open:     open,
		Close:    closeAt,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRestaurantResponse(restaurant))
}

func (h *RestaurantsHandler) list(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.restaurantService.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]RestaurantResponse, 0, len(restaurants))
	for _, restaurant := range restaurants {
		out = append(out, toRestaurantResponse(restaurant))
	}
	writeJSON(w, http.StatusOK, out)
}

// RestaurantHandler serves a single restaurant: get and delete.
type RestaurantHandler struct {
	restaurantService *service.RestaurantService
	logger            *slog.Logger
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(restaurantService *service.RestaurantService, logger *slog.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		restaurantService: restaurantService,
		logger:            logger,
	}
}

// ServeHTTP handles GET and DELETE /api/restaurants/{id} requests
func (h *RestaurantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, h.logger, &domain.ValidationError{Field: "id", Reason: "restaurant id required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		restaurant, err := h.restaurantService.Get(r.Context(), id)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
	case http.MethodDelete:
		if err := h.restaurantService.Delete(r.Context(), id); err != nil {
			writeError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// RestaurantStatusHandler flips the accepting-reservations flag.
type RestaurantStatusHandler struct {
	restaurantService *service.RestaurantService
	logger            *slog.Logger
}

// NewRestaurantStatusHandler creates a new restaurant status handler
func NewRestaurantStatusHandler(restaurantService *service.RestaurantService, logger *slog.Logger) *RestaurantStatusHandler {
	return &RestaurantStatusHandler{
		restaurantService: restaurantService,
		logger:            logger,
	}
}

// ServeHTTP handles PUT /api/restaurants/{id}/active requests
func (h *RestaurantStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	if err := h.restaurantService.SetActive(r.Context(), id, req.Active); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}
